// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package summary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/poiesic/quire/ai"
	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/retry"
	"github.com/poiesic/quire/storage"
)

const (
	// Accepted summary length band, in characters.
	MinSummaryLength = 50
	MaxSummaryLength = 1000

	promptFunctions    = 10
	promptClasses      = 10
	promptImports      = 5
	promptContentChars = 1500

	fallbackClasses      = 5
	fallbackFunctions    = 10
	fallbackDependencies = 5
)

// Generator produces short synopses of source files, caching accepted
// results by content hash.
type Generator struct {
	generator ai.Generator
	cache     storage.SummaryRepository
	policy    *retry.Policy
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithRetryPolicy wraps the generation call in policy.
func WithRetryPolicy(policy *retry.Policy) Option {
	return func(g *Generator) error {
		g.policy = policy
		return nil
	}
}

// WithLogger sets the generator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", core.ErrValidation)
		}
		g.logger = logger
		return nil
	}
}

// WithClock overrides the timestamp source for cache entries.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", core.ErrValidation)
		}
		g.now = now
		return nil
	}
}

// NewGenerator creates a Generator. cache may be nil, in which case every
// call reaches the model.
func NewGenerator(generator ai.Generator, cache storage.SummaryRepository, opts ...Option) (*Generator, error) {
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", core.ErrValidation)
	}
	g := &Generator{
		generator: generator,
		cache:     cache,
		now:       time.Now,
		logger:    slog.Default().With("component", "summary-generator"),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Summarize returns a markdown synopsis of content. It never fails: model
// errors and out-of-band output fall back to a summary built from chunks.
func (g *Generator) Summarize(ctx context.Context, path, content string, chunks []core.StructuralChunk) string {
	hash := core.HashContent(content)
	if cached := g.lookup(ctx, hash); cached != "" {
		return cached
	}

	outline := outlineOf(chunks)
	prompt := buildPrompt(path, content, outline)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("summary generation failed, using fallback", "path", path, "err", err)
		return Fallback(path, content, chunks)
	}
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n < MinSummaryLength || n > MaxSummaryLength {
		g.logger.Warn("summary length out of range, using fallback", "path", path, "length", n)
		return Fallback(path, content, chunks)
	}

	g.store(ctx, hash, path, text)
	return text
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	if g.policy == nil {
		return g.generator.Generate(ctx, prompt)
	}
	return retry.Value(ctx, g.policy, func(ctx context.Context) (string, error) {
		return g.generator.Generate(ctx, prompt)
	})
}

func (g *Generator) lookup(ctx context.Context, hash string) string {
	if g.cache == nil {
		return ""
	}
	entry, err := g.cache.GetSummary(ctx, hash)
	if err != nil {
		g.logger.Warn("summary cache read failed", "hash", hash, "err", err)
		return ""
	}
	if entry == nil {
		return ""
	}
	return entry.Summary
}

func (g *Generator) store(ctx context.Context, hash, path, text string) {
	if g.cache == nil {
		return
	}
	entry := &storage.SummaryEntry{
		Summary:   text,
		Path:      path,
		CreatedAt: g.now().UTC(),
	}
	if err := g.cache.PutSummary(ctx, hash, entry); err != nil {
		g.logger.Warn("summary cache write failed", "path", path, "err", err)
	}
}

// Stats returns the number of cached summaries.
func (g *Generator) Stats(ctx context.Context) (int, error) {
	if g.cache == nil {
		return 0, nil
	}
	return g.cache.CountSummaries(ctx)
}

// Clear drops every cached summary.
func (g *Generator) Clear(ctx context.Context) error {
	if g.cache == nil {
		return nil
	}
	if err := g.cache.ClearSummaries(ctx); err != nil {
		return err
	}
	g.logger.Info("cleared summary cache")
	return nil
}

func buildPrompt(path, content string, o outline) string {
	lang := chunking.LanguageName(filepath.Ext(path))
	if lang == "" || lang == "text" {
		lang = "source"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a concise markdown summary (3-4 sentences) for this %s file.\n\n", lang)
	fmt.Fprintf(&b, "File: %s\n\n", path)
	fmt.Fprintf(&b, "Functions: %s\n", strings.Join(head(o.functions, promptFunctions), ", "))
	fmt.Fprintf(&b, "Classes: %s\n", strings.Join(head(o.classes, promptClasses), ", "))
	fmt.Fprintf(&b, "Imports: %s\n\n", strings.Join(head(o.imports, promptImports), ", "))
	fmt.Fprintf(&b, "First %d characters:\n%s\n\n", promptContentChars, prefix(content, promptContentChars))
	b.WriteString("Include:\n")
	b.WriteString("1. Primary purpose of the file\n")
	b.WriteString("2. Key components (main functions/classes)\n")
	b.WriteString("3. Main dependencies/technologies used\n")
	b.WriteString("4. How it fits in the codebase (if obvious)\n\n")
	b.WriteString("Format as markdown with file path as heading.\n")
	return b.String()
}

// Fallback builds a summary from chunk metadata without a model call.
func Fallback(path, content string, chunks []core.StructuralChunk) string {
	o := outlineOf(chunks)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", path)
	if len(o.classes) > 0 {
		fmt.Fprintf(&b, "**Classes**: %s\n\n", strings.Join(head(o.classes, fallbackClasses), ", "))
	}
	if len(o.functions) > 0 {
		fmt.Fprintf(&b, "**Functions**: %s\n\n", strings.Join(head(o.functions, fallbackFunctions), ", "))
	}
	if deps := Dependencies(o.imports); len(deps) > 0 {
		fmt.Fprintf(&b, "**Dependencies**: %s\n", strings.Join(head(deps, fallbackDependencies), ", "))
	}
	if len(o.classes) == 0 && len(o.functions) == 0 && len(o.imports) == 0 {
		lines := 0
		if content != "" {
			lines = strings.Count(content, "\n") + 1
		}
		fmt.Fprintf(&b, "%d lines, %d characters.\n", lines, utf8.RuneCountInString(content))
	}
	return b.String()
}

type outline struct {
	functions []string
	classes   []string
	imports   []string
}

// outlineOf collects names in source order. Import chunks contribute one
// entry per non-blank line.
func outlineOf(chunks []core.StructuralChunk) outline {
	var o outline
	for _, c := range chunks {
		switch c.Kind {
		case core.ChunkKindFunction:
			if c.Name != "" {
				o.functions = append(o.functions, c.Name)
			}
		case core.ChunkKindClass:
			if c.Name != "" {
				o.classes = append(o.classes, c.Name)
			}
		case core.ChunkKindImport:
			for _, line := range strings.Split(c.Content, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					o.imports = append(o.imports, line)
				}
			}
		}
	}
	return o
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

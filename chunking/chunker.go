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


package chunking

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/poiesic/quire/core"
)

const (
	DefaultMaxChunkSize = 1000
	DefaultWindow       = 800
	DefaultOverlap      = 100
)

type language int

const (
	languageNone language = iota
	languagePython
	languageJavaScript
	languageTypeScript
	languageTSX
	languageGo
	languageMarkdown
)

func languageFor(ext string) language {
	switch core.NormalizeExtension(ext) {
	case ".py":
		return languagePython
	case ".js", ".jsx", ".mjs", ".cjs":
		return languageJavaScript
	case ".ts", ".mts", ".cts":
		return languageTypeScript
	case ".tsx":
		return languageTSX
	case ".go":
		return languageGo
	case ".md", ".markdown", ".txt", ".rst":
		return languageMarkdown
	}
	return languageNone
}

// IsStructured reports whether ext has a syntactic chunking rule.
func IsStructured(ext string) bool {
	switch languageFor(ext) {
	case languagePython, languageJavaScript, languageTypeScript, languageTSX, languageGo:
		return true
	}
	return false
}

// LanguageName returns a display name for the language of ext, or "" when
// ext has no dedicated rule.
func LanguageName(ext string) string {
	switch languageFor(ext) {
	case languagePython:
		return "Python"
	case languageJavaScript:
		return "JavaScript"
	case languageTypeScript, languageTSX:
		return "TypeScript"
	case languageGo:
		return "Go"
	case languageMarkdown:
		return "text"
	}
	return ""
}

// segment is a chunk before window enforcement. start and end are byte
// offsets into the source.
type segment struct {
	kind       core.ChunkKind
	name       string
	doc        string
	start, end int
}

// appendGrouped extends the last segment when it has the same groupable
// kind, otherwise starts a new one.
func appendGrouped(segs []segment, kind core.ChunkKind, start, end int) []segment {
	if n := len(segs); n > 0 && segs[n-1].kind == kind && segs[n-1].name == "" &&
		(kind == core.ChunkKindImport || kind == core.ChunkKindRaw) {
		segs[n-1].end = end
		return segs
	}
	return append(segs, segment{kind: kind, start: start, end: end})
}

// Chunker splits content into StructuralChunks. It is safe for concurrent use.
type Chunker struct {
	maxChunkSize int
	splitter     splitter
	logger       *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxChunkSize sets the rune length above which structural chunks are re-split.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return fmt.Errorf("%w: max chunk size must be positive", core.ErrValidation)
		}
		c.maxChunkSize = size
		return nil
	}
}

// WithWindow sets the windowed splitter's window and overlap, in runes.
func WithWindow(window, overlap int) Option {
	return func(c *Chunker) error {
		if window < 1 || overlap < 0 || overlap >= window {
			return fmt.Errorf("%w: need 0 <= overlap < window, got window=%d overlap=%d",
				core.ErrValidation, window, overlap)
		}
		c.splitter = splitter{window: window, overlap: overlap}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker with a 1000 rune maximum and an 800/100 window
// unless overridden.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		splitter:     splitter{window: DefaultWindow, overlap: DefaultOverlap},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.splitter.window > c.maxChunkSize {
		return nil, fmt.Errorf("%w: window %d exceeds max chunk size %d",
			core.ErrValidation, c.splitter.window, c.maxChunkSize)
	}
	c.logger = c.logger.With("component", "chunker")
	return c, nil
}

// MaxChunkSize returns the configured chunk ceiling in runes.
func (c *Chunker) MaxChunkSize() int {
	return c.maxChunkSize
}

// Chunk splits content according to typeHint, a file extension such as
// ".py". Chunks are returned in source order and none exceeds
// MaxChunkSize runes. Empty content yields no chunks.
func (c *Chunker) Chunk(ctx context.Context, content, typeHint string) []core.StructuralChunk {
	if content == "" {
		return nil
	}

	lang := languageFor(typeHint)
	var (
		segs []segment
		err  error
	)
	switch lang {
	case languagePython:
		segs, err = parsePython(ctx, []byte(content))
	case languageJavaScript, languageTypeScript, languageTSX:
		segs, err = parseScript(ctx, []byte(content), lang)
	case languageGo:
		segs, err = parseGo(content)
	case languageMarkdown:
		segs = splitHeadings(content)
	default:
		return c.finish(c.window(core.ChunkKindRaw, "", "", content))
	}

	if err != nil {
		c.logger.Debug("structural parse failed, using heuristic split", "type", typeHint, "err", err)
		segs = splitDeclarations(content, lang)
	}

	var chunks []core.StructuralChunk
	for _, s := range segs {
		text := content[s.start:s.end]
		if isBlank(text) {
			continue
		}
		if utf8.RuneCountInString(text) > c.maxChunkSize {
			chunks = append(chunks, c.window(s.kind, s.name, s.doc, text)...)
			continue
		}
		chunks = append(chunks, core.StructuralChunk{
			Kind:    s.kind,
			Name:    s.name,
			Doc:     s.doc,
			Content: text,
		})
	}
	return c.finish(chunks)
}

// Split runs only the windowed splitter over content.
func (c *Chunker) Split(content string) []core.StructuralChunk {
	return c.finish(c.window(core.ChunkKindRaw, "", "", content))
}

func (c *Chunker) window(kind core.ChunkKind, name, doc, text string) []core.StructuralChunk {
	pieces := c.splitter.split(text)
	chunks := make([]core.StructuralChunk, 0, len(pieces))
	for i, p := range pieces {
		chunk := core.StructuralChunk{
			Kind:    kind,
			Name:    name,
			Content: p.text,
			Overlap: p.overlap,
		}
		if i == 0 {
			chunk.Doc = doc
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (c *Chunker) finish(chunks []core.StructuralChunk) []core.StructuralChunk {
	for i := range chunks {
		chunks[i].Ordinal = i
	}
	return chunks
}

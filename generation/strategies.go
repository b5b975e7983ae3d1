package generation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
)

const omittedMarker = "\n... (middle section omitted) ...\n"

func (o *Orchestrator) full(ctx context.Context, path, ext, content string) (string, error) {
	return o.generate(ctx, filePrompt(path, ext, content))
}

func (o *Orchestrator) chunked(ctx context.Context, file core.SourceFile) (string, error) {
	ext := file.Ext()
	groups := o.group(o.chunker.Chunk(ctx, file.Content, ext))

	docs := make([]string, 0, len(groups))
	for i, g := range groups {
		doc, err := o.generate(ctx, chunkPrompt(file.Path, ext, g, i, len(groups)))
		if err != nil {
			return "", fmt.Errorf("chunk %d of %d: %w", i+1, len(groups), err)
		}
		docs = append(docs, doc)
	}
	return mergeSections(file.Path, docs), nil
}

// group greedily combines consecutive chunks while the running estimate
// stays under the sub-chunk budget. A windowed continuation joins its
// group without the overlap it repeats.
func (o *Orchestrator) group(chunks []core.StructuralChunk) []string {
	var (
		groups  []string
		current strings.Builder
		tokens  int
	)
	for _, c := range chunks {
		n := o.estimator.Estimate(c.Content)
		if current.Len() > 0 && tokens+n < o.subChunkTokens {
			if c.Overlap > 0 {
				current.WriteString(string([]rune(c.Content)[c.Overlap:]))
			} else {
				current.WriteString("\n\n")
				current.WriteString(c.Content)
			}
			tokens += n
			continue
		}
		if current.Len() > 0 {
			groups = append(groups, current.String())
			current.Reset()
		}
		current.WriteString(c.Content)
		tokens = n
	}
	if current.Len() > 0 {
		groups = append(groups, current.String())
	}
	return groups
}

func mergeSections(path string, docs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Documentation\n\n", filepath.Base(path))
	fmt.Fprintf(&b, "*Generated from %d chunks*\n\n", len(docs))
	for i, doc := range docs {
		fmt.Fprintf(&b, "## Section %d of %d\n\n", i+1, len(docs))
		b.WriteString(doc)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (o *Orchestrator) summarized(ctx context.Context, file core.SourceFile) (string, error) {
	return o.full(ctx, file.Path, file.Ext(), o.bound(excerpt(file.Content)))
}

// bound truncates text to the excerpt token budget.
func (o *Orchestrator) bound(text string) string {
	if o.estimator.Estimate(text) > o.excerptTokens {
		return o.estimator.Truncate(text, o.excerptTokens)
	}
	return text
}

// excerpt keeps the first half and the last fifth of the lines of content
// around an omission marker.
func excerpt(content string) string {
	lines := strings.Split(content, "\n")
	n := len(lines)
	parts := make([]string, 0, n/2+n/5+2)
	parts = append(parts, lines[:n/2]...)
	parts = append(parts, omittedMarker)
	parts = append(parts, lines[n*4/5:]...)
	return strings.Join(parts, "\n")
}

func (o *Orchestrator) structureOnly(ctx context.Context, file core.SourceFile) (string, error) {
	outline, ok := chunking.Outline(file.Path, file.Content)
	if !ok {
		return Statistics(file.Path, file.Content), nil
	}
	return o.full(ctx, file.Path, file.Ext(), o.bound(outline))
}

// Statistics is the artifact for files too large to document and without
// a structural outline.
func Statistics(path, content string) string {
	return fmt.Sprintf("File: %s\nTotal lines: %d\nFile size: %d characters\nContent too large for detailed analysis.\n",
		path, strings.Count(content, "\n")+1, utf8.RuneCountInString(content))
}

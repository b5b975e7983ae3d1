package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/quire/ai/mock"
	"github.com/poiesic/quire/budget"
	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/retry"
	"github.com/poiesic/quire/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(t *testing.T) *retry.Policy {
	t.Helper()
	p, err := retry.New(retry.WithBaseDelay(time.Millisecond))
	require.NoError(t, err)
	return p
}

func newOrchestrator(t *testing.T, gen *mock.MockGenerator, opts ...Option) *Orchestrator {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(fastPolicy(t))}, opts...)
	o, err := NewOrchestrator(gen, opts...)
	require.NoError(t, err)
	return o
}

func pythonFunctions(n int) string {
	var funcs []string
	for i := 0; i < n; i++ {
		funcs = append(funcs, fmt.Sprintf("def func_%d(x):\n    return x + %d, \"%s\"\n", i, i, strings.Repeat("padding ", 12)))
	}
	return strings.Join(funcs, "\n\n")
}

func TestNewOrchestrator_Validation(t *testing.T) {
	_, err := NewOrchestrator(nil)
	assert.ErrorIs(t, err, core.ErrValidation)

	gen := mock.NewMockGenerator()
	_, err = NewOrchestrator(gen, WithSubChunkTokens(0))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewOrchestrator(gen, WithExcerptTokens(-1))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewOrchestrator(gen, WithThresholds(budget.Thresholds{Chunked: 10, Summarized: 5, StructureOnly: 20}))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestProcessFile_FullPathAndCache(t *testing.T) {
	gen := mock.NewMockGenerator()
	o := newOrchestrator(t, gen)
	ctx := context.Background()
	file := core.SourceFile{Path: "pkg/app.py", Content: "def main():\n    pass\n"}

	first := o.ProcessFile(ctx, file)
	require.True(t, first.OK(), "err: %v", first.Err)
	assert.Equal(t, core.StrategyFull, first.Strategy)
	assert.Equal(t, ".py", first.Extension)
	assert.False(t, first.Cached)
	assert.Equal(t, mock.DefaultResponse(gen.Prompts()[0]), first.Documentation)
	assert.Contains(t, gen.Prompts()[0], "Analyze this Python file")
	assert.Contains(t, gen.Prompts()[0], "File: pkg/app.py")

	second := o.ProcessFile(ctx, file)
	require.True(t, second.OK())
	assert.True(t, second.Cached)
	assert.Equal(t, first.Documentation, second.Documentation)
	assert.Equal(t, 1, gen.CallCount())

	// Same content under another name hits the same entry.
	third := o.ProcessFile(ctx, core.SourceFile{Path: "copy.py", Content: file.Content})
	assert.True(t, third.Cached)
	assert.Equal(t, 1, gen.CallCount())
}

func TestProcessFile_TypeAwarePrompts(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"a.py", "Analyze this Python file"},
		{"a.tsx", "Analyze this JavaScript/TypeScript file"},
		{"a.js", "```javascript"},
		{"a.md", "Analyze this file and generate documentation"},
		{"a.go", "```go"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gen := mock.NewMockGenerator()
			o := newOrchestrator(t, gen)
			r := o.ProcessFile(context.Background(), core.SourceFile{Path: tt.path, Content: "x = 1"})
			require.True(t, r.OK())
			assert.Contains(t, gen.Prompts()[0], tt.expected)
		})
	}
}

func TestProcessFile_ChunkedPath(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		for i := 0; i < 4; i++ {
			if strings.Contains(prompt, fmt.Sprintf("def func_%d", i)) {
				return fmt.Sprintf("doc for func_%d", i), nil
			}
		}
		return "", errors.New("unexpected prompt")
	}
	o := newOrchestrator(t, gen,
		WithThresholds(budget.Thresholds{Chunked: 50, Summarized: 1000, StructureOnly: 10000}),
		WithSubChunkTokens(50),
	)

	r := o.ProcessFile(context.Background(), core.SourceFile{Path: "src/funcs.py", Content: pythonFunctions(4)})
	require.True(t, r.OK(), "err: %v", r.Err)
	assert.Equal(t, core.StrategyChunked, r.Strategy)
	assert.Equal(t, 4, gen.CallCount())

	expected := "# funcs.py Documentation\n\n" +
		"*Generated from 4 chunks*\n\n" +
		"## Section 1 of 4\n\ndoc for func_0\n\n" +
		"## Section 2 of 4\n\ndoc for func_1\n\n" +
		"## Section 3 of 4\n\ndoc for func_2\n\n" +
		"## Section 4 of 4\n\ndoc for func_3\n\n"
	assert.Equal(t, expected, r.Documentation)

	prompts := gen.Prompts()
	assert.Contains(t, prompts[0], "Chunk 1 of 4")
	assert.Contains(t, prompts[3], "Chunk 4 of 4")
}

func TestProcessFile_ChunkedFailureIsCaptured(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Chunk 2 of") {
			return "", fmt.Errorf("%w: rate limited", core.ErrTransientExternal)
		}
		return "ok", nil
	}
	o := newOrchestrator(t, gen,
		WithThresholds(budget.Thresholds{Chunked: 50, Summarized: 1000, StructureOnly: 10000}),
		WithSubChunkTokens(50),
	)

	file := core.SourceFile{Path: "funcs.py", Content: pythonFunctions(3)}
	r := o.ProcessFile(context.Background(), file)
	assert.Equal(t, StatusError, r.Status)
	assert.ErrorIs(t, r.Err, core.ErrTransientExternal)
	assert.Contains(t, r.Err.Error(), "chunk 2 of 3")

	_, cached := o.Cache().Get(file.Content)
	assert.False(t, cached, "failures are not cached")
}

func TestGroup(t *testing.T) {
	o := newOrchestrator(t, mock.NewMockGenerator(), WithSubChunkTokens(10))

	chunks := []core.StructuralChunk{
		{Kind: core.ChunkKindImport, Content: "import os"},
		{Kind: core.ChunkKindFunction, Content: "def a(): pass"},
		{Kind: core.ChunkKindFunction, Content: strings.Repeat("b", 24)},
		{Kind: core.ChunkKindRaw, Content: "abcdefgh"},
		{Kind: core.ChunkKindRaw, Content: "ghij", Overlap: 2},
	}
	groups := o.group(chunks)
	require.Len(t, groups, 2)
	assert.Equal(t, "import os\n\ndef a(): pass", groups[0])
	assert.Equal(t, strings.Repeat("b", 24)+"\n\nabcdefghij", groups[1])
}

func TestProcessFile_SummarizedPath(t *testing.T) {
	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	gen := mock.NewMockGenerator()
	o := newOrchestrator(t, gen,
		WithThresholds(budget.Thresholds{Chunked: 10, Summarized: 20, StructureOnly: 100000}),
	)

	r := o.ProcessFile(context.Background(), core.SourceFile{Path: "log.txt", Content: strings.Join(lines, "\n")})
	require.True(t, r.OK())
	assert.Equal(t, core.StrategySummarized, r.Strategy)
	require.Equal(t, 1, gen.CallCount())

	prompt := gen.Prompts()[0]
	assert.Contains(t, prompt, "... (middle section omitted) ...")
	assert.Contains(t, prompt, "line 19\n")
	assert.Contains(t, prompt, "line 32\n")
	assert.Contains(t, prompt, "line 39")
	assert.NotContains(t, prompt, "line 25")
}

func TestProcessFile_SummarizedExcerptIsTruncated(t *testing.T) {
	gen := mock.NewMockGenerator()
	o := newOrchestrator(t, gen,
		WithThresholds(budget.Thresholds{Chunked: 10, Summarized: 20, StructureOnly: 100000}),
		WithExcerptTokens(5),
	)

	content := strings.Repeat("abcdefghij\n", 30)
	r := o.ProcessFile(context.Background(), core.SourceFile{Path: "big.txt", Content: content})
	require.True(t, r.OK())
	prompt := gen.Prompts()[0]
	assert.Contains(t, prompt, "```\nabcdefghij\nabcdefghi\n```")
	assert.NotContains(t, prompt, "omitted")
}

func TestExcerpt(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("l%d", i))
	}
	got := excerpt(strings.Join(lines, "\n"))
	assert.Equal(t, "l0\nl1\nl2\nl3\nl4\n"+omittedMarker+"\nl8\nl9", got)

	assert.Equal(t, omittedMarker+"\nonly", excerpt("only"))
}

func TestProcessFile_StructureOnly(t *testing.T) {
	thresholds := budget.Thresholds{Chunked: 1, Summarized: 2, StructureOnly: 3}

	t.Run("outline is documented", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		o := newOrchestrator(t, gen, WithThresholds(thresholds))

		content := "import os\n\nclass Store:\n    def get(self):\n        pass\n\ndef main():\n    pass\n"
		r := o.ProcessFile(context.Background(), core.SourceFile{Path: "store.py", Content: content})
		require.True(t, r.OK())
		assert.Equal(t, core.StrategyStructureOnly, r.Strategy)
		require.Equal(t, 1, gen.CallCount())
		prompt := gen.Prompts()[0]
		assert.Contains(t, prompt, "# store.py Structure")
		assert.Contains(t, prompt, "**Class**: class Store\n")
		assert.NotContains(t, prompt, "        pass")
	})

	t.Run("outline is bounded by the excerpt budget", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		o := newOrchestrator(t, gen, WithThresholds(thresholds), WithExcerptTokens(50))

		var b strings.Builder
		for i := 0; i < 2000; i++ {
			fmt.Fprintf(&b, "def f%d():\n    pass\n\n", i)
		}
		r := o.ProcessFile(context.Background(), core.SourceFile{Path: "huge.py", Content: b.String()})
		require.True(t, r.OK())
		require.Equal(t, 1, gen.CallCount())

		prompt := gen.Prompts()[0]
		assert.Contains(t, prompt, "# huge.py Structure")
		assert.Contains(t, prompt, "def f0()")
		assert.NotContains(t, prompt, "def f1999()")

		outline, ok := chunking.Outline("huge.py", b.String())
		require.True(t, ok)
		assert.Less(t, len(prompt), len(outline))
	})

	t.Run("statistics without generation", func(t *testing.T) {
		gen := mock.NewMockGenerator()
		o := newOrchestrator(t, gen, WithThresholds(thresholds))

		content := "a,b\n1,2\n3,4"
		r := o.ProcessFile(context.Background(), core.SourceFile{Path: "data.csv", Content: content})
		require.True(t, r.OK())
		assert.Zero(t, gen.CallCount())
		assert.Equal(t, "File: data.csv\nTotal lines: 3\nFile size: 11 characters\nContent too large for detailed analysis.\n", r.Documentation)
	})
}

func TestExecute_UnknownStrategy(t *testing.T) {
	o := newOrchestrator(t, mock.NewMockGenerator())
	_, err := o.Execute(context.Background(), core.Strategy("fancy"), core.SourceFile{Path: "a.py", Content: "x"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.ErrorIs(t, err, core.ErrInvalidStrategy)
}

func TestProcessFile_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		if calls.Add(1) < 3 {
			return "", core.ErrTransientExternal
		}
		return "documented", nil
	}
	o := newOrchestrator(t, gen)

	r := o.ProcessFile(context.Background(), core.SourceFile{Path: "a.py", Content: "x = 1"})
	require.True(t, r.OK())
	assert.Equal(t, "documented", r.Documentation)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessFile_ExhaustedRetriesSurface(t *testing.T) {
	failure := fmt.Errorf("%w: upstream 503", core.ErrTransientExternal)
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", failure
	}
	o := newOrchestrator(t, gen)

	r := o.ProcessFile(context.Background(), core.SourceFile{Path: "a.py", Content: "x = 1"})
	assert.Equal(t, StatusError, r.Status)
	assert.Same(t, failure, r.Err)
	assert.Equal(t, 3, gen.CallCount())
}

func TestProcessFiles_OrderAndIsolation(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "panic_here"):
			panic("generator exploded")
		case strings.Contains(prompt, "fail_here"):
			return "", errors.New("bad file")
		}
		return "ok", nil
	}
	pool, err := workers.New(3)
	require.NoError(t, err)
	o := newOrchestrator(t, gen, WithPool(pool), WithRetryPolicy(mustPolicy(t, 1)))

	var files []core.SourceFile
	for i := 0; i < 12; i++ {
		content := fmt.Sprintf("value_%d = %d", i, i)
		switch i {
		case 4:
			content = "panic_here = 1"
		case 7:
			content = "fail_here = 1"
		}
		files = append(files, core.SourceFile{Path: fmt.Sprintf("f%02d.py", i), Content: content})
	}

	results, err := o.ProcessFiles(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for i, r := range results {
		assert.Equal(t, files[i].Path, r.Path)
		switch i {
		case 4:
			assert.Equal(t, StatusError, r.Status)
			assert.ErrorIs(t, r.Err, ErrPanicked)
		case 7:
			assert.Equal(t, StatusError, r.Status)
		default:
			assert.True(t, r.OK(), "file %d: %v", i, r.Err)
		}
	}
}

func TestProcessFiles_Empty(t *testing.T) {
	o := newOrchestrator(t, mock.NewMockGenerator())
	results, err := o.ProcessFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSelectorRouting(t *testing.T) {
	o := newOrchestrator(t, mock.NewMockGenerator())
	assert.Equal(t, core.StrategyStructureOnly, o.Selector().Select(150000))
	assert.Equal(t, core.StrategyFull, o.Selector().Select(500))

	_, strategy := o.Selector().Classify(strings.Repeat("a", 150000*4))
	assert.Equal(t, core.StrategyStructureOnly, strategy)
}

func mustPolicy(t *testing.T, attempts int) *retry.Policy {
	t.Helper()
	p, err := retry.New(retry.WithMaxAttempts(attempts), retry.WithBaseDelay(time.Millisecond))
	require.NoError(t, err)
	return p
}

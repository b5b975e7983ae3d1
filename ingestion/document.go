package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/generation"
	"github.com/poiesic/quire/workers"
)

const (
	outputStampLayout   = "20060102_150405"
	documentationSuffix = "_documentation.md"
)

// BatchReport summarizes a Document run.
type BatchReport struct {
	// OutputDir is empty when no output directory is configured.
	OutputDir  string
	Results    []generation.Result
	Files      []string
	Successful int
	Failed     int
	Skipped    int
}

// Document generates documentation for every non-empty file and, when an
// output directory is configured, writes one markdown file per success plus
// a README.md index into a new docs_<timestamp> directory.
func (p *Pipeline) Document(ctx context.Context, files []core.SourceFile) (*BatchReport, error) {
	processable := nonEmpty(files)
	if len(processable) == 0 {
		return nil, ErrNoProcessableFiles
	}

	tracker := p.tracker("Documenting", len(processable))
	results, err := workers.Run(ctx, p.pool, processable, func(ctx context.Context, file core.SourceFile) generation.Result {
		r := p.orchestrator.ProcessFile(ctx, file)
		if tracker != nil {
			tracker.Done(r.OK())
		}
		return r
	})
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		Results: results,
		Skipped: len(files) - len(processable),
	}
	for i := range results {
		if results[i].Status == "" {
			results[i] = generation.Result{
				Path:      processable[i].Path,
				Extension: processable[i].Ext(),
				Status:    generation.StatusError,
				Err:       generation.ErrPanicked,
			}
		}
		if results[i].OK() {
			report.Successful++
		} else {
			report.Failed++
		}
	}

	if p.outputDir == "" {
		return report, nil
	}
	started := p.now()
	if err := p.writeTree(report, started); err != nil {
		return report, err
	}
	p.logger.Info("documentation written", "dir", report.OutputDir, "files", len(report.Files), "failed", report.Failed)
	return report, nil
}

func (p *Pipeline) writeTree(report *BatchReport, started time.Time) error {
	dir := filepath.Join(p.outputDir, "docs_"+started.Format(outputStampLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	report.OutputDir = dir

	names := make([]string, len(report.Results))
	used := make(map[string]bool)
	for i, r := range report.Results {
		if !r.OK() {
			continue
		}
		name := uniqueName(DocumentationFileName(r.Path), used)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(r.Documentation), 0644); err != nil {
			return fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		names[i] = name
		report.Files = append(report.Files, name)
	}

	index := renderIndex(report, names, started)
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte(index), 0644); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// DocumentationFileName flattens path into a single markdown file name.
func DocumentationFileName(path string) string {
	flat := strings.Trim(filepath.ToSlash(path), "/")
	flat = strings.ReplaceAll(flat, "/", "_")
	flat = strings.ReplaceAll(flat, "..", "_")
	return flat + documentationSuffix
}

// uniqueName suffixes name with -2, -3... when an earlier file in the
// same tree already took it.
func uniqueName(name string, used map[string]bool) string {
	base := strings.TrimSuffix(name, documentationSuffix)
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = base + "-" + strconv.Itoa(n) + documentationSuffix
	}
	used[candidate] = true
	return candidate
}

func renderIndex(report *BatchReport, names []string, started time.Time) string {
	var b strings.Builder
	b.WriteString("# Generated Documentation\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "## Files Processed: %d\n", len(report.Results)+report.Skipped)
	fmt.Fprintf(&b, "- Successful: %d\n", report.Successful)
	fmt.Fprintf(&b, "- Failed: %d\n", report.Failed)
	fmt.Fprintf(&b, "- Skipped: %d\n\n", report.Skipped)

	b.WriteString("## Generated Documentation Files\n\n")
	n := 0
	for i, r := range report.Results {
		if names[i] == "" {
			continue
		}
		n++
		strategy := string(r.Strategy)
		if r.Cached {
			strategy = "cached"
		}
		fmt.Fprintf(&b, "%d. **%s** - [%s](%s)\n", n, r.Path, names[i], names[i])
		fmt.Fprintf(&b, "   - Type: %s\n", r.Extension)
		fmt.Fprintf(&b, "   - Strategy: %s\n\n", strategy)
	}

	if report.Failed > 0 {
		b.WriteString("## Failures\n\n")
		for _, r := range report.Results {
			if !r.OK() {
				fmt.Fprintf(&b, "- **%s**: %v\n", r.Path, r.Err)
			}
		}
	}
	return b.String()
}

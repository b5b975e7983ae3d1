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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/quire/chunking"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/generation"
	"github.com/poiesic/quire/storage"
	"github.com/poiesic/quire/summary"
	"github.com/poiesic/quire/workers"
)

// Pipeline turns batches of source files into versions and documentation
// trees.
type Pipeline struct {
	versions     storage.VersionRepository
	orchestrator *generation.Orchestrator
	chunker      *chunking.Chunker
	summaries    *summary.Generator
	indexer      Indexer
	pool         *workers.Pool
	outputDir    string
	progress     io.Writer
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunker sets the chunker used for index documents.
func WithChunker(chunker *chunking.Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			return fmt.Errorf("%w: chunker cannot be nil", core.ErrValidation)
		}
		p.chunker = chunker
		return nil
	}
}

// WithSummaries enables tier-1 summary documents for structured files.
func WithSummaries(g *summary.Generator) Option {
	return func(p *Pipeline) error {
		p.summaries = g
		return nil
	}
}

// WithIndexer sets the index collaborator. Default is JSONLIndexer.
func WithIndexer(indexer Indexer) Option {
	return func(p *Pipeline) error {
		if indexer == nil {
			return fmt.Errorf("%w: indexer cannot be nil", core.ErrValidation)
		}
		p.indexer = indexer
		return nil
	}
}

// WithPool sets the worker pool for per-file work.
func WithPool(pool *workers.Pool) Option {
	return func(p *Pipeline) error {
		if pool == nil {
			return fmt.Errorf("%w: pool cannot be nil", core.ErrValidation)
		}
		p.pool = pool
		return nil
	}
}

// WithOutputDir sets where Document writes its docs_<timestamp> trees.
// Without it Document writes nothing to disk.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) error {
		p.outputDir = dir
		return nil
	}
}

// WithProgress enables progress lines on w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithClock overrides the clock used for output directory names.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", core.ErrValidation)
		}
		p.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new Pipeline.
func NewPipeline(versions storage.VersionRepository, orchestrator *generation.Orchestrator, opts ...Option) (*Pipeline, error) {
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}

	p := &Pipeline{
		versions:     versions,
		orchestrator: orchestrator,
		indexer:      JSONLIndexer{},
		now:          time.Now,
		logger:       slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	var err error
	if p.chunker == nil {
		if p.chunker, err = chunking.New(); err != nil {
			return nil, err
		}
	}
	if p.pool == nil {
		if p.pool, err = workers.New(workers.DefaultSize); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// VersionParams are the caller-supplied fields of a new version.
type VersionParams struct {
	Name        string
	Description string
	ArchiveName string
	Tags        []string
}

// IngestResult describes a created version.
type IngestResult struct {
	Version   *core.VersionRecord
	Documents int
	Summaries int
}

// fileDocs is the per-file output of ingestion.
type fileDocs struct {
	docs      []core.IndexDocument
	chunks    int
	summaries int
}

// IngestVersion chunks files into index documents, creates a version for
// them and hands the documents to the indexer. If indexing fails the
// version is deleted again.
func (p *Pipeline) IngestVersion(ctx context.Context, files []core.SourceFile, params VersionParams) (*IngestResult, error) {
	processable := nonEmpty(files)
	if len(processable) == 0 {
		return nil, ErrNoProcessableFiles
	}

	tracker := p.tracker("Ingesting", len(processable))
	perFile, err := workers.Run(ctx, p.pool, processable, func(ctx context.Context, file core.SourceFile) fileDocs {
		out := p.documentsFor(ctx, file)
		if tracker != nil {
			tracker.Done(true)
		}
		return out
	})
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return nil, err
	}

	var (
		docs      []core.IndexDocument
		chunks    int
		summaries int
		fileCount int
		fileTypes []string
	)
	for i, fd := range perFile {
		if fd.chunks == 0 {
			continue
		}
		docs = append(docs, fd.docs...)
		chunks += fd.chunks
		summaries += fd.summaries
		fileCount++
		if ext := processable[i].Ext(); !slices.Contains(fileTypes, ext) {
			fileTypes = append(fileTypes, ext)
		}
	}
	if fileCount == 0 {
		return nil, ErrNoProcessableFiles
	}
	slices.Sort(fileTypes)

	record, err := p.versions.Create(ctx, core.NewVersion{
		Name:        params.Name,
		Description: params.Description,
		ArchiveName: params.ArchiveName,
		FileCount:   fileCount,
		ChunkCount:  chunks,
		FileTypes:   fileTypes,
		Tags:        params.Tags,
	})
	if err != nil {
		return nil, err
	}

	if err := p.indexer.IndexDocuments(ctx, record.StoragePath, docs); err != nil {
		p.logger.Error("indexing failed, removing version", "id", record.ID, "err", err)
		indexErr := fmt.Errorf("%w: %w", ErrIndexingFailed, err)
		if delErr := p.versions.Delete(context.WithoutCancel(ctx), record.ID); delErr != nil {
			return nil, errors.Join(indexErr, delErr)
		}
		return nil, indexErr
	}

	p.logger.Info("ingested version", "id", record.ID, "files", fileCount, "chunks", chunks, "summaries", summaries)
	return &IngestResult{Version: record, Documents: len(docs), Summaries: summaries}, nil
}

// documentsFor builds the tier-1 summary document (structured files only,
// when summaries are enabled) followed by one tier-2 document per chunk.
func (p *Pipeline) documentsFor(ctx context.Context, file core.SourceFile) fileDocs {
	ext := file.Ext()
	chunks := p.chunker.Chunk(ctx, file.Content, ext)

	base := core.DocumentMetadata{
		Source:        file.Path,
		FileExtension: ext,
		FileHash:      core.HashContent(file.Content),
		FileSize:      len(file.Content),
		FileModified:  file.ModifiedAt,
	}

	var out fileDocs
	if p.summaries != nil && chunking.IsStructured(ext) && len(chunks) > 0 {
		meta := base
		meta.ChunkType = "summary"
		meta.ChunkName = filepath.Base(file.Path)
		meta.Tier = core.TierSummary
		text := p.summaries.Summarize(ctx, file.Path, file.Content, chunks)
		out.docs = append(out.docs, core.IndexDocument{Content: text, Metadata: meta})
		out.summaries++
	}
	for i, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		meta := base
		meta.ChunkIndex = i
		meta.ChunkType = string(c.Kind)
		meta.ChunkName = c.Name
		meta.Tier = core.TierChunk
		out.docs = append(out.docs, core.IndexDocument{Content: c.Content, Metadata: meta})
		out.chunks++
	}
	return out
}

func (p *Pipeline) tracker(label string, total int) *ProgressTracker {
	if p.progress == nil {
		return nil
	}
	t := NewProgressTracker(p.progress, label, total, 1)
	t.Start()
	return t
}

func nonEmpty(files []core.SourceFile) []core.SourceFile {
	out := make([]core.SourceFile, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Content) != "" {
			out = append(out, f)
		}
	}
	return out
}

package quire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/quire/ai"
	"github.com/poiesic/quire/ai/mock"
	"github.com/poiesic/quire/config"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.MaxRetries = 1
	cfg.RetryBaseDelay = 0
	return cfg
}

func TestOpen(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		cfg := testConfig(t)
		e, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, e)
		defer e.Close()

		assert.NotNil(t, e.Versions())
		assert.NotNil(t, e.Orchestrator())
		assert.NotNil(t, e.Summarizer())
		assert.Same(t, cfg, e.Config())
		assert.DirExists(t, cfg.MetaDir())
		assert.DirExists(t, cfg.VersionsDir())
	})

	t.Run("default provider from config", func(t *testing.T) {
		e, err := Open(testConfig(t))
		require.NoError(t, err)
		assert.NoError(t, e.Close())
	})

	t.Run("summaries disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EnableSmartSummaries = false
		e, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer e.Close()
		assert.Nil(t, e.Summarizer())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.MaxWorkers = 0
		e, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		assert.ErrorIs(t, err, core.ErrValidation)
		assert.Nil(t, e)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		cfg := testConfig(t)
		require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
		require.NoError(t, os.WriteFile(cfg.MetaDir(), []byte("test"), 0o644))

		e, err := Open(cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, e)
	})
}

type countingProvider struct {
	ai.AIProvider
	closes int
}

func (p *countingProvider) Close() error {
	p.closes++
	return nil
}

func TestEngine_CallerOwnsProvider(t *testing.T) {
	provider := &countingProvider{AIProvider: mock.NewMockProvider()}

	e, err := Open(testConfig(t), WithProvider(provider))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.Zero(t, provider.closes)

	cfg := testConfig(t)
	cfg.MaxWorkers = 0
	_, err = Open(cfg, WithProvider(provider))
	require.Error(t, err)
	assert.Zero(t, provider.closes)
}

func TestEngine_Pipeline(t *testing.T) {
	cfg := testConfig(t)
	e, err := Open(cfg, WithProvider(mock.NewMockProvider()), WithInMemoryMetadata())
	require.NoError(t, err)
	defer e.Close()

	p, err := e.NewPipeline()
	require.NoError(t, err)

	ctx := context.Background()
	files := []core.SourceFile{
		{Path: "app.py", Content: "import os\n\ndef main():\n    return os.getcwd()\n"},
		{Path: "README.md", Content: "# Title\n\nIntro.\n"},
	}

	t.Run("ingest creates a version", func(t *testing.T) {
		result, err := p.IngestVersion(ctx, files, ingestion.VersionParams{Name: "engine"})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Version.FileCount)
		assert.Equal(t, 1, result.Summaries)

		latest, err := e.Versions().Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, result.Version.ID, latest.ID)

		count, err := e.CountSummaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("document writes a tree", func(t *testing.T) {
		report, err := p.Document(ctx, files)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Successful)
		assert.DirExists(t, report.OutputDir)
		assert.Equal(t, cfg.DocumentationDir(), filepath.Dir(report.OutputDir))
	})

	t.Run("clear summaries", func(t *testing.T) {
		require.NoError(t, e.ClearSummaries(ctx))
		count, err := e.CountSummaries(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Zero(t, e.Orchestrator().Cache().Len())
	})
}

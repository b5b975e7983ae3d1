package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	return c.t
}

func (c *stepClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func setupVersionRepo(t *testing.T) (*VersionRepository, *stepClock, string) {
	t.Helper()
	backend, err := NewMemoryBackend()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	clock := &stepClock{t: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
	dir := filepath.Join(t.TempDir(), "versions")
	repo, err := NewVersionRepository(backend, dir, WithClock(clock.now))
	require.NoError(t, err)
	return repo, clock, repo.VersionsDir()
}

func TestNewVersionRepository_Validation(t *testing.T) {
	backend, err := NewMemoryBackend()
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewVersionRepository(nil, t.TempDir())
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewVersionRepository(backend, "")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewVersionRepository(backend, t.TempDir(), WithClock(nil))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestVersionRepository_Create(t *testing.T) {
	repo, _, dir := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{
		Name:        "v1",
		Description: "first upload",
		ArchiveName: "src.zip",
		FileCount:   3,
		ChunkCount:  7,
		FileTypes:   []string{".py", ".md", ".txt"},
		Tags:        []string{"release"},
	})
	require.NoError(t, err)

	assert.Equal(t, "v1-20250314-092653", record.ID)
	assert.Equal(t, filepath.Join(dir, record.ID), record.StoragePath)
	assert.Equal(t, core.VersionStatusActive, record.Status)
	assert.Equal(t, 3, record.FileCount)
	assert.ElementsMatch(t, []string{".py", ".md", ".txt"}, record.FileTypes)

	info, err := os.Stat(record.StoragePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Name, got.Name)
	assert.Equal(t, record.Description, got.Description)
	assert.True(t, record.UploadedAt.Equal(got.UploadedAt))
}

func TestVersionRepository_CreateUnnamed(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)

	record, err := repo.Create(context.Background(), core.NewVersion{Name: "  !!  "})
	require.NoError(t, err)
	assert.Equal(t, "v20250314-092653", record.ID)
}

func TestVersionRepository_SanitizesName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"release 1.0", "release1.0"},
		{"../../etc", "etc"},
		{"feat/new_parser", "featnew_parser"},
		{"", ""},
		{"ünïcode-1", "ncode-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.name))
		})
	}
}

func TestVersionRepository_CollisionSuffix(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, core.NewVersion{Name: "same"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, core.NewVersion{Name: "same"})
	require.NoError(t, err)
	third, err := repo.Create(ctx, core.NewVersion{Name: "same"})
	require.NoError(t, err)

	assert.Equal(t, "same-20250314-092653", first.ID)
	assert.Equal(t, "same-20250314-092653-2", second.ID)
	assert.Equal(t, "same-20250314-092653-3", third.ID)
	assert.NotEqual(t, first.StoragePath, second.StoragePath)
}

func TestVersionRepository_CollisionWithExistingDirectory(t *testing.T) {
	repo, _, dir := setupVersionRepo(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x-20250314-092653"), 0755))

	record, err := repo.Create(context.Background(), core.NewVersion{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x-20250314-092653-2", record.ID)
}

func TestVersionRepository_DeletedIDNotReused(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, core.NewVersion{Name: "gone"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID))

	second, err := repo.Create(ctx, core.NewVersion{Name: "gone"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.StoragePath, second.StoragePath)
}

func TestVersionRepository_ListOrderAndFilter(t *testing.T) {
	repo, clock, _ := setupVersionRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, core.NewVersion{Name: "a"})
	require.NoError(t, err)
	clock.advance(time.Minute)
	b, err := repo.Create(ctx, core.NewVersion{Name: "b"})
	require.NoError(t, err)
	clock.advance(time.Minute)
	c, err := repo.Create(ctx, core.NewVersion{Name: "c"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, b.ID, core.VersionStatusArchived))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	active, err := repo.List(ctx, core.VersionStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, c.ID, active[0].ID)
	assert.Equal(t, a.ID, active[1].ID)

	archived, err := repo.List(ctx, core.VersionStatusArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, b.ID, archived[0].ID)

	_, err = repo.List(ctx, core.VersionStatus("bogus"))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestVersionRepository_ListEmpty(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)

	records, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVersionRepository_UpdateStatus(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{Name: "s"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, record.ID, core.VersionStatusArchived))
	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionStatusArchived, got.Status)

	require.NoError(t, repo.UpdateStatus(ctx, record.ID, core.VersionStatusActive))
	got, err = repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, core.VersionStatusActive, got.Status)

	err = repo.UpdateStatus(ctx, record.ID, core.VersionStatus("frozen"))
	assert.ErrorIs(t, err, core.ErrValidation)

	err = repo.UpdateStatus(ctx, "missing", core.VersionStatusArchived)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVersionRepository_Delete(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{Name: "del"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(record.StoragePath, "index.bin"), []byte("data"), 0644))

	require.NoError(t, repo.Delete(ctx, record.ID))

	_, err = os.Stat(record.StoragePath)
	assert.True(t, os.IsNotExist(err))

	_, err = repo.Get(ctx, record.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	records, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVersionRepository_DeleteNotFound(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)

	err := repo.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVersionRepository_DeleteMissingDirectory(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{Name: "orphan"})
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(record.StoragePath))

	require.NoError(t, repo.Delete(ctx, record.ID))
	_, err = repo.Get(ctx, record.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestVersionRepository_Search(t *testing.T) {
	repo, clock, _ := setupVersionRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, core.NewVersion{Name: "Backend", Description: "API server"})
	require.NoError(t, err)
	clock.advance(time.Second)
	_, err = repo.Create(ctx, core.NewVersion{Name: "frontend", Tags: []string{"UI", "react"}})
	require.NoError(t, err)
	clock.advance(time.Second)
	_, err = repo.Create(ctx, core.NewVersion{Name: "docs", Description: "user guide"})
	require.NoError(t, err)

	tests := []struct {
		query    string
		expected []string
	}{
		{"backend", []string{"Backend"}},
		{"api", []string{"Backend"}},
		{"REACT", []string{"frontend"}},
		{"end", []string{"frontend", "Backend"}},
		{"missing", nil},
		{"", []string{"docs", "frontend", "Backend"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			records, err := repo.Search(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, r := range records {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestVersionRepository_Latest(t *testing.T) {
	repo, clock, _ := setupVersionRepo(t)
	ctx := context.Background()

	_, err := repo.Latest(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	older, err := repo.Create(ctx, core.NewVersion{Name: "older"})
	require.NoError(t, err)
	clock.advance(time.Hour)
	newer, err := repo.Create(ctx, core.NewVersion{Name: "newer"})
	require.NoError(t, err)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	require.NoError(t, repo.UpdateStatus(ctx, newer.ID, core.VersionStatusArchived))
	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.ID, latest.ID)
}

func TestVersionRepository_PersistsAcrossReopen(t *testing.T) {
	root := t.TempDir()
	metaDir := filepath.Join(root, "meta")
	versionsDir := filepath.Join(root, "versions")

	backend, err := OpenBackend(metaDir, false)
	require.NoError(t, err)
	repo, err := NewVersionRepository(backend, versionsDir)
	require.NoError(t, err)
	record, err := repo.Create(context.Background(), core.NewVersion{Name: "durable"})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(metaDir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewVersionRepository(backend, versionsDir)
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Name)
	assert.Equal(t, record.StoragePath, got.StoragePath)
}

func TestVersionRepository_Contains(t *testing.T) {
	repo, _, dir := setupVersionRepo(t)

	assert.True(t, repo.contains(filepath.Join(dir, "a")))
	assert.False(t, repo.contains(dir))
	assert.False(t, repo.contains(filepath.Dir(dir)))
	assert.False(t, repo.contains(filepath.Join(dir, "..", "other")))
}

func failingUpdate(err error) func(fn func(tx *badger.Txn) error) error {
	return func(fn func(tx *badger.Txn) error) error {
		return err
	}
}

func TestVersionRepository_CreateMetadataFailure(t *testing.T) {
	repo, _, dir := setupVersionRepo(t)
	ctx := context.Background()
	repo.update = failingUpdate(errors.New("disk full"))

	record, err := repo.Create(ctx, core.NewVersion{Name: "v1"})
	require.Error(t, err)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, core.ErrPersistence)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVersionRepository_CreateCleanupFailure(t *testing.T) {
	repo, _, dir := setupVersionRepo(t)
	writeErr := errors.New("disk full")
	rmErr := errors.New("device busy")
	repo.update = failingUpdate(writeErr)
	repo.removeAll = func(string) error { return rmErr }

	_, err := repo.Create(context.Background(), core.NewVersion{Name: "v1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)
	assert.ErrorIs(t, err, rmErr)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.Contains(t, err.Error(), filepath.Join(dir, "v1-20250314-092653"))
}

func TestVersionRepository_DeletePartial(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{Name: "v1"})
	require.NoError(t, err)

	repo.update = failingUpdate(errors.New("transaction conflict"))
	err = repo.Delete(ctx, record.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrPartialDelete)
	assert.ErrorIs(t, err, core.ErrPersistence)

	_, statErr := os.Stat(record.StoragePath)
	assert.True(t, os.IsNotExist(statErr))

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestVersionRepository_DeleteDirectoryFailure(t *testing.T) {
	repo, _, _ := setupVersionRepo(t)
	ctx := context.Background()

	record, err := repo.Create(ctx, core.NewVersion{Name: "v1"})
	require.NoError(t, err)

	repo.removeAll = func(string) error { return errors.New("permission denied") }
	err = repo.Delete(ctx, record.ID)
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.NotErrorIs(t, err, storage.ErrPartialDelete)

	_, err = repo.Get(ctx, record.ID)
	assert.NoError(t, err)
}

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


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/storage"
)

const idTimestampLayout = "20060102-150405"

// VersionRepository implements storage.VersionRepository for BadgerDB.
// Records live under a single key prefix; each record owns a directory
// below versionsDir.
type VersionRepository struct {
	backend     *Backend
	versionsDir string
	now         func() time.Time
	logger      *slog.Logger

	// Write transactions and directory removal; tests swap these to inject failures.
	update    func(fn func(tx *badger.Txn) error) error
	removeAll func(path string) error

	// mu serializes writers.
	mu sync.Mutex
}

var _ storage.VersionRepository = (*VersionRepository)(nil)

// VersionOption configures a VersionRepository.
type VersionOption func(*VersionRepository) error

// WithClock overrides the clock used for IDs and upload timestamps.
func WithClock(now func() time.Time) VersionOption {
	return func(r *VersionRepository) error {
		if now == nil {
			return fmt.Errorf("%w: clock cannot be nil", core.ErrValidation)
		}
		r.now = now
		return nil
	}
}

// WithVersionLogger sets the repository logger.
func WithVersionLogger(logger *slog.Logger) VersionOption {
	return func(r *VersionRepository) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", core.ErrValidation)
		}
		r.logger = logger
		return nil
	}
}

// NewVersionRepository creates a VersionRepository storing directories
// under versionsDir, creating it when missing.
func NewVersionRepository(backend *Backend, versionsDir string, opts ...VersionOption) (*VersionRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend cannot be nil", core.ErrValidation)
	}
	if versionsDir == "" {
		return nil, fmt.Errorf("%w: versions directory cannot be empty", core.ErrValidation)
	}
	abs, err := filepath.Abs(versionsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	if err := ensureDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	r := &VersionRepository{
		backend:     backend,
		versionsDir: abs,
		now:         time.Now,
		logger:      slog.Default().With("component", "version-repository"),
	}
	r.update = func(fn func(tx *badger.Txn) error) error {
		return backend.WithTx(fn, true)
	}
	r.removeAll = os.RemoveAll
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Close is a no-op; the backend is owned by the caller.
func (r *VersionRepository) Close() error {
	return nil
}

// VersionsDir returns the absolute directory holding version storage.
func (r *VersionRepository) VersionsDir() string {
	return r.versionsDir
}

// Create allocates an ID and directory, then persists an active record.
func (r *VersionRepository) Create(ctx context.Context, params core.NewVersion) (*core.VersionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	uploadedAt := r.now().UTC()
	id, dir, err := r.allocate(baseVersionID(params.Name, uploadedAt))
	if err != nil {
		return nil, err
	}

	record := &core.VersionRecord{
		ID:          id,
		Name:        params.Name,
		Description: params.Description,
		ArchiveName: params.ArchiveName,
		Tags:        slices.Clone(params.Tags),
		UploadedAt:  uploadedAt,
		FileCount:   params.FileCount,
		ChunkCount:  params.ChunkCount,
		FileTypes:   slices.Clone(params.FileTypes),
		StoragePath: dir,
		Status:      core.VersionStatusActive,
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	if record.FileTypes == nil {
		record.FileTypes = []string{}
	}

	if err := r.writeRecord(record); err != nil {
		if rmErr := r.removeAll(dir); rmErr != nil {
			r.logger.Error("failed to remove directory after metadata write failure", "dir", dir, "err", rmErr)
			return nil, errors.Join(err, fmt.Errorf("%w: orphaned directory %s: %w", core.ErrPersistence, dir, rmErr))
		}
		return nil, err
	}

	r.logger.Info("created version", "id", id, "files", record.FileCount, "chunks", record.ChunkCount)
	return record, nil
}

// allocate finds the first free ID for base and creates its directory.
// Must be called with mu held.
func (r *VersionRepository) allocate(base string) (string, string, error) {
	for n := 1; ; n++ {
		id := base
		if n > 1 {
			id = base + "-" + strconv.Itoa(n)
		}
		taken, err := r.idTaken(id)
		if err != nil {
			return "", "", err
		}
		if taken {
			continue
		}
		dir := filepath.Join(r.versionsDir, id)
		if err := os.Mkdir(dir, 0755); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", "", fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		return id, dir, nil
	}
}

func (r *VersionRepository) idTaken(id string) (bool, error) {
	taken := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range [][]byte{makeVersionKey(id), makeVersionTombstoneKey(id)} {
			_, err := tx.Get(key)
			if err == nil {
				taken = true
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return false, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return taken, nil
}

func (r *VersionRepository) writeRecord(record *core.VersionRecord) error {
	value, err := storage.MarshalVersionRecord(record)
	if err != nil {
		return err
	}
	err = r.update(func(tx *badger.Txn) error {
		if err := tx.Set(makeVersionKey(record.ID), value); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// readRecord returns nil, nil when the record doesn't exist.
func readRecord(tx *badger.Txn, id string) (*core.VersionRecord, error) {
	item, err := tx.Get(makeVersionKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var record *core.VersionRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalVersionRecord(val)
		return unmarshalErr
	})
	return record, err
}

// Get retrieves a single version record by ID.
func (r *VersionRepository) Get(ctx context.Context, id string) (*core.VersionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var record *core.VersionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readRecord(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if record == nil {
		return nil, fmt.Errorf("version %q: %w", id, storage.ErrNotFound)
	}
	return record, nil
}

// List returns records with the given status, or every record when status
// is empty, newest first.
func (r *VersionRepository) List(ctx context.Context, status core.VersionStatus) ([]*core.VersionRecord, error) {
	if status != "" {
		if err := core.ValidateVersionStatus(status); err != nil {
			return nil, err
		}
	}
	return r.scan(ctx, func(record *core.VersionRecord) bool {
		return status == "" || record.Status == status
	})
}

// Search matches query against name, description and tags, ignoring case.
func (r *VersionRepository) Search(ctx context.Context, query string) ([]*core.VersionRecord, error) {
	needle := strings.ToLower(query)
	return r.scan(ctx, func(record *core.VersionRecord) bool {
		if strings.Contains(strings.ToLower(record.Name), needle) ||
			strings.Contains(strings.ToLower(record.Description), needle) {
			return true
		}
		for _, tag := range record.Tags {
			if strings.Contains(strings.ToLower(tag), needle) {
				return true
			}
		}
		return false
	})
}

// Latest returns the newest active record.
func (r *VersionRepository) Latest(ctx context.Context) (*core.VersionRecord, error) {
	records, err := r.List(ctx, core.VersionStatusActive)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("active version: %w", storage.ErrNotFound)
	}
	return records[0], nil
}

func (r *VersionRepository) scan(ctx context.Context, keep func(*core.VersionRecord) bool) ([]*core.VersionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := []*core.VersionRecord{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = versionScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VersionRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVersionRecord(val)
				return err
			}); err != nil {
				return err
			}
			if keep(record) {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, persistenceErr(err)
	}

	slices.SortStableFunc(results, func(a, b *core.VersionRecord) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return results, nil
}

// UpdateStatus changes a record's status.
func (r *VersionRepository) UpdateStatus(ctx context.Context, id string, status core.VersionStatus) error {
	if err := core.ValidateVersionStatus(status); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.update(func(tx *badger.Txn) error {
		record, err := readRecord(tx, id)
		if err != nil {
			return err
		}
		if record == nil {
			return fmt.Errorf("version %q: %w", id, storage.ErrNotFound)
		}
		record.Status = status
		value, err := storage.MarshalVersionRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(makeVersionKey(id), value); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return persistenceErr(err)
	}
	r.logger.Info("updated version status", "id", id, "status", status)
	return nil
}

// Delete removes the version directory, then the record. A tombstone keeps
// the ID from being allocated again.
func (r *VersionRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if record.StoragePath != "" {
		if !r.contains(record.StoragePath) {
			return fmt.Errorf("%w: storage path %q outside %q", core.ErrPersistence, record.StoragePath, r.versionsDir)
		}
		if err := r.removeAll(record.StoragePath); err != nil {
			return fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
	}

	err = r.update(func(tx *badger.Txn) error {
		if err := tx.Delete(makeVersionKey(id)); err != nil {
			return err
		}
		if err := tx.Set(makeVersionTombstoneKey(id), []byte(r.now().UTC().Format(time.RFC3339))); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		r.logger.Error("version directory removed but metadata remains", "id", id, "err", err)
		return fmt.Errorf("%w: %w", storage.ErrPartialDelete, err)
	}

	r.logger.Info("deleted version", "id", id)
	return nil
}

func (r *VersionRepository) contains(path string) bool {
	rel, err := filepath.Rel(r.versionsDir, path)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

// persistenceErr wraps backend failures, leaving domain errors untouched.
func persistenceErr(err error) error {
	if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrPersistence) || errors.Is(err, core.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrPersistence, err)
}

// baseVersionID builds the unsuffixed ID for name at t.
func baseVersionID(name string, t time.Time) string {
	stamp := t.Format(idTimestampLayout)
	clean := sanitizeName(name)
	if clean == "" {
		return "v" + stamp
	}
	return clean + "-" + stamp
}

// sanitizeName keeps ASCII letters, digits, '.', '-' and '_'.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, c := range strings.TrimSpace(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == '.' || c == '-' || c == '_':
			b.WriteRune(c)
		}
	}
	return strings.TrimLeft(b.String(), ".")
}

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

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quire/core"
	"github.com/poiesic/quire/storage"
)

// SummaryRepository implements storage.SummaryRepository for BadgerDB.
type SummaryRepository struct {
	backend *Backend
}

var _ storage.SummaryRepository = (*SummaryRepository)(nil)

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(backend *Backend) *SummaryRepository {
	return &SummaryRepository{
		backend: backend,
	}
}

// PutSummary persists a summary under its content hash.
func (r *SummaryRepository) PutSummary(ctx context.Context, hash string, entry *storage.SummaryEntry) error {
	if hash == "" || entry == nil {
		return fmt.Errorf("%w: summary hash and entry are required", core.ErrValidation)
	}
	value, err := storage.MarshalSummaryEntry(entry)
	if err != nil {
		return err
	}
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSummaryKey(hash), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// GetSummary retrieves the summary for a content hash.
// Returns nil, nil if none is stored.
func (r *SummaryRepository) GetSummary(ctx context.Context, hash string) (*storage.SummaryEntry, error) {
	var entry *storage.SummaryEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSummaryKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalSummaryEntry(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return entry, nil
}

// CountSummaries returns the number of stored summaries.
func (r *SummaryRepository) CountSummaries(ctx context.Context) (int, error) {
	count, err := r.backend.CountPrefix(summaryScanPrefix())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return count, nil
}

// ClearSummaries removes every stored summary.
func (r *SummaryRepository) ClearSummaries(ctx context.Context) error {
	if err := r.backend.DropPrefix(summaryScanPrefix()); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

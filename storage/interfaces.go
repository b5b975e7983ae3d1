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


package storage

import (
	"context"

	"github.com/poiesic/quire/core"
)

// VersionRepository manages version records and their storage directories.
// Implementations must be thread-safe; writes are serialized.
type VersionRepository interface {
	// Create allocates a unique version ID and storage directory and
	// persists an active record for them. Either both exist afterwards or
	// neither does.
	Create(ctx context.Context, params core.NewVersion) (*core.VersionRecord, error)

	// List returns records with the given status, or all records when
	// status is empty, newest first.
	List(ctx context.Context, status core.VersionStatus) ([]*core.VersionRecord, error)

	// Get retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (*core.VersionRecord, error)

	// UpdateStatus changes a record's status.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateStatus(ctx context.Context, id string, status core.VersionStatus) error

	// Delete removes the storage directory and then the record.
	// Returns ErrPartialDelete if only the directory could be removed.
	Delete(ctx context.Context, id string) error

	// Search returns records whose name, description or any tag contains
	// query, ignoring case, newest first.
	Search(ctx context.Context, query string) ([]*core.VersionRecord, error)

	// Latest returns the newest active record.
	// Returns ErrNotFound if there is none.
	Latest(ctx context.Context) (*core.VersionRecord, error)

	// Close releases resources held by the repository.
	Close() error
}

// SummaryRepository is the persistent cache of file summaries, keyed by
// content hash.
type SummaryRepository interface {
	// GetSummary returns the cached summary for hash.
	// Returns nil, nil if no summary is cached.
	GetSummary(ctx context.Context, hash string) (*SummaryEntry, error)

	// PutSummary stores a summary, replacing any previous one.
	PutSummary(ctx context.Context, hash string, entry *SummaryEntry) error

	// CountSummaries returns the number of cached summaries.
	CountSummaries(ctx context.Context) (int, error)

	// ClearSummaries removes every cached summary.
	ClearSummaries(ctx context.Context) error
}

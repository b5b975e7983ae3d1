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
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/quire/core"
)

// SummaryEntry is the persisted form of a cached file summary.
type SummaryEntry struct {
	Summary   string    `json:"summary"`
	Path      string    `json:"file_path"`
	CreatedAt time.Time `json:"timestamp"`
}

// MarshalVersionRecord serializes a VersionRecord to bytes.
func MarshalVersionRecord(record *core.VersionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalVersionRecord deserializes a VersionRecord from bytes.
func UnmarshalVersionRecord(data []byte) (*core.VersionRecord, error) {
	var record core.VersionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalSummaryEntry serializes a SummaryEntry to bytes.
func MarshalSummaryEntry(entry *SummaryEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSummaryEntry deserializes a SummaryEntry from bytes.
func UnmarshalSummaryEntry(data []byte) (*SummaryEntry, error) {
	var entry SummaryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

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


package core

import (
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// HashContent returns the hex-encoded BLAKE2b-256 digest of text.
// Identical content always yields the same key.
func HashContent(text string) string {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkKind tags a StructuralChunk with the construct it was cut from.
type ChunkKind string

const (
	// ChunkKindImport is a group of consecutive import/include statements.
	ChunkKindImport ChunkKind = "import"
	// ChunkKindFunction is a single function or method declaration.
	ChunkKindFunction ChunkKind = "function"
	// ChunkKindClass is a type or class declaration.
	ChunkKindClass ChunkKind = "class"
	// ChunkKindSection is a heading-delimited section of prose.
	ChunkKindSection ChunkKind = "section"
	// ChunkKindRaw is anything cut by a heuristic or the windowed splitter.
	ChunkKindRaw ChunkKind = "raw"
)

// StructuralChunk is a bounded unit of file content.
type StructuralChunk struct {
	Kind    ChunkKind
	Name    string // Declaration or heading name, if any
	Doc     string // Leading documentation comment, if any
	Content string
	Ordinal int // Position in the emitted sequence
	Overlap int // Leading runes repeated from the previous chunk
}

// Strategy is the processing path chosen for a file.
type Strategy string

const (
	StrategyFull          Strategy = "full"
	StrategyChunked       Strategy = "chunked"
	StrategySummarized    Strategy = "summarized"
	StrategyStructureOnly Strategy = "structure_only"
)

// Cost orders strategies by how much the input had to be reduced.
// Unknown strategies report -1.
func (s Strategy) Cost() int {
	switch s {
	case StrategyFull:
		return 0
	case StrategyChunked:
		return 1
	case StrategySummarized:
		return 2
	case StrategyStructureOnly:
		return 3
	}
	return -1
}

// VersionStatus is the lifecycle state of a VersionRecord.
type VersionStatus string

const (
	VersionStatusActive   VersionStatus = "active"
	VersionStatusArchived VersionStatus = "archived"
	VersionStatusDeleted  VersionStatus = "deleted"
)

// VersionRecord describes one isolated ingestion batch.
type VersionRecord struct {
	ID          string        `json:"version_id"`
	Name        string        `json:"version_name"`
	Description string        `json:"description"`
	ArchiveName string        `json:"archive_name"`
	Tags        []string      `json:"tags"`
	UploadedAt  time.Time     `json:"upload_timestamp"`
	FileCount   int           `json:"file_count"`
	ChunkCount  int           `json:"chunk_count"`
	FileTypes   []string      `json:"file_types"`
	StoragePath string        `json:"storage_path"`
	Status      VersionStatus `json:"status"`
}

// NewVersion holds the caller-supplied fields for creating a VersionRecord.
type NewVersion struct {
	Name        string
	Description string
	ArchiveName string
	FileCount   int
	ChunkCount  int
	FileTypes   []string
	Tags        []string
}

// SourceFile is one intake tuple.
type SourceFile struct {
	Path       string
	Content    string
	Extension  string    // Lower-cased, including the dot. Derived from Path when empty.
	ModifiedAt time.Time // Zero when unknown
}

// Ext returns the normalized extension of the file.
func (f SourceFile) Ext() string {
	if f.Extension != "" {
		return NormalizeExtension(f.Extension)
	}
	return NormalizeExtension(filepath.Ext(f.Path))
}

// NormalizeExtension lower-cases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Document tiers handed to the index collaborator.
const (
	TierSummary = 1
	TierChunk   = 2
)

// IndexDocument is a unit of text plus the metadata the index service
// filters and displays by.
type IndexDocument struct {
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata is attached to every IndexDocument.
type DocumentMetadata struct {
	Source        string    `json:"source"`
	ChunkIndex    int       `json:"chunk_index"`
	ChunkType     string    `json:"chunk_type"`
	ChunkName     string    `json:"chunk_name"`
	FileExtension string    `json:"file_extension"`
	FileHash      string    `json:"file_hash"`
	FileSize      int       `json:"file_size"`
	FileModified  time.Time `json:"file_modified"`
	Tier          int       `json:"tier"`
}

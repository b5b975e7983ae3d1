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
	"fmt"
	"strings"
)

// NewChunk builds a StructuralChunk after validating kind and content.
func NewChunk(kind ChunkKind, name, content string) (StructuralChunk, error) {
	c := StructuralChunk{Kind: kind, Name: name, Content: content}
	if err := ValidateChunk(c); err != nil {
		return StructuralChunk{}, err
	}
	return c, nil
}

// ValidateChunk validates a StructuralChunk according to domain rules.
//
// Validation rules:
//   - Kind must be one of the ChunkKind constants
//   - Content must not be empty
func ValidateChunk(c StructuralChunk) error {
	if err := ValidateChunkKind(c.Kind); err != nil {
		return err
	}
	if c.Content == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}
	return nil
}

// ValidateChunkKind validates that a ChunkKind has a valid value.
func ValidateChunkKind(kind ChunkKind) error {
	switch kind {
	case ChunkKindImport, ChunkKindFunction, ChunkKindClass, ChunkKindSection, ChunkKindRaw:
		return nil
	}
	return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidChunkKind, kind)
}

// ParseStrategy converts a strategy name into a Strategy.
// "structureOnly" is accepted as an alias of "structure_only".
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.TrimSpace(name)); s {
	case StrategyFull, StrategyChunked, StrategySummarized, StrategyStructureOnly:
		return s, nil
	case "structureOnly":
		return StrategyStructureOnly, nil
	}
	return "", fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidStrategy, name)
}

// ParseVersionStatus converts a status name into a VersionStatus.
func ParseVersionStatus(name string) (VersionStatus, error) {
	s := VersionStatus(strings.ToLower(strings.TrimSpace(name)))
	if err := ValidateVersionStatus(s); err != nil {
		return "", err
	}
	return s, nil
}

// ValidateVersionStatus validates that a VersionStatus has a valid value.
func ValidateVersionStatus(status VersionStatus) error {
	switch status {
	case VersionStatusActive, VersionStatusArchived, VersionStatusDeleted:
		return nil
	}
	return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidStatus, status)
}

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

import "errors"

// Error taxonomy. Package-level errors wrap one of these so callers can
// classify failures with errors.Is.
var (
	// ErrValidation indicates malformed input or an unknown strategy.
	ErrValidation = errors.New("validation failed")

	// ErrTransientExternal indicates a retryable failure from an external call.
	ErrTransientExternal = errors.New("external call failed")

	// ErrPersistence indicates a metadata read or write failure.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound indicates an unknown identifier.
	ErrNotFound = errors.New("not found")
)

// Domain validation errors
var (
	// ErrEmptyContent indicates a chunk was constructed with no content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidChunkKind indicates a ChunkKind outside the closed set.
	ErrInvalidChunkKind = errors.New("invalid chunk kind")

	// ErrInvalidStrategy indicates an unknown processing strategy.
	ErrInvalidStrategy = errors.New("invalid processing strategy")

	// ErrInvalidStatus indicates a version status outside the closed set.
	ErrInvalidStatus = errors.New("invalid version status")
)

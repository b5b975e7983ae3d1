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


// Package storage provides the storage abstraction layer for quire.
//
// This package defines repository interfaces that decouple persistence from
// the pipeline. storage/badger implements them on BadgerDB.
//
// # Architecture
//
//   - VersionRepository: version records plus one storage directory per version
//   - SummaryRepository: persistent summary cache keyed by content hash
//
// All version metadata lives in one store, so listing is a single scan
// rather than a walk over per-version files. The storage directory and the
// record of a version are created and removed together; a failure that
// leaves one without the other is reported, never ignored.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/meta", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	versions, err := badger.NewVersionRepository(backend, "/path/to/versions")
//
// Use in tests with in-memory storage:
//
//	versions, summaries, backend, err := badger.NewMemoryRepositories(t.TempDir())
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage

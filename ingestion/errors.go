package ingestion

import (
	"fmt"

	"github.com/poiesic/quire/core"
)

var (
	// ErrVersionRepositoryRequired is returned when a version repository is not provided.
	ErrVersionRepositoryRequired = fmt.Errorf("%w: version repository required", core.ErrValidation)

	// ErrOrchestratorRequired is returned when a generation orchestrator is not provided.
	ErrOrchestratorRequired = fmt.Errorf("%w: orchestrator required", core.ErrValidation)

	// ErrNoProcessableFiles is returned when a batch holds no non-empty files.
	ErrNoProcessableFiles = fmt.Errorf("%w: no processable files", core.ErrValidation)

	// ErrIndexingFailed wraps an indexer failure that caused a version to be rolled back.
	ErrIndexingFailed = fmt.Errorf("%w: indexing failed", core.ErrPersistence)
)

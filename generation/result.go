package generation

import (
	"time"

	"github.com/poiesic/quire/core"
)

// Status reports whether a file was documented.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the outcome of processing one file. Failures are carried in
// Err rather than returned.
type Result struct {
	Path          string
	Extension     string
	Status        Status
	Documentation string
	// Strategy is empty for cache hits.
	Strategy core.Strategy
	Tokens   int
	Cached   bool
	Duration time.Duration
	Err      error
}

// OK reports whether the result carries documentation.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

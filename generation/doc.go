// Package generation documents source files with a language model while
// keeping every request inside a token budget.
//
// The Orchestrator estimates each file's size and picks one of four
// strategies, trading fidelity for size:
//
//   - full: the whole file in one request.
//   - chunked: structural chunks grouped under a sub-budget, one request
//     per group, merged in order under "Section i of N" headings.
//   - summarized: the first half and last fifth of the lines, truncated
//     to a token ceiling, documented in one request.
//   - structure_only: a signature outline documented in one request, or
//     plain file statistics when the type has no outline rule.
//
// Every request goes through a retry.Policy. Successful artifacts are kept
// in a cache.ContentCache keyed by content hash, independent of strategy.
// ProcessFiles fans files out over a workers.Pool.
package generation

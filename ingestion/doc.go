// Package ingestion turns batches of source files into versions and
// documentation trees.
//
// IngestVersion chunks every non-empty file into index documents (tier 1:
// one summary per structured file, tier 2: one document per chunk), records
// a version for the batch and hands the documents to an Indexer under the
// version's storage directory. A failed hand-off deletes the version again.
//
// Document runs the generation orchestrator over a batch and writes
// docs_<timestamp>/ with one markdown file per documented source plus a
// README.md index.
//
// Per-file work runs on a workers.Pool; a ProgressTracker reports progress
// when a writer is configured.
package ingestion

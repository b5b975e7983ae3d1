package ingestion

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/quire/core"
)

// Indexer hands documents to the embedding and vector-index service for a
// version. storagePath is the version's private directory.
type Indexer interface {
	IndexDocuments(ctx context.Context, storagePath string, docs []core.IndexDocument) error
}

// IndexerFunc adapts a function to Indexer.
type IndexerFunc func(ctx context.Context, storagePath string, docs []core.IndexDocument) error

func (f IndexerFunc) IndexDocuments(ctx context.Context, storagePath string, docs []core.IndexDocument) error {
	return f(ctx, storagePath, docs)
}

// DocumentsFile is the file JSONLIndexer writes inside a version directory.
const DocumentsFile = "documents.jsonl"

// JSONLIndexer writes documents as JSON lines into the version directory,
// for an external indexing service to pick up.
type JSONLIndexer struct{}

var _ Indexer = JSONLIndexer{}

type jsonlRecord struct {
	Content  string                `json:"page_content"`
	Metadata core.DocumentMetadata `json:"metadata"`
}

// IndexDocuments implements Indexer.
func (JSONLIndexer) IndexDocuments(ctx context.Context, storagePath string, docs []core.IndexDocument) error {
	path := filepath.Join(storagePath, DocumentsFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		if err := enc.Encode(jsonlRecord{Content: doc.Content, Metadata: doc.Metadata}); err != nil {
			f.Close()
			return fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return nil
}

// ReadDocuments loads documents written by JSONLIndexer.
func ReadDocuments(storagePath string) ([]core.IndexDocument, error) {
	f, err := os.Open(filepath.Join(storagePath, DocumentsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	defer f.Close()

	var docs []core.IndexDocument
	dec := json.NewDecoder(bufio.NewReader(f))
	for dec.More() {
		var rec jsonlRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrPersistence, err)
		}
		docs = append(docs, core.IndexDocument{Content: rec.Content, Metadata: rec.Metadata})
	}
	return docs, nil
}

// Package index owns the knowledge-base vector index: it embeds documents
// through a domain.Embedder and keeps them in a vectorstore.Storage.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"finchat/internal/domain"
	"finchat/internal/vectorstore"
)

// Index is built once at startup and read concurrently afterwards.
// Rebuild is the only writer and holds the lock exclusively for its whole
// run, so queries block until it finishes and never see a partial index.
type Index struct {
	mu        sync.RWMutex
	embedder  domain.Embedder
	store     vectorstore.Storage
	batchSize int
	docs      []domain.Document
	logger    *slog.Logger
}

// New creates an empty index. batchSize bounds each EmbedBatch call during
// a rebuild; zero means one call for the whole corpus.
func New(embedder domain.Embedder, store vectorstore.Storage, batchSize int, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{embedder: embedder, store: store, batchSize: batchSize, logger: logger}
}

// Embedder returns the provider used for documents and queries.
func (ix *Index) Embedder() domain.Embedder { return ix.embedder }

// Rebuild clears the index and repopulates it from docs. On any failure the
// index is left empty and the error is returned.
func (ix *Index) Rebuild(ctx context.Context, docs []domain.Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = nil

	vectors, err := ix.embedAll(ctx, docs)
	if err != nil {
		if cerr := ix.store.Clear(ctx); cerr != nil {
			ix.logger.Warn("clear storage after failed rebuild", "error", cerr)
		}
		return err
	}
	if err := ix.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	if len(docs) == 0 {
		ix.logger.Info("index rebuilt", "documents", 0)
		return nil
	}
	if err := ix.store.Init(ctx, len(vectors[0])); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	entries := make([]domain.IndexEntry, len(docs))
	for i := range docs {
		entries[i] = domain.IndexEntry{Document: docs[i], Vector: vectors[i]}
	}
	if err := ix.store.Upsert(ctx, entries); err != nil {
		if cerr := ix.store.Clear(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
		return fmt.Errorf("upsert entries: %w", err)
	}
	ix.docs = append([]domain.Document(nil), docs...)
	ix.logger.Info("index rebuilt", "documents", len(docs), "embedder", ix.embedder.Name(), "dimension", len(vectors[0]))
	return nil
}

func (ix *Index) embedAll(ctx context.Context, docs []domain.Document) ([][]float64, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	if err := ix.embedder.Prepare(ctx, texts); err != nil {
		return nil, fmt.Errorf("%w: prepare %s: %v", domain.ErrProviderUnavailable, ix.embedder.Name(), err)
	}
	size := ix.batchSize
	if size <= 0 {
		size = len(texts)
	}
	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch, err := ix.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrProviderUnavailable, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: document %s has %d, expected %d",
				domain.ErrDimensionMismatch, docs[i].ID, len(v), dim)
		}
	}
	return vectors, nil
}

// Query returns up to k entries most similar to vector, best first.
func (ix *Index) Query(ctx context.Context, vector []float64, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.docs) == 0 {
		return nil, nil
	}
	return ix.store.Search(ctx, vector, k)
}

// Search embeds text and returns up to k entries most similar to it. The
// embedding and the lookup happen under one read lock, so a concurrent
// Rebuild cannot refit the embedder between them.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(ix.docs) == 0 {
		return nil, nil
	}
	return ix.store.Search(ctx, vec, k)
}

// Len reports how many documents the index holds.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Documents returns a copy of the indexed documents in insertion order.
func (ix *Index) Documents() []domain.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]domain.Document(nil), ix.docs...)
}

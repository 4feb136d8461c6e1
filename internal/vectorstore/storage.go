package vectorstore

import (
	"context"

	"finchat/internal/domain"
)

// Storage holds index entries and answers nearest-neighbor queries.
// Implementations decide the search strategy; scoring is cosine similarity.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, entries []domain.IndexEntry) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
	Len() int
}

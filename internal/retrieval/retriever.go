// Package retrieval turns a query into the context passages sent to the model.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finchat/internal/domain"
)

// Status tells the caller what kind of context, if any, was found.
type Status int

const (
	// StatusOK means at least one passage was retrieved.
	StatusOK Status = iota
	// StatusEmpty means retrieval worked but produced nothing usable.
	StatusEmpty
	// StatusUnavailable means the embedder or the index failed.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of one retrieval. Err is set only for StatusUnavailable.
type Result struct {
	Status   Status
	Passages []string
	Err      error
}

// Text joins the passages with a blank line, keeping rank order.
func (r Result) Text() string {
	return strings.Join(r.Passages, "\n\n")
}

// Searcher is the read side of the vector index. Search embeds text with
// the index's own embedder and looks it up in one step.
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error)
}

// Retriever looks queries up in the index.
type Retriever struct {
	index  Searcher
	logger *slog.Logger
}

// New creates a retriever over index.
func New(index Searcher, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, logger: logger}
}

// Context returns up to k passages for query. Failures are reported in the
// Result, never as a returned error, so the caller can always continue
// without context.
func (r *Retriever) Context(ctx context.Context, query string, k int) Result {
	hits, err := r.index.Search(ctx, query, k)
	if err != nil {
		r.logger.Warn("context retrieval failed", "error", err)
		return Result{Status: StatusUnavailable, Err: fmt.Errorf("search index: %w", err)}
	}

	passages := make([]string, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.Document.Content) == "" {
			continue
		}
		passages = append(passages, h.Document.Content)
	}
	if len(passages) == 0 {
		r.logger.Debug("no context retrieved", "hits", len(hits))
		return Result{Status: StatusEmpty}
	}
	r.logger.Debug("context retrieved", "passages", len(passages), "top_score", hits[0].Score)
	return Result{Status: StatusOK, Passages: passages}
}

package domain

import (
	"context"
	"errors"
)

// Document is a single knowledge-base file loaded at ingestion time.
type Document struct {
	ID      string
	Path    string
	Content string
}

// IndexEntry pairs a document with its embedding. Entries are never mutated
// after insertion; a rebuild replaces them wholesale.
type IndexEntry struct {
	Document Document
	Vector   []float64
}

// SearchResult represents a matching document with its cosine score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Chat roles accepted by the completion service.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ChatMessage is one entry of the message sequence sent to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var (
	// ErrProviderUnavailable reports that an embedding backend could not produce vectors.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrCompletionFailed reports a failed call to the completion service.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrConfigurationMissing reports that a required credential is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrDimensionMismatch reports vectors of different lengths being compared or stored.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidTopK reports a non-positive result count.
	ErrInvalidTopK = errors.New("top-k must be positive")
)

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Completer sends a message sequence to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

package retrieval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finchat/internal/domain"
	"finchat/internal/embedding/tfidf"
	"finchat/internal/index"
	"finchat/internal/vectorstore/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEmbedder struct {
	err error
}

func (e stubEmbedder) Name() string                            { return "stub" }
func (e stubEmbedder) Prepare(context.Context, []string) error { return nil }
func (e stubEmbedder) Dimension() int                          { return 2 }

func (e stubEmbedder) Embed(context.Context, string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float64{1, 0}, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type stubSearcher struct {
	embedder domain.Embedder
	hits     []domain.SearchResult
	err      error
	gotK     int
}

func (s *stubSearcher) Search(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	s.gotK = k
	if _, err := s.embedder.Embed(ctx, text); err != nil {
		return nil, err
	}
	return s.hits, s.err
}

func hit(content string, score float64) domain.SearchResult {
	return domain.SearchResult{Document: domain.Document{ID: content, Content: content}, Score: score}
}

func TestContext_JoinsPassagesInRankOrder(t *testing.T) {
	s := &stubSearcher{
		embedder: stubEmbedder{},
		hits:     []domain.SearchResult{hit("first", 0.9), hit("second", 0.5)},
	}
	res := New(s, discardLogger()).Context(context.Background(), "q", 4)

	assert.Equal(t, StatusOK, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"first", "second"}, res.Passages)
	assert.Equal(t, "first\n\nsecond", res.Text())
	assert.Equal(t, 4, s.gotK)
}

func TestContext_DropsBlankPassages(t *testing.T) {
	s := &stubSearcher{
		embedder: stubEmbedder{},
		hits:     []domain.SearchResult{hit("  \n", 0.9), hit("kept", 0.4), hit("", 0.1)},
	}
	res := New(s, discardLogger()).Context(context.Background(), "q", 3)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"kept"}, res.Passages)
}

func TestContext_EmptyWhenNothingUsable(t *testing.T) {
	s := &stubSearcher{embedder: stubEmbedder{}, hits: []domain.SearchResult{hit(" ", 1)}}
	res := New(s, discardLogger()).Context(context.Background(), "q", 2)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Empty(t, res.Text())

	s.hits = nil
	res = New(s, discardLogger()).Context(context.Background(), "q", 2)
	assert.Equal(t, StatusEmpty, res.Status)
}

func TestContext_EmbeddingFailureIsUnavailable(t *testing.T) {
	s := &stubSearcher{embedder: stubEmbedder{err: domain.ErrProviderUnavailable}}
	res := New(s, discardLogger()).Context(context.Background(), "q", 2)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrProviderUnavailable)
	assert.Empty(t, res.Passages)
}

func TestContext_IndexFailureIsUnavailable(t *testing.T) {
	s := &stubSearcher{embedder: stubEmbedder{}, err: errors.New("dimension mismatch")}
	res := New(s, discardLogger()).Context(context.Background(), "q", 2)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Error(t, res.Err)
}

func TestContext_WithRealIndex(t *testing.T) {
	ctx := context.Background()
	ix := index.New(tfidf.NewEmbedder(), memory.NewStorage(), 0, discardLogger())
	require.NoError(t, ix.Rebuild(ctx, []domain.Document{
		{ID: "nav", Content: "NAV is the net asset value of a fund per share."},
		{ID: "team", Content: "The Aryzen team has offices in Dubai and London."},
		{ID: "inflation", Content: "Inflation is a general rise in prices over time."},
	}))

	res := New(ix, discardLogger()).Context(ctx, "what is net asset value", 1)
	require.Equal(t, StatusOK, res.Status)
	assert.Equal(t, []string{"NAV is the net asset value of a fund per share."}, res.Passages)
}

func TestContext_UnpreparedEmbedderIsUnavailable(t *testing.T) {
	ix := index.New(tfidf.NewEmbedder(), memory.NewStorage(), 0, discardLogger())
	res := New(ix, discardLogger()).Context(context.Background(), "what is NAV", 4)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrProviderUnavailable)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "empty", StatusEmpty.String())
	assert.Equal(t, "unavailable", StatusUnavailable.String())
}

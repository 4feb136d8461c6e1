// Package service glues the guardrail, retrieval, completion and formatting
// steps into the single "answer this query" entry point.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"

	"finchat/internal/completion"
	"finchat/internal/domain"
	"finchat/internal/formatter"
	"finchat/internal/guardrail"
	"finchat/internal/index"
	"finchat/internal/loader"
	"finchat/internal/retrieval"
)

// Fixed replies. Ask never returns anything that is not either one of these
// or formatted model output.
const (
	MsgEmptyQuery  = "Please ask a question related to Aryzen or basic finance."
	MsgDenied      = "I'm sorry, I cannot provide investment advice or predictions."
	MsgOutOfScope  = "I can only answer questions related to **Aryzen Capital Advisors** and basic financial concepts."
	MsgNoAPIKey    = "The assistant is unavailable right now: no API key is configured (set OPENROUTER_API_KEY)."
	MsgInternal    = "Sorry, something went wrong while answering. Please try again."
	MsgUnavailable = "The model service is unavailable right now. Please try again later."
)

// SystemPrompt is the policy message sent first with every request.
const SystemPrompt = "You are a corporate assistant for Aryzen Capital Advisors LLP. " +
	"ONLY answer questions about Aryzen or basic financial terminology. " +
	"Do NOT give investment advice or predictions."

// DefaultTopK is the number of passages retrieved when Options.TopK is unset.
const DefaultTopK = 4

// Deps are the collaborators of a ChatService. Classifier, Loader, Index and
// Completer are required.
type Deps struct {
	Classifier *guardrail.Classifier
	Loader     *loader.Loader
	Index      *index.Index
	// Retriever defaults to one built over Index.
	Retriever  *retrieval.Retriever
	Completer  domain.Completer
	Summarizer domain.Summarizer
	Logger     *slog.Logger
}

// Options tune a ChatService.
type Options struct {
	CorpusDir        string
	TopK             int
	SummarySentences int
}

// ChatService answers queries against the indexed knowledge base.
type ChatService struct {
	classifier *guardrail.Classifier
	loader     *loader.Loader
	index      *index.Index
	retriever  *retrieval.Retriever
	completer  domain.Completer
	summarizer domain.Summarizer
	opts       Options
	logger     *slog.Logger

	mu      sync.RWMutex
	summary string
}

// NewChatService wires a ChatService. The index starts empty; call Ingest
// before serving queries.
func NewChatService(deps Deps, opts Options) *ChatService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Retriever == nil {
		deps.Retriever = retrieval.New(deps.Index, deps.Logger)
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &ChatService{
		classifier: deps.Classifier,
		loader:     deps.Loader,
		index:      deps.Index,
		retriever:  deps.Retriever,
		completer:  deps.Completer,
		summarizer: deps.Summarizer,
		opts:       opts,
		logger:     deps.Logger,
	}
}

// Ask answers one query. It never returns an error and never panics: every
// failure is turned into a user-facing sentence.
func (s *ChatService) Ask(ctx context.Context, query string) (reply string) {
	log := s.logger.With("request_id", uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while answering", "panic", r, "stack", string(debug.Stack()))
			reply = MsgInternal
		}
	}()

	verdict := s.classifier.Classify(query)
	switch verdict.Decision {
	case guardrail.Denied:
		log.Info("query refused", "reason", verdict.Reason, "term", verdict.Term)
		if verdict.Reason == guardrail.ReasonEmpty {
			return MsgEmptyQuery
		}
		return MsgDenied
	case guardrail.OutOfScope:
		log.Info("query out of scope")
		return MsgOutOfScope
	}

	if !s.configured() {
		log.Warn("completion credential missing")
		return MsgNoAPIKey
	}

	res := s.retriever.Context(ctx, query, s.opts.TopK)
	log.Debug("retrieval finished", "status", res.Status, "passages", len(res.Passages))

	raw, err := s.completer.Complete(ctx, BuildMessages(query, res.Text()))
	if err != nil {
		log.Error("completion failed", "error", err)
		return describeError(err)
	}
	return formatter.Format(raw)
}

// BuildMessages returns the policy prompt, the context message when
// contextText is not empty, and the user query, in that order.
func BuildMessages(query, contextText string) []domain.ChatMessage {
	msgs := []domain.ChatMessage{{Role: domain.RoleSystem, Content: SystemPrompt}}
	if contextText != "" {
		msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: "Context:\n" + contextText})
	}
	return append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: query})
}

func (s *ChatService) configured() bool {
	if c, ok := s.completer.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return s.completer != nil
}

func describeError(err error) string {
	if errors.Is(err, domain.ErrConfigurationMissing) {
		return MsgNoAPIKey
	}
	var cerr *completion.Error
	if !errors.As(err, &cerr) {
		return MsgUnavailable
	}
	switch cerr.Kind {
	case completion.KindTransport:
		return "Network error: " + cerr.Message
	case completion.KindAPI:
		return "The model service returned an error: " + cerr.Message
	case completion.KindStatus:
		return fmt.Sprintf("The model service returned an error (status %d).", cerr.Status)
	default:
		return "Unexpected response: " + cerr.Message
	}
}

// Ingest loads the corpus directory and rebuilds the index from it. An
// empty or missing corpus is not an error: the index is cleared and the
// assistant answers without context. The returned summary is an extractive
// overview of the corpus.
func (s *ChatService) Ingest(ctx context.Context) (string, error) {
	docs, err := s.loader.Load(ctx, s.opts.CorpusDir)
	if err != nil {
		return "", fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Warn("knowledge base is empty", "dir", s.opts.CorpusDir)
	}
	if err := s.index.Rebuild(ctx, docs); err != nil {
		s.setSummary("")
		return "", fmt.Errorf("rebuild index: %w", err)
	}

	summary := ""
	if s.summarizer != nil && len(docs) > 0 {
		texts := make([]string, len(docs))
		for i, d := range docs {
			texts[i] = d.Content
		}
		summary, err = s.summarizer.Summarize(strings.Join(texts, "\n"), s.opts.SummarySentences)
		if err != nil {
			s.logger.Warn("corpus summary failed", "error", err)
			summary = ""
		}
	}
	s.setSummary(summary)
	s.logger.Info("knowledge base ingested", "dir", s.opts.CorpusDir, "documents", len(docs))
	return summary, nil
}

// Reload re-ingests the corpus. Queries wait while the index is rebuilt.
func (s *ChatService) Reload(ctx context.Context) error {
	_, err := s.Ingest(ctx)
	if err != nil {
		s.logger.Error("reload failed; index left empty", "error", err)
	}
	return err
}

// Summary returns the overview produced by the last Ingest.
func (s *ChatService) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Documents returns the currently indexed documents.
func (s *ChatService) Documents() []domain.Document {
	return s.index.Documents()
}

func (s *ChatService) setSummary(summary string) {
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
}

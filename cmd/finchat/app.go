package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finchat/internal/completion"
	"finchat/internal/config"
	"finchat/internal/domain"
	"finchat/internal/embedding/openai"
	"finchat/internal/embedding/tfidf"
	"finchat/internal/guardrail"
	"finchat/internal/index"
	"finchat/internal/loader"
	"finchat/internal/service"
	"finchat/internal/summarizer"
	"finchat/internal/vectorstore"
	"finchat/internal/vectorstore/memory"
	"finchat/internal/vectorstore/qdrant"
	"finchat/internal/watcher"
)

// app is the assembled object graph shared by the subcommands.
type app struct {
	svc     *service.ChatService
	loader  *loader.Loader
	summary string
}

// newApp assembles components from cfg and ingests the corpus. An ingest
// failure is logged, not returned: the assistant still answers, without
// context.
func newApp(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	var emb domain.Embedder
	batchSize := 0
	switch cfg.Embedder.Type {
	case "tfidf":
		emb = tfidf.NewEmbedder()
	case "openai":
		o := cfg.Embedder.OpenAI
		emb = openai.NewClient(openai.Config{
			BaseURL:    o.BaseURL,
			APIKey:     config.APIKey(o.APIKeyEnv),
			Model:      o.Model,
			Timeout:    time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize:  o.BatchSize,
			MaxRetries: *o.MaxRetries,
		})
		batchSize = o.BatchSize
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory":
		st = memory.NewStorage()
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		st = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     config.APIKey(q.APIKeyEnv),
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	c := cfg.Completion
	completer := completion.NewClient(completion.Config{
		APIKey:            config.APIKey(c.APIKeyEnv),
		BaseURL:           c.BaseURL,
		Model:             c.Model,
		Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
		Referer:           c.Referer,
		Title:             c.Title,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}, logger)
	if !completer.Configured() {
		logger.Warn("no completion API key; questions will not be answered", "env", c.APIKeyEnv)
	}

	ld := loader.New(cfg.Corpus.Extensions, logger)
	svc := service.NewChatService(service.Deps{
		Classifier: guardrail.New(cfg.Guardrail.DenyTerms, cfg.Guardrail.ScopeTerms),
		Loader:     ld,
		Index:      index.New(emb, st, batchSize, logger),
		Completer:  completer,
		Summarizer: sum,
		Logger:     logger,
	}, service.Options{
		CorpusDir:        cfg.Corpus.Dir,
		TopK:             cfg.Retrieval.TopK,
		SummarySentences: cfg.Summarizer.MaxSentences,
	})

	summary, err := svc.Ingest(ctx)
	if err != nil {
		logger.Error("ingest failed; answering without context", "error", err)
	}
	return &app{svc: svc, loader: ld, summary: summary}, nil
}

// watch starts live reload in the background when enabled. The returned
// stop function is always safe to call.
func (a *app) watch(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) func() {
	if !cfg.Corpus.Watch {
		return func() {}
	}
	w, err := watcher.New(watcher.Config{
		Dir:    cfg.Corpus.Dir,
		Match:  a.loader.Matches,
		Reload: a.svc.Reload,
		Logger: logger,
	})
	if err != nil {
		logger.Warn("live reload disabled", "error", err)
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	logger.Info("watching knowledge base", "dir", cfg.Corpus.Dir)
	return func() {
		cancel()
		<-done
		_ = w.Close()
	}
}

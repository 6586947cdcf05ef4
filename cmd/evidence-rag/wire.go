package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/docling"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/docx"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/fallback"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/pdf"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/extraction/plaintext"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/core/ports/driven"
	"github.com/custodia-labs/evidence-rag/internal/core/services"
	"github.com/custodia-labs/evidence-rag/internal/logger"
	"github.com/custodia-labs/evidence-rag/internal/normalisers/document"
	"github.com/custodia-labs/evidence-rag/internal/normalisers/report"
	"github.com/custodia-labs/evidence-rag/internal/normalisers/table"
)

// build wires the application for one command. Everything is constructed
// from the loaded Config; nothing reads the environment afterwards.
func build(_ context.Context, opts cli.Options) (*cli.App, error) {
	cfg, store, err := loadConfig(opts.ConfigPath, os.Getenv)
	if err != nil {
		return nil, err
	}

	app := &cli.App{
		Config:      cfg,
		ConfigStore: store,
		Close:       func() error { return nil },
	}
	if !opts.Store {
		return app, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Upstream {
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, err
		}
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	db, err := sqlite.NewStore(cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	closers = append(closers, db.Close)
	logger.Debug("store: %s", db.Path())

	var (
		vectors driven.VectorStore = db.VectorStore()
		lock    driven.IngestLock  = db.IngestLock(cfg.Store.LeaseTTL)
	)
	if opts.Memory {
		vectors = memory.NewVectorStore()
		lock = memory.NewIngestLock()
		logger.Debug("vectors: in memory")
	}

	evidence := db.EvidenceSource()
	schedulerStore := db.SchedulerStore()

	app.Evidence = services.NewEvidenceService(evidence, cfg.Server.EvidenceLimit)
	app.Status = services.NewStatusService(vectors, schedulerStore)
	app.Close = closeAll

	if cfg.OpenAI.APIKey == "" {
		return app, nil
	}

	upstream, err := ai.New(cfg.OpenAI)
	if err != nil {
		_ = closeAll()
		return nil, err
	}
	closers = append(closers, upstream.Close)
	app.Ping = upstream.Validate

	prompts, err := file.NewPromptStore(cfg.Prompts.Dir)
	if err != nil {
		_ = closeAll()
		return nil, err
	}

	normalisers := []driven.SourceNormaliser{
		document.New(document.Config{
			Path:         cfg.Sources.DocumentPath,
			SourceID:     cfg.Sources.DocumentID,
			ChunkSize:    cfg.Ingest.ChunkSize,
			ChunkOverlap: cfg.Ingest.ChunkOverlap,
		}, newExtractor(cfg.Docling)),
		report.New(cfg.Sources.ReportPath),
		table.New(evidence),
	}

	ingestion := services.NewIngestionService(normalisers, upstream.Embedding, vectors, lock, cfg.Ingest.BatchSize)
	retrieval := services.NewRetrievalService(upstream.Embedding, vectors, cfg.Retrieval)
	composer := services.NewAnswerComposer(upstream.LLM, prompts, cfg.Answer)

	app.Ingestion = ingestion
	app.Retrieval = retrieval
	app.Query = services.NewQueryService(retrieval, composer)

	if cfg.Ingest.RefreshInterval > 0 {
		app.Scheduler = services.NewScheduler(cfg.Ingest.RefreshInterval, schedulerStore, ingestion)
	}

	return app, nil
}

// loadConfig layers defaults, the config file and the environment.
func loadConfig(path string, getenv func(string) string) (domain.Config, *file.ConfigStore, error) {
	cfg := domain.DefaultConfig()

	store, err := file.NewConfigStore(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := file.ApplyConfig(store, &cfg); err != nil {
		return cfg, nil, fmt.Errorf("loading config %s: %w", store.Path(), err)
	}
	file.ApplyEnv(&cfg, getenv)

	return cfg, store, nil
}

// newExtractor prefers the docling worker and falls back to local
// extraction by file extension. An empty URL skips the worker.
func newExtractor(cfg domain.DoclingConfig) driven.Extractor {
	text := plaintext.New()
	local := fallback.NewByExtension(map[string]driven.Extractor{
		".docx": docx.New(),
		".pdf":  pdf.New(),
		".md":   text,
		".txt":  text,
	}, text)

	if cfg.URL == "" {
		return local
	}
	return fallback.NewChain(docling.New(docling.Config{
		URL:     cfg.URL,
		Timeout: cfg.Timeout,
	}), local)
}

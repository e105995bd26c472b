package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/career-path/internal/catalog"
	"github.com/jonathan/career-path/internal/config"
	"github.com/jonathan/career-path/internal/embedding"
	"github.com/jonathan/career-path/internal/index"
	"github.com/jonathan/career-path/internal/ingest"
	"github.com/jonathan/career-path/internal/llm"
	"github.com/jonathan/career-path/internal/pdftext"
	"github.com/jonathan/career-path/internal/rag"
	"github.com/jonathan/career-path/internal/resume"
	"github.com/jonathan/career-path/internal/roadmap"
	"github.com/jonathan/career-path/internal/session"
)

const embeddingCacheTTL = 30 * 24 * time.Hour

// newGateway builds the LLM gateway. Tests replace it with a fake.
var newGateway = func(ctx context.Context, cfg config.Config) (llm.Gateway, error) {
	llmCfg := llm.DefaultConfig().WithTextModel(cfg.TextModel).WithEmbeddingModel(cfg.EmbedModel)
	llmCfg.Provider = llm.Provider(cfg.Provider)
	return llm.NewClient(ctx, llmCfg, cfg.APIKey)
}

// app holds the components shared by every command.
type app struct {
	cfg     config.Config
	gateway llm.Gateway
	engine  *embedding.Engine
	store   index.Store // nil unless opened
	closers []func() error
}

// newApp loads configuration and builds the gateway and embedding engine.
// A gateway that cannot be built is replaced by one that reports the problem
// on every call, so commands that never reach the model still work.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		log.Printf("[CONFIG] LLM gateway unavailable: %v", err)
		gateway = llm.Unavailable(err)
	}
	a.gateway = gateway
	a.closers = append(a.closers, gateway.Close)

	var cache embedding.Cache = embedding.NewMemoryCache()
	if cfg.RedisURL != "" {
		redisCache, err := embedding.NewRedisCache(ctx, cfg.RedisURL, embeddingCacheTTL)
		if err != nil {
			log.Printf("[CONFIG] Redis cache unavailable, using memory: %v", err)
		} else {
			cache = redisCache
			a.closers = append(a.closers, redisCache.Close)
		}
	}
	a.engine = embedding.NewEngine(gateway, embedding.WithCache(cache))

	return a, nil
}

// openIndex opens the configured vector index.
func (a *app) openIndex(ctx context.Context) (index.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := index.Open(ctx, a.cfg.IndexPath, a.cfg.Collection)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// loadCatalog reads path, the configured seed catalog, or the embedded reference catalog.
func (a *app) loadCatalog(path string) ([]catalog.Entry, error) {
	if path == "" {
		path = a.cfg.SeedCatalog
	}
	return catalog.LoadOrDefault(path)
}

// seedIfEmpty ingests the seed catalog into an empty index.
func (a *app) seedIfEmpty(ctx context.Context) error {
	store, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	entries, err := a.loadCatalog("")
	if err != nil {
		return err
	}
	log.Printf("[INGEST] Index %q is empty, seeding %d careers", a.cfg.Collection, len(entries))
	_, err = ingest.New(a.engine, store).Run(ctx, entries)
	return err
}

func (a *app) parser() *resume.Parser {
	return resume.NewParser(a.gateway,
		resume.WithLoader(pdftext.NewLoader(a.cfg.S3Endpoint)),
		resume.WithTimeout(a.cfg.Timeout),
	)
}

func (a *app) pipeline(ctx context.Context) (*rag.Pipeline, error) {
	store, err := a.openIndex(ctx)
	if err != nil {
		return nil, err
	}
	return rag.NewPipeline(a.engine, store, a.gateway, a.cfg.Timeout), nil
}

func (a *app) roadmaps() *roadmap.Engine {
	return roadmap.NewEngine(a.gateway, a.cfg.Timeout)
}

// sessionDeps wires a session's components.
func (a *app) sessionDeps(ctx context.Context, k int) (session.Deps, error) {
	pipeline, err := a.pipeline(ctx)
	if err != nil {
		return session.Deps{}, err
	}
	return session.Deps{Parser: a.parser(), RAG: pipeline, Roadmap: a.roadmaps(), K: k}, nil
}

// Close releases everything the app opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[CONFIG] close: %v", err)
		}
	}
}

func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	defer a.Close()
	return fn(a)
}

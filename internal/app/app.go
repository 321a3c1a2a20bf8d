package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/analyzer"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/batch"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/eventlog"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/llm"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/logger"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/results"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/store"
)

// App wires the pipeline: record store, results store, LLM client, analyzer
// and batch runner. Construction validates the config and connects both
// stores; a failure here aborts the run before any batch starts.
type App struct {
	cfg      Config
	log      *logger.Logger
	db       *pgxpool.Pool
	records  *store.Store
	sink     *results.Store
	events   *eventlog.Logger
	analyzer *analyzer.Analyzer
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	sink, err := results.Open(cfg.ResultsDBPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	records := store.New(db)
	client := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey: cfg.GoogleAPIKey,
		Model:  cfg.GeminiModel,
	})

	events := eventlog.New(db)

	return &App{
		cfg:      cfg,
		log:      log,
		db:       db,
		records:  records,
		sink:     sink,
		events:   events,
		analyzer: analyzer.New(records, sink, client, events, log),
	}, nil
}

func (a *App) Records() *store.Store        { return a.records }
func (a *App) Results() *results.Store      { return a.sink }
func (a *App) Analyzer() *analyzer.Analyzer { return a.analyzer }

// Runner builds a batch runner from the configured worker and chunk sizes.
func (a *App) Runner() *batch.Runner {
	return batch.New(a.analyzer, batch.Config{
		MaxWorkers: a.cfg.MaxWorkers,
		BatchSize:  a.cfg.BatchSize,
		OutputPath: a.cfg.OutputPath,
	}, a.log)
}

// Close drains pending event writes, then closes both stores.
func (a *App) Close() error {
	a.events.Wait()
	err := a.sink.Close()
	a.db.Close()
	return err
}

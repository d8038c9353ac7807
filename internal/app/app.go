package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/config"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/llm"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/scheduler"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/sources"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/infrastructure/storage"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/logging"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/server"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/source"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/usecase"
)

// Application wires config to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	jobs    *usecase.Jobs
	handler http.Handler
	closer  func() error
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, closer, err := openStore(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	registry := BuildRegistry(cfg, baseLogger)

	ingestor := usecase.NewIngestor(registry, store, baseLogger.With("component", "ingestor"))
	cleaner := usecase.NewCleaner(store, baseLogger.With("component", "cleaner"))

	generator := llm.NewGenerator(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})

	insights, _ := store.(ports.InsightStore)
	matcher := usecase.NewMatcher(store, generator, insights, baseLogger.With("component", "matcher"))

	scheduledOpts := usecase.CleanOptions{}
	if cfg.Cleaner.ApplyCutoffScheduled {
		scheduledOpts.YearCutoff = cfg.Cleaner.YearCutoff
	}

	jobs := usecase.NewJobs(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Duration()),
		ingestor, cleaner, scheduledOpts,
		baseLogger.With("component", "jobs"),
	)

	srv := server.New(ingestor, cleaner, matcher, scheduledOpts, baseLogger.With("component", "server"))

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		jobs:    jobs,
		handler: srv.Handler(cfg.Server.Timeout()),
		closer:  closer,
	}, nil
}

// BuildRegistry registers the enabled source adapters with their configured
// retry policies.
func BuildRegistry(cfg config.Config, baseLogger *slog.Logger) *source.Registry {
	registry := source.NewRegistry()

	client := func(name string) *source.Client {
		policy := source.NoRetry()
		if cfg.Source(name).Retry {
			policy = source.DefaultRetryPolicy()
		}
		return source.NewClient(nil, policy)
	}
	srcLogger := func(name string) *slog.Logger {
		return baseLogger.With("component", "source."+name)
	}

	if cfg.Source("pubmed").Enabled {
		registry.Register(sources.NewPubMed(client("pubmed"), "", srcLogger("pubmed")))
	}
	if cfg.Source("ctgov").Enabled {
		registry.Register(sources.NewClinicalTrials(client("ctgov"), "", srcLogger("ctgov")))
	}
	if cfg.Source("nihreporter").Enabled {
		registry.Register(sources.NewReporter(client("nihreporter"), "", srcLogger("nihreporter")))
	}
	if cfg.Source("openalex").Enabled {
		registry.Register(sources.NewOpenAlex(client("openalex"), "", srcLogger("openalex")))
	}
	if cfg.Source("europepmc").Enabled {
		registry.Register(sources.NewEuropePMC(client("europepmc"), "", srcLogger("europepmc")))
	}
	if cfg.Source("medrxiv").Enabled {
		registry.Register(sources.NewMedRxiv(client("medrxiv"), "", srcLogger("medrxiv")))
	}

	return registry
}

// openStore selects Postgres when a DSN is configured, the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.ReferenceStore, func() error, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("no database DSN configured, using in-memory store")
		return storage.NewMemoryStore(), func() error { return nil }, nil
	}

	pg, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// Run starts the scheduler and the HTTP server and blocks until the context
// is canceled, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.closer(); err != nil {
			a.logger.Error("close store", "error", err)
		}
	}()

	if err := a.jobs.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = a.jobs.Stop(context.Background()) }()

	httpServer := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

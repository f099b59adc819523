package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kingrea/waypoint/internal/categories"
	"github.com/kingrea/waypoint/internal/config"
	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/store/postgres"
	"github.com/kingrea/waypoint/internal/workflow"
	"github.com/kingrea/waypoint/internal/workflow/approval"
	"github.com/kingrea/waypoint/internal/workflow/cost"
	"github.com/kingrea/waypoint/internal/workflow/engine"
	"github.com/kingrea/waypoint/internal/workflow/optimizer"
	"github.com/kingrea/waypoint/internal/workflow/selector"
)

// journalDir is the subdirectory of the log dir holding run journals.
const journalDir = "journal"

// app is the wired set of collaborators behind every command.
type app struct {
	opts      globalOptions
	cfg       config.Config
	logger    *slog.Logger
	logFile   *logging.File
	pool      *pgxpool.Pool
	gatherer  *prometheus.Registry
	vocab     categories.Vocabulary
	registry  *approval.Registry
	optimizer *optimizer.Optimizer
	engine    *engine.Engine
	journals  *logging.Journals
}

func openApp(ctx context.Context, opts globalOptions) (*app, error) {
	projectDir := opts.projectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		projectDir = wd
	}
	cfg, err := config.Resolve(opts.configPath, projectDir)
	if err != nil {
		return nil, err
	}

	a := &app{opts: opts, cfg: cfg}
	a.logFile, err = logging.OpenFile(cfg.LogDir())
	if err != nil {
		return nil, err
	}
	a.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, a.logFile)

	a.vocab = categories.Default()
	if cfg.Categories.File != "" {
		extra, err := categories.LoadVocabularyFile(cfg.Categories.File)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.vocab = a.vocab.Merge(extra)
	}

	defaultStrategy, err := optimizer.ParseStrategy(cfg.Strategy)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("config strategy: %w", err)
	}

	a.gatherer = prometheus.NewRegistry()
	rec := metrics.New(a.gatherer)
	pricing := cost.Pricing(cfg.Pricing)

	a.registry = approval.NewRegistry(approval.WithLogger(a.logger), approval.WithMetrics(rec))
	a.optimizer = optimizer.New(optimizer.Options{
		Pricing:            pricing,
		MaxPaths:           cfg.Enumeration.MaxPaths,
		BaselineCategories: cfg.Risk.BaselineCategories,
		Categories:         a.vocab,
		Registry:           a.registry,
		DefaultStrategy:    defaultStrategy,
		Metrics:            rec,
		Logger:             a.logger,
	})

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.journals, err = logging.NewJournals(filepath.Join(cfg.LogDir(), journalDir))
	if err != nil {
		a.Close()
		return nil, err
	}
	sel := selector.New(cost.New(pricing, a.logger),
		selector.WithCategories(a.vocab),
		selector.WithLogger(a.logger),
	)
	a.engine, err = engine.New(store, sel,
		engine.WithLogger(a.logger),
		engine.WithJournal(a.journals),
		engine.WithMetrics(rec),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.logger.Debug("waypoint ready", "config", cfg.Path, "backend", cfg.Storage.Backend)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (engine.Store, error) {
	switch a.cfg.Storage.Backend {
	case "postgres":
		store, pool, err := postgres.Open(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		if err := store.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return engine.NewFileStore(a.cfg.StateDir()), nil
	}
}

// context carries the app logger for the stores.
func (a *app) context(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, a.logger)
}

// Close flushes metrics and releases the log file and database pool.
func (a *app) Close() error {
	var errs []error
	if a.opts.metricsFile != "" && a.gatherer != nil {
		if err := prometheus.WriteToTextfile(a.opts.metricsFile, a.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) domain() string {
	if d := strings.TrimSpace(a.opts.domain); d != "" {
		return d
	}
	return a.cfg.Categories.Domain
}

// stdinRef names the graph argument that reads YAML from standard input.
const stdinRef = "-"

func (a *app) loadGraph(ref string, stdin io.Reader) (workflow.GraphDefinition, error) {
	if ref == stdinRef {
		return workflow.LoadDefinitionReader(stdin)
	}
	return workflow.LoadDefinitionFile(a.cfg.GraphPath(ref))
}

func (a *app) loadCoverage() (categories.Coverage, error) {
	if a.opts.coverage == "" {
		return categories.Coverage{}, nil
	}
	return categories.LoadCoverageFile(a.opts.coverage)
}

// strategy returns the --strategy override, or nil so the graph's default
// and then the configured default apply.
func (a *app) strategy() (optimizer.Strategy, error) {
	if strings.TrimSpace(a.opts.strategy) == "" {
		return nil, nil
	}
	return optimizer.ParseStrategy(a.opts.strategy)
}

// optimize loads the graph and coverage and registers a pending request.
func (a *app) optimize(ref string, stdin io.Reader) (approval.Request, error) {
	def, err := a.loadGraph(ref, stdin)
	if err != nil {
		return approval.Request{}, err
	}
	coverage, err := a.loadCoverage()
	if err != nil {
		return approval.Request{}, err
	}
	strategy, err := a.strategy()
	if err != nil {
		return approval.Request{}, err
	}
	return a.optimizer.Optimize(optimizer.Input{
		ProjectID:   a.opts.project,
		Domain:      a.domain(),
		RequestedBy: a.opts.user,
		Definition:  def,
		Strategy:    strategy,
		Coverage:    coverage,
	})
}

// Command schedulecore wires configuration, storage, the visibility engine,
// validation, and the analytics pipeline into a single long-running
// process: load a schedule from a source file, evaluate visibility,
// validate it, run the configured solver, persist the result, and flush
// denormalized analytics in the background. There is no HTTP layer here;
// external services (if any) are expected to sit in front of the
// repository this process writes to.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/config"
	"github.com/obscore/scheduler/domain"
	"github.com/obscore/scheduler/ephemeris"
	"github.com/obscore/scheduler/logger"
	"github.com/obscore/scheduler/repository"
	"github.com/obscore/scheduler/repository/memory"
	"github.com/obscore/scheduler/repository/postgres"
	"github.com/obscore/scheduler/solver"
	"github.com/obscore/scheduler/validation"
	"github.com/obscore/scheduler/visibility"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	log := logger.New(cfg)
	log.Info().Str("env", cfg.Env).Str("repository", string(cfg.RepositoryType)).Msg("starting schedulecore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open repository")
	}
	defer closeRepo()

	writer := analytics.NewLogWriter(log)
	pipeline := analytics.NewPipeline(log, writer, analytics.PipelineConfig{
		BufferSize:    cfg.AnalyticsBufferSize,
		FlushInterval: cfg.AnalyticsFlushInterval,
		MaxRetries:    3,
		RetryDelay:    200 * time.Millisecond,
		Workers:       cfg.AnalyticsWorkers,
	})
	pipeline.Start(ctx)
	defer pipeline.Stop()

	if path := os.Getenv("INGEST_SOURCE_PATH"); path != "" {
		if err := ingestSource(ctx, path, repo, pipeline, log); err != nil {
			log.Error().Err(err).Str("path", path).Msg("ingest failed")
		}
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	log.Info().Msg("shutting down schedulecore")
}

// openRepository selects the in-memory or Postgres-backed store per
// cfg.RepositoryType, per SPEC_FULL.md's REPOSITORY_TYPE switch.
func openRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Repository, func(), error) {
	switch cfg.RepositoryType {
	case config.RepositoryPostgres:
		pgCfg := postgres.DefaultConfig(cfg.DatabaseURL)
		pgCfg.MaxConns = cfg.PostgresMaxConnections
		pgCfg.MinConns = cfg.PostgresMinConnections
		pgCfg.ConnectTimeout = cfg.PostgresConnectTimeout
		pgCfg.MaxConnIdleTime = cfg.PostgresIdleTimeout
		pgCfg.MaxRetries = cfg.PostgresMaxRetries
		pgCfg.RetryDelay = cfg.PostgresRetryDelay

		store, err := postgres.Open(ctx, pgCfg, log, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store := memory.NewStore(log)
		return store, func() {}, nil
	}
}

// ingestSource parses a schedule file, evaluates visibility, validates it,
// runs the reference solver, persists the result, and enqueues its block
// rows for analytics population.
func ingestSource(ctx context.Context, path string, repo repository.Repository, pipeline *analytics.Pipeline, log zerolog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sched, err := domain.ParseSource(path, raw)
	if err != nil {
		return err
	}

	engine := visibility.NewEngine(ephemeris.Analytic{})
	engine.EvaluateSchedule(sched)

	runSolver(sched)

	// StoreSchedule mints each block's SchedulingBlockID, so validation
	// (which stamps that id onto every result) must run after it.
	meta, err := repo.StoreSchedule(ctx, sched)
	if err != nil {
		return err
	}
	log.Info().Int64("schedule_id", meta.ID).Int("blocks", len(sched.Blocks)).Msg("schedule stored")

	results := validation.ValidateSchedule(sched)
	for _, r := range results {
		if r.Criticality == validation.CriticalityHigh {
			log.Warn().Int64("block_id", int64(r.SchedulingBlockID)).Str("issue", r.IssueType).Msg("validation issue")
		}
	}
	if err := repo.InsertValidationResults(ctx, meta.ID, results); err != nil {
		return err
	}

	if err := repo.PopulateScheduleAnalytics(ctx, meta.ID); err != nil {
		return err
	}
	if err := repo.PopulateSummaryAnalytics(ctx, meta.ID, 24); err != nil {
		return err
	}

	// Mirror the same rows through the async pipeline so a log/metrics
	// sink observes ingestion independently of the repository's own
	// analytics write path.
	pipeline.Enqueue(meta.ID, analytics.BuildBlockRows(meta.ID, sched))
	return nil
}

func runSolver(sched *domain.Schedule) {
	alg := solver.NullSolver{}
	res, err := alg.Solve(context.Background(), sched.Blocks, solver.AlgorithmParams{Algorithm: solver.AlgorithmNull})
	if err != nil {
		return
	}
	byID := make(map[domain.SchedulingBlockID]solver.Assignment, len(res.Assignments))
	for _, a := range res.Assignments {
		byID[a.BlockID] = a
	}
	for _, b := range sched.Blocks {
		if a, ok := byID[b.ID]; ok {
			b.ScheduledPeriod = &a.Period
		}
	}
}

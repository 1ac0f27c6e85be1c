// Package postgres implements repository.Repository against a Postgres
// backend via pgx/pgxpool, adapted from the connection-pool pattern seen
// across the retrieval pack's database packages. Per spec §5, the populate
// methods and InsertValidationResults serialize writes to a given
// schedule_id through a striped lock so concurrent populate calls for the
// same schedule never interleave; StoreSchedule locks on a hash of the
// checksum instead, and the Delete* methods take no lock. Reads are
// unserialized and go straight to the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/obscore/scheduler/analytics"
	"github.com/obscore/scheduler/repository"
)

// Config configures the connection pool, per spec §5/§6.
type Config struct {
	DatabaseURL     string
	MinConns        int32
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultConfig returns production defaults, tuned for a single scheduling
// service instance talking to one Postgres primary.
func DefaultConfig(databaseURL string) Config {
	return Config{
		DatabaseURL:     databaseURL,
		MinConns:        2,
		MaxConns:        10,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryDelay:      200 * time.Millisecond,
	}
}

// metrics are the repository operation instruments (counts, failures,
// retries, latency) registered against the caller's prometheus registry,
// per spec §6's "observability hooks" ambient concern. There are no pool
// gauges.
type metrics struct {
	queries  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	retries  prometheus.Counter
	latency  *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_repository_queries_total",
			Help: "Total repository operations by name.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_repository_errors_total",
			Help: "Total repository operation failures by kind.",
		}, []string{"operation", "kind"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_repository_retries_total",
			Help: "Total retry attempts issued by the repository's backoff loop.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_repository_operation_seconds",
			Help:    "Repository operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.queries, m.errors, m.retries, m.latency)
	}
	return m
}

const stripeCount = 64

// Store is the Postgres-backed repository.Repository implementation.
type Store struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	cfg     Config
	metrics *metrics
	stripes [stripeCount]sync.Mutex
}

// Open connects to Postgres and applies the schema DDL, per spec §4.E/§6.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger, reg prometheus.Registerer) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, repository.NewConfigurationError("Open", "postgres", fmt.Sprintf("invalid database url: %v", err))
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, repository.NewConfigurationError("Open", "postgres", fmt.Sprintf("unable to create pool: %v", err))
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, repository.NewConfigurationError("Open", "postgres", fmt.Sprintf("unable to ping: %v", err))
	}

	s := &Store{
		pool:    pool,
		logger:  logger.With().Str("component", "postgres-repository").Logger(),
		cfg:     cfg,
		metrics: newMetrics(reg),
	}

	for _, ddl := range analytics.AllSchemas() {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			pool.Close()
			return nil, repository.NewConfigurationError("Open", "postgres", fmt.Sprintf("schema migration failed: %v", err))
		}
	}
	return s, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) stripeFor(scheduleID int64) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d", scheduleID)
	return &s.stripes[h.Sum32()%stripeCount]
}

// withWriteLock serializes writes for one schedule_id, per spec §5.
func (s *Store) withWriteLock(scheduleID int64, fn func() error) error {
	mu := s.stripeFor(scheduleID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// classify maps a Postgres/pgx error to the repository.Kind taxonomy of
// spec §7.
func classify(op, entity, id string, err error) *repository.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &repository.Error{Kind: repository.KindTimeout, Operation: op, Entity: entity, EntityID: id, Details: err.Error(), Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &repository.Error{Kind: repository.KindNotFound, Operation: op, Entity: entity, EntityID: id, Details: "not found", Cause: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected:
			return &repository.Error{Kind: repository.KindQuerySerialization, Operation: op, Entity: entity, EntityID: id, Details: pgErr.Message, Cause: err}
		case pgErr.Code[:2] == "08": // connection exception class
			return &repository.Error{Kind: repository.KindConnection, Operation: op, Entity: entity, EntityID: id, Details: pgErr.Message, Cause: err}
		case pgErr.Code == pgerrcode.QueryCanceled:
			return &repository.Error{Kind: repository.KindTimeout, Operation: op, Entity: entity, EntityID: id, Details: pgErr.Message, Cause: err}
		default:
			return &repository.Error{Kind: repository.KindQueryOther, Operation: op, Entity: entity, EntityID: id, Details: pgErr.Message, Cause: err}
		}
	}
	return &repository.Error{Kind: repository.KindInternal, Operation: op, Entity: entity, EntityID: id, Details: err.Error(), Cause: err}
}

// withRetry runs fn, retrying on retryable classified errors with
// exponential backoff, per spec §7.
func (s *Store) withRetry(ctx context.Context, op, entity, id string, fn func() error) error {
	start := time.Now()
	s.metrics.queries.WithLabelValues(op).Inc()
	defer func() { s.metrics.latency.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	var classified *repository.Error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		classified = classify(op, entity, id, err)
		if !classified.Retryable() || attempt == s.cfg.MaxRetries {
			break
		}
		s.metrics.retries.Inc()
		select {
		case <-ctx.Done():
			return classify(op, entity, id, ctx.Err())
		case <-time.After(s.cfg.RetryDelay * time.Duration(1<<uint(attempt))):
		}
	}
	s.metrics.errors.WithLabelValues(op, classified.Kind.String()).Inc()
	return classified
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.withRetry(ctx, "HealthCheck", "postgres", "", func() error {
		return s.pool.Ping(ctx)
	})
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Writer is the destination for denormalized analytics batches (Postgres,
// stdout, etc.), per spec §4.F's populate_schedule_analytics.
type Writer interface {
	// WriteBlockRows inserts one batch of block rows for a schedule.
	WriteBlockRows(ctx context.Context, scheduleID int64, rows []BlockRow) error
	Close() error
}

// PipelineConfig controls batching and backpressure behavior for async
// analytics population.
type PipelineConfig struct {
	BufferSize    int
	FlushInterval time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	Workers       int
}

// DefaultPipelineConfig returns production defaults; BatchSize itself is
// fixed at the 95-row chunk size Batches() uses, so it isn't configurable
// here.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BufferSize:    10000,
		FlushInterval: 5 * time.Second,
		MaxRetries:    3,
		RetryDelay:    500 * time.Millisecond,
		Workers:       2,
	}
}

// job is one schedule's worth of rows queued for a flush.
type job struct {
	scheduleID int64
	rows       []BlockRow
}

// Pipeline is the async analytics population engine: callers enqueue a
// schedule's block rows, and a pool of workers flushes them to the
// configured Writer with bounded retries, so Enqueue never blocks the
// caller on backend latency. Each queued job is flushed as soon as a
// worker takes it; PipelineConfig.FlushInterval is not read.
type Pipeline struct {
	logger zerolog.Logger
	config PipelineConfig
	writer Writer

	jobs   chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	rowsReceived int64
	rowsWritten  int64
	rowsDropped  int64
	flushErrors  int64
}

// NewPipeline creates a new analytics population pipeline.
func NewPipeline(logger zerolog.Logger, writer Writer, config ...PipelineConfig) *Pipeline {
	cfg := DefaultPipelineConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Pipeline{
		logger: logger.With().Str("component", "analytics-pipeline").Logger(),
		config: cfg,
		writer: writer,
		jobs:   make(chan job, cfg.BufferSize),
	}
}

// Start launches the pipeline's flush workers.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info().
		Int("workers", p.config.Workers).
		Int("buffer_size", p.config.BufferSize).
		Msg("analytics pipeline started")
}

// Stop signals workers to drain and wait for them to finish.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.drain()
	if p.writer != nil {
		_ = p.writer.Close()
	}
	p.logger.Info().
		Int64("received", atomic.LoadInt64(&p.rowsReceived)).
		Int64("written", atomic.LoadInt64(&p.rowsWritten)).
		Int64("dropped", atomic.LoadInt64(&p.rowsDropped)).
		Int64("flush_errors", atomic.LoadInt64(&p.flushErrors)).
		Msg("analytics pipeline stopped")
}

// Enqueue submits a schedule's rows for asynchronous population.
// Non-blocking: drops the job if the buffer is full.
func (p *Pipeline) Enqueue(scheduleID int64, rows []BlockRow) {
	select {
	case p.jobs <- job{scheduleID: scheduleID, rows: rows}:
		atomic.AddInt64(&p.rowsReceived, int64(len(rows)))
	default:
		atomic.AddInt64(&p.rowsDropped, int64(len(rows)))
		p.logger.Warn().Int64("schedule_id", scheduleID).Msg("analytics job dropped: buffer full")
	}
}

func (p *Pipeline) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			p.flush(j)
		}
	}
}

func (p *Pipeline) flush(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, batch := range Batches(j.rows) {
		var err error
		for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
			err = p.writer.WriteBlockRows(ctx, j.scheduleID, batch)
			if err == nil {
				atomic.AddInt64(&p.rowsWritten, int64(len(batch)))
				break
			}
			p.logger.Warn().Err(err).Int64("schedule_id", j.scheduleID).Int("attempt", attempt+1).Int("batch_size", len(batch)).Msg("analytics batch flush failed")
			if attempt < p.config.MaxRetries {
				time.Sleep(p.config.RetryDelay * time.Duration(1<<uint(attempt)))
			}
		}
		if err != nil {
			atomic.AddInt64(&p.flushErrors, 1)
			atomic.AddInt64(&p.rowsDropped, int64(len(batch)))
			p.logger.Error().Err(err).Int64("schedule_id", j.scheduleID).Int("batch_size", len(batch)).Msg("analytics batch dropped after retries")
		}
	}
}

func (p *Pipeline) drain() {
	for {
		select {
		case j := <-p.jobs:
			p.flush(j)
		default:
			return
		}
	}
}

// Stats reports pipeline throughput counters.
type PipelineStats struct {
	RowsReceived int64
	RowsWritten  int64
	RowsDropped  int64
	FlushErrors  int64
	QueueDepth   int
}

func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		RowsReceived: atomic.LoadInt64(&p.rowsReceived),
		RowsWritten:  atomic.LoadInt64(&p.rowsWritten),
		RowsDropped:  atomic.LoadInt64(&p.rowsDropped),
		FlushErrors:  atomic.LoadInt64(&p.flushErrors),
		QueueDepth:   len(p.jobs),
	}
}

// LogWriter writes rows as structured JSON logs; used in development or
// when no relational backend is configured.
type LogWriter struct {
	logger zerolog.Logger
}

func NewLogWriter(logger zerolog.Logger) *LogWriter {
	return &LogWriter{logger: logger.With().Str("writer", "log").Logger()}
}

func (w *LogWriter) WriteBlockRows(_ context.Context, scheduleID int64, rows []BlockRow) error {
	w.logger.Debug().Int64("schedule_id", scheduleID).Int("count", len(rows)).Msg("block_rows")
	return nil
}

func (w *LogWriter) Close() error { return nil }

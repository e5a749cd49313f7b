// Package writer runs the single background goroutine that drains the
// ingest buffer and persists spans in batches, per spec §4.3.
package writer

import (
	"context"
	"sync/atomic"
	"time"

	"hikari/internal/infrastructure/config"
	"hikari/internal/infrastructure/logger"
	"hikari/internal/modules/collector/buffer"
	"hikari/internal/modules/collector/entity"
	"hikari/internal/pkg/apperror"
)

// Repository is the persistence seam the writer depends on, satisfied by
// the collector's command repository. Kept narrow on purpose: the writer
// has no business knowing about reads.
type Repository interface {
	InsertBatch(ctx context.Context, spans []entity.Span) error
}

// Writer drains buffer.Buffer in batches and persists them through
// Repository, one goroutine at a time, as required by spec §5 (exactly one
// writer, so insert ordering per pipeline stays well-defined).
type Writer struct {
	buf        *buffer.Buffer
	repo       Repository
	log        logger.Logger
	cfg        config.CollectorConfig
	connected  atomic.Bool
	batches    atomic.Uint64
	stopped    chan struct{}
	backoff    time.Duration
}

// New builds a Writer. cfg supplies batch size, retry interval, write
// timeout and shutdown drain deadline (all defaulted by
// config.CollectorConfig.Defaults).
func New(buf *buffer.Buffer, repo Repository, log logger.Logger, cfg config.CollectorConfig) *Writer {
	return &Writer{
		buf:     buf,
		repo:    repo,
		log:     log,
		cfg:     cfg,
		stopped: make(chan struct{}),
		backoff: time.Second,
	}
}

// Connected reports whether the last write attempt succeeded, feeding the
// §6 /v1/health db_connected field.
func (w *Writer) Connected() bool { return w.connected.Load() }

// Batches returns the cumulative count of batches successfully persisted.
func (w *Writer) Batches() uint64 { return w.batches.Load() }

// Run drains the buffer until ctx is cancelled, persisting batches of up
// to cfg.DBBatchSize spans at a time. Cancelling ctx closes the buffer,
// which wakes a Drain that is waiting on an empty buffer; Run then flushes
// what remains within cfg.ShutdownDrainSeconds. Every failed write gets
// exactly one retry after cfg.DBRetryIntervalSeconds, whatever its
// classification. If the retry still fails: a transient error re-enqueues
// the batch at the buffer's head (§9 Open Question 1) and waits another
// cfg.DBRetryIntervalSeconds before draining again; a permanent error drops the batch
// and logs it, since there is no DLQ component in scope here. If a run
// iteration panics, Run recovers,
// logs, and restarts the loop with a bounded exponential backoff capped at
// one minute (§9 Open Question 2), rather than exiting and leaving the
// buffer undrained.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.stopped)

	go func() {
		<-ctx.Done()
		w.buf.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			w.drain(context.Background())
			return
		default:
		}

		if w.runOnce(ctx) {
			w.backoff = time.Second
		}

		select {
		case <-ctx.Done():
			w.drain(context.Background())
			return
		default:
		}
	}
}

// runOnce drains and writes a single batch. Returns false if it recovered
// from a panic, so Run can back off before trying again.
func (w *Writer) runOnce(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.log.WithField("panic", r).Error("collector writer: recovered from panic, restarting loop")
			ok = false
			w.sleep(ctx, w.nextBackoff())
		}
	}()

	batchSize := w.cfg.DBBatchSize
	if batchSize < 1 {
		batchSize = 500
	}

	spans, drained := w.buf.Drain(batchSize)
	if !drained {
		return true
	}
	if len(spans) == 0 {
		return true
	}

	w.writeBatch(ctx, spans)
	return true
}

func (w *Writer) writeBatch(ctx context.Context, spans []entity.Span) {
	timeout := time.Duration(w.cfg.DBWriteTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	err := w.repo.InsertBatch(writeCtx, spans)
	cancel()

	if err == nil {
		w.connected.Store(true)
		w.batches.Add(1)
		return
	}

	appErr, isApp := err.(*apperror.AppError)
	retryable := isApp && appErr.IsRetryable()
	w.connected.Store(false)

	if retryable {
		w.log.WithField("count", len(spans)).WithField("error", err.Error()).
			Warn("collector writer: transient failure, retrying before re-enqueue")
	} else {
		w.log.WithField("count", len(spans)).WithField("error", err.Error()).
			Warn("collector writer: permanent failure, retrying once before dropping")
	}

	interval := time.Duration(w.cfg.DBRetryIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	w.sleep(ctx, interval)

	retryCtx, retryCancel := context.WithTimeout(ctx, timeout)
	retryErr := w.repo.InsertBatch(retryCtx, spans)
	retryCancel()

	if retryErr == nil {
		w.connected.Store(true)
		w.batches.Add(1)
		return
	}

	if retryable {
		w.log.WithField("count", len(spans)).WithField("error", retryErr.Error()).
			Warn("collector writer: retry failed, re-enqueueing at buffer head")
		w.buf.EnqueueFront(spans)
		w.sleep(ctx, interval)
		return
	}

	w.log.WithField("count", len(spans)).WithField("error", retryErr.Error()).
		Error("collector writer: retry failed, dropping batch")
}

// drain flushes whatever remains in the buffer within the configured
// shutdown deadline, best-effort, for graceful shutdown per spec §4.3.
func (w *Writer) drain(parent context.Context) {
	deadline := time.Duration(w.cfg.ShutdownDrainSeconds) * time.Second
	if deadline <= 0 {
		deadline = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(parent, deadline)
	defer cancel()

	w.buf.Close()
	batchSize := w.cfg.DBBatchSize
	if batchSize < 1 {
		batchSize = 500
	}

	for {
		select {
		case <-ctx.Done():
			remaining := w.buf.Len()
			if remaining > 0 {
				w.log.WithField("remaining", remaining).Warn("collector writer: shutdown deadline reached, spans left undrained")
			}
			return
		default:
		}

		spans, ok := w.buf.Drain(batchSize)
		if !ok {
			return
		}
		if len(spans) == 0 {
			continue
		}
		w.writeBatch(ctx, spans)
	}
}

func (w *Writer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (w *Writer) nextBackoff() time.Duration {
	d := w.backoff
	w.backoff *= 2
	if w.backoff > time.Minute {
		w.backoff = time.Minute
	}
	return d
}

// Done returns a channel closed once Run has returned.
func (w *Writer) Done() <-chan struct{} { return w.stopped }

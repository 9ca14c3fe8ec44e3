package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of processes captured at once.
const DefaultConcurrency = 4

// BatchCapturer captures several processes concurrently.
// Every capture owns its own visited-set and tree, so captures never share
// mutable state; only the result slice is synchronized.
type BatchCapturer struct {
	capturer    *Capturer
	concurrency int
	logger      *slog.Logger

	results []*Result
	mu      sync.Mutex
}

// BatchOption configures a BatchCapturer.
type BatchOption func(*BatchCapturer)

// WithBatchLogger sets a custom logger for batch capture.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchCapturer) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent captures.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchCapturer) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchCapturer creates a BatchCapturer around c.
func NewBatchCapturer(c *Capturer, opts ...BatchOption) *BatchCapturer {
	b := &BatchCapturer{
		capturer:    c,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// CaptureBatch captures every pid and returns one Result per pid, in input
// order. A failed capture is reported in its Result's Err and does not stop
// the others; the returned error is only set when ctx is cancelled.
func (b *BatchCapturer) CaptureBatch(ctx context.Context, pids []int) ([]*Result, error) {
	b.logger.Info("starting batch capture",
		"total_processes", len(pids),
		"concurrency", b.concurrency,
	)
	startTime := time.Now()

	b.mu.Lock()
	b.results = make([]*Result, len(pids))
	b.mu.Unlock()

	err := b.CaptureBatchWithCallback(ctx, pids, func(r *Result, index int) {
		b.mu.Lock()
		b.results[index] = r
		b.mu.Unlock()
	})

	b.logger.Info("batch capture complete",
		"total_processes", len(pids),
		"elapsed", time.Since(startTime),
	)

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results, err
}

// CaptureBatchWithCallback captures every pid and calls callback for each
// finished capture with the pid's index in pids. The callback is called from
// the capturing goroutine and must be safe for concurrent use.
func (b *BatchCapturer) CaptureBatchWithCallback(
	ctx context.Context,
	pids []int,
	callback func(result *Result, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, pid := range pids {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result, err := b.capturer.Capture(ctx, pid)
			if err != nil {
				b.logger.Warn("capture failed",
					"pid", pid,
					"error", err,
				)
				// Other captures continue; the error is kept in the result.
				result = &Result{PID: pid, Err: err}
			} else {
				b.logger.Debug("capture completed",
					"pid", pid,
					"nodes", result.Stats.Nodes,
				)
			}

			callback(result, i)
			return nil
		})
	}

	return g.Wait()
}

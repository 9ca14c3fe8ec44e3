package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/inspect/memtree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fixture = `
processes:
  1: app
  2: other
elements:
  app:
    attributes: {AXRole: AXApplication, AXTitle: Demo}
    children: [win]
  win:
    attributes: {AXRole: AXWindow, AXTitle: Main}
    children: [app, broken]
  broken:
    attributes: {AXRole: AXButton}
    errors:
      attributes: {AXTitle: cannot complete}
  other:
    attributes: {AXRole: AXApplication, AXTitle: Other}
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, doc string) *memtree.Tree {
	t.Helper()
	tree, err := memtree.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("memtree.Load() error = %v", err)
	}
	return tree
}

// TestCapture tests single-process capture.
func TestCapture(t *testing.T) {
	t.Parallel()

	t.Run("captures tree with statistics", func(t *testing.T) {
		t.Parallel()

		tree := loadFixture(t, fixture)
		res, err := Capture(context.Background(), tree, 1, config.Summarized(), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
		if res.PID != 1 {
			t.Errorf("unexpected pid %d", res.PID)
		}
		// app, win, cycle leaf, broken
		if res.Stats.Nodes != 4 || res.Stats.Depth != 3 {
			t.Errorf("unexpected shape stats %+v", res.Stats)
		}
		if res.Stats.Diagnostics != 2 || res.Stats.Cycles != 1 {
			t.Errorf("unexpected diagnostic stats %+v", res.Stats)
		}
	})

	t.Run("unauthorized boundary is fatal", func(t *testing.T) {
		t.Parallel()

		tree := loadFixture(t, "authorized: false\n"+fixture)
		res, err := Capture(context.Background(), tree, 1, config.Summarized(), WithLogger(quietLogger()))
		if !errors.Is(err, inspect.ErrNotAuthorized) {
			t.Errorf("expected ErrNotAuthorized, got %v", err)
		}
		if res != nil {
			t.Error("expected no partial result")
		}
	})

	t.Run("unknown process is fatal", func(t *testing.T) {
		t.Parallel()

		tree := loadFixture(t, fixture)
		_, err := Capture(context.Background(), tree, 99, config.All(), WithLogger(quietLogger()))
		if !errors.Is(err, inspect.ErrNoSuchProcess) {
			t.Errorf("expected ErrNoSuchProcess, got %v", err)
		}
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := config.All()
		cfg.MaxDepth = -1
		_, err := Capture(context.Background(), loadFixture(t, fixture), 1, cfg, WithLogger(quietLogger()))
		if !errors.Is(err, config.ErrInvalidMaxDepth) {
			t.Errorf("expected ErrInvalidMaxDepth, got %v", err)
		}
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Capture(ctx, loadFixture(t, fixture), 1, config.All(), WithLogger(quietLogger()))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("max depth limits the tree", func(t *testing.T) {
		t.Parallel()

		res, err := Capture(context.Background(), loadFixture(t, fixture), 1, config.All(),
			WithLogger(quietLogger()), WithMaxDepth(1))
		if err != nil {
			t.Fatalf("Capture() error = %v", err)
		}
		if res.Stats.Nodes != 1 {
			t.Errorf("expected root only, got %d nodes", res.Stats.Nodes)
		}
	})
}

// TestBatchCapturer tests concurrent capture of several processes.
func TestBatchCapturer(t *testing.T) {
	t.Parallel()

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		b := NewBatchCapturer(New(loadFixture(t, fixture), config.All()), WithConcurrency(0))
		if b.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, b.concurrency)
		}
	})

	t.Run("results keep input order and per-process errors", func(t *testing.T) {
		t.Parallel()

		c := New(loadFixture(t, fixture), config.Summarized(), WithLogger(quietLogger()))
		b := NewBatchCapturer(c, WithConcurrency(2), WithBatchLogger(quietLogger()))

		results, err := b.CaptureBatch(context.Background(), []int{2, 99, 1})
		if err != nil {
			t.Fatalf("CaptureBatch() error = %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if results[0].PID != 2 || results[0].Err != nil || results[0].Stats.Nodes != 1 {
			t.Errorf("unexpected first result %+v", results[0])
		}
		if !errors.Is(results[1].Err, inspect.ErrNoSuchProcess) {
			t.Errorf("expected ErrNoSuchProcess, got %v", results[1].Err)
		}
		if results[2].PID != 1 || results[2].Stats.Nodes != 4 {
			t.Errorf("unexpected third result %+v", results[2])
		}
	})

	t.Run("callback is called once per process", func(t *testing.T) {
		t.Parallel()

		c := New(loadFixture(t, fixture), config.All(), WithLogger(quietLogger()))
		b := NewBatchCapturer(c, WithBatchLogger(quietLogger()))

		var calls atomic.Int32
		pids := []int{1, 2, 1, 2, 1}
		err := b.CaptureBatchWithCallback(context.Background(), pids, func(r *Result, index int) {
			if r.PID != pids[index] {
				t.Errorf("result for pid %d delivered at index %d", r.PID, index)
			}
			calls.Add(1)
		})
		if err != nil {
			t.Fatalf("CaptureBatchWithCallback() error = %v", err)
		}
		if calls.Load() != int32(len(pids)) {
			t.Errorf("expected %d callbacks, got %d", len(pids), calls.Load())
		}
	})

	t.Run("cancelled batch reports the context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		b := NewBatchCapturer(New(loadFixture(t, fixture), config.All(), WithLogger(quietLogger())),
			WithBatchLogger(quietLogger()))
		if _, err := b.CaptureBatch(ctx, []int{1, 2}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/axtree/internal/collector"
	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/model"
)

// Stats summarizes one capture.
type Stats struct {
	collector.Stats

	// Nodes is the number of nodes in the normalized tree.
	Nodes int

	// Diagnostics is the number of nodes carrying diagnostic attributes,
	// cycle leaves included.
	Diagnostics int

	// Depth is the number of levels in the normalized tree.
	Depth int

	// Elapsed is the wall time of the capture.
	Elapsed time.Duration
}

// Result is the outcome of capturing one process.
type Result struct {
	PID   int
	Tree  *model.Node
	Stats Stats

	// Err is set by batch captures when this process failed.
	Err error
}

// Capturer captures normalized trees of running processes.
// It is safe for concurrent use.
type Capturer struct {
	inspector inspect.Inspector
	cfg       config.Config
	logger    *slog.Logger
	maxDepth  int
	timeout   time.Duration
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Capturer) {
		c.logger = logger
	}
}

// WithMaxDepth limits the collected depth. 0 means no limit.
func WithMaxDepth(depth int) Option {
	return func(c *Capturer) {
		c.maxDepth = depth
	}
}

// WithTimeout bounds each capture. The boundary calls themselves are not
// interruptible, so the deadline is observed between elements.
func WithTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		c.timeout = d
	}
}

// New creates a Capturer.
func New(in inspect.Inspector, cfg config.Config, opts ...Option) *Capturer {
	c := &Capturer{
		inspector: in,
		cfg:       cfg.Clone(),
		maxDepth:  cfg.MaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Capture collects the normalized tree of one process.
//
// Authorization denial, an unknown process and cancellation are the only
// errors; boundary failures inside the tree are embedded as diagnostics.
func (c *Capturer) Capture(ctx context.Context, pid int) (*Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.inspector.IsAuthorized(ctx) {
		return nil, fmt.Errorf("capture pid %d: %w", pid, inspect.ErrNotAuthorized)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	root, err := c.inspector.RootElement(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root element of pid %d: %w", pid, err)
	}

	col := collector.New(c.inspector, c.cfg,
		collector.WithLogger(c.logger.With("pid", pid)),
		collector.WithMaxDepth(c.maxDepth),
	)
	tree, cstats, err := col.Collect(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("capture pid %d: %w", pid, err)
	}

	return &Result{
		PID:   pid,
		Tree:  tree,
		Stats: Summarize(tree, cstats, time.Since(start)),
	}, nil
}

// Summarize computes capture statistics of a normalized tree.
func Summarize(tree *model.Node, cstats collector.Stats, elapsed time.Duration) Stats {
	s := Stats{
		Stats:   cstats,
		Nodes:   tree.Count(),
		Depth:   tree.Depth(),
		Elapsed: elapsed,
	}
	tree.Walk(func(_ int, n *model.Node) {
		if n.HasDiagnostics() {
			s.Diagnostics++
		}
	})
	return s
}

// Capture is a convenience for New(in, cfg, opts...).Capture(ctx, pid).
func Capture(ctx context.Context, in inspect.Inspector, pid int, cfg config.Config, opts ...Option) (*Result, error) {
	return New(in, cfg, opts...).Capture(ctx, pid)
}

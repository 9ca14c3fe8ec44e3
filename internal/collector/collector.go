package collector

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/model"
	"github.com/nao1215/axtree/internal/pipeline"
	"github.com/nao1215/axtree/internal/stringify"
)

// Collector walks an introspection boundary and builds a normalized tree.
//
// A Collector holds no per-walk state, so one value can serve concurrent
// Collect calls. Each call owns its visited-set and output tree.
type Collector struct {
	inspector inspect.Inspector
	cfg       config.Config
	pipeline  *pipeline.Pipeline
	logger    *slog.Logger
	maxDepth  int

	// wanted is the case-folded allow-list, nil when every attribute is fetched.
	wanted map[string]bool
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets a custom logger for the collector.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithMaxDepth limits how many levels are collected. 1 collects only the
// root, 0 means no limit. It overrides the configuration's MaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *Collector) {
		if depth >= 0 {
			c.maxDepth = depth
		}
	}
}

// New creates a Collector for the given boundary and configuration.
func New(in inspect.Inspector, cfg config.Config, opts ...Option) *Collector {
	c := &Collector{
		inspector: in,
		cfg:       cfg.Clone(),
		maxDepth:  cfg.MaxDepth,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pipeline = pipeline.New(c.cfg, pipeline.WithLogger(c.logger))

	if keys := c.cfg.FetchKeys(); keys != nil {
		caser := cases.Fold()
		c.wanted = make(map[string]bool, len(keys))
		for _, k := range keys {
			c.wanted[caser.String(k)] = true
		}
	}
	return c
}

// Stats describes one Collect call.
type Stats struct {
	// Visited is the number of distinct elements visited.
	Visited int

	// Cycles is the number of back-edges replaced by cycle leaves.
	Cycles int

	// Hidden is the number of elements excluded as hidden.
	Hidden int

	// PrunedRoles is the number of elements whose children were skipped by role.
	PrunedRoles int

	// DepthLimited is the number of elements whose children were skipped by depth.
	DepthLimited int

	// AttributeFailures counts attribute-name and attribute-value failures.
	AttributeFailures int

	// ChildrenFailures counts failed child enumerations.
	ChildrenFailures int

	// BulkFallbacks counts bulk fetches that fell back to single fetches.
	BulkFallbacks int
}

// walk is the state of one Collect call.
type walk struct {
	visited map[inspect.Identity]bool
	stats   Stats
}

// Collect walks the tree below root. Boundary failures become diagnostic
// attributes; only context cancellation aborts the walk, in which case no
// partial tree is returned. The result is never nil: an excluded or pruned
// root yields an empty node.
func (c *Collector) Collect(ctx context.Context, root inspect.Element) (*model.Node, Stats, error) {
	c.logger.Info("collecting tree",
		"mode", c.cfg.Mode.Name(),
		"max_depth", c.maxDepth,
	)

	w := &walk{visited: make(map[inspect.Identity]bool)}
	node, err := c.visit(ctx, w, root, 0)
	if err != nil {
		return nil, w.stats, err
	}
	if node == nil {
		node = model.Empty()
	}

	c.logger.Info("tree collected",
		"visited", w.stats.Visited,
		"cycles", w.stats.Cycles,
		"attribute_failures", w.stats.AttributeFailures,
		"children_failures", w.stats.ChildrenFailures,
	)
	return node, w.stats, nil
}

func (c *Collector) visit(ctx context.Context, w *walk, el inspect.Element, depth int) (*model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := c.inspector.Identity(el)
	if w.visited[id] {
		w.stats.Cycles++
		return c.pipeline.Process(model.CycleLeaf()), nil
	}
	w.visited[id] = true
	w.stats.Visited++

	names, err := c.inspector.AttributeNames(ctx, el)
	if err != nil && !isUnsupported(err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		w.stats.AttributeFailures++
		c.logger.Debug("attribute names failed", "element", id, "error", err)
		return c.pipeline.Process(model.NewNode(map[string]string{
			model.AttrErrorAttributeNames: err.Error(),
		}, nil)), nil
	}

	attrs, err := c.attributes(ctx, w, el, c.selectNames(names))
	if err != nil {
		return nil, err
	}
	raw := model.NewNode(attrs, nil)

	if !c.cfg.IncludeHidden && c.isHidden(raw) {
		w.stats.Hidden++
		return nil, nil
	}

	var children []*model.Node
	switch {
	case c.isPruned(raw):
		w.stats.PrunedRoles++
	case c.maxDepth > 0 && depth+1 >= c.maxDepth:
		w.stats.DepthLimited++
	default:
		kids, err := c.children(ctx, el)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			w.stats.ChildrenFailures++
			c.logger.Debug("children failed", "element", id, "error", err)
			attrs[model.AttrErrorChildren] = err.Error()
		}
		for _, kid := range kids {
			child, err := c.visit(ctx, w, kid, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
	}

	return c.pipeline.Process(model.NewNode(attrs, children)), nil
}

// selectNames intersects the available names with the allow-list, ignoring
// case. Duplicate names are removed and the result is sorted.
func (c *Collector) selectNames(names []string) []string {
	caser := cases.Fold()
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" || seen[name] {
			continue
		}
		seen[name] = true
		if c.wanted != nil && !c.wanted[caser.String(name)] {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// attributes fetches and stringifies the named attributes. Absent values and
// values that stringify to blank text are skipped; failures become
// error.attribute.<name> diagnostics.
func (c *Collector) attributes(ctx context.Context, w *walk, el inspect.Element, names []string) (map[string]string, error) {
	results := c.fetch(ctx, w, el, names)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(names))
	for _, name := range names {
		r := results[name]
		if r.Err != nil {
			if inspect.IsAbsent(r.Err) {
				continue
			}
			w.stats.AttributeFailures++
			attrs[model.AttrErrorAttributePrefix+name] = r.Err.Error()
			continue
		}
		s := stringify.String(r.Value)
		if strings.TrimSpace(s) == "" {
			continue
		}
		attrs[name] = s
	}
	return attrs, nil
}

// fetch retrieves attribute values, in bulk when the boundary supports it.
// A failed bulk call falls back to one call per attribute; names missing
// from a successful bulk result are fetched singly.
func (c *Collector) fetch(ctx context.Context, w *walk, el inspect.Element, names []string) map[string]inspect.AttributeResult {
	results := make(map[string]inspect.AttributeResult, len(names))
	if len(names) == 0 {
		return results
	}

	if bulk, ok := c.inspector.(inspect.BulkFetcher); ok {
		got, err := bulk.AttributeValues(ctx, el, names)
		if err == nil {
			for name, r := range got {
				results[name] = r
			}
		} else {
			w.stats.BulkFallbacks++
			c.logger.Debug("bulk fetch failed, falling back", "error", err)
		}
	}

	for _, name := range names {
		if _, ok := results[name]; ok {
			continue
		}
		v, err := c.inspector.AttributeValue(ctx, el, name)
		results[name] = inspect.AttributeResult{Value: v, Err: err}
	}
	return results
}

// children enumerates child elements, preferring the visible-children
// relation when hidden elements are excluded.
func (c *Collector) children(ctx context.Context, el inspect.Element) ([]inspect.Element, error) {
	visibleOnly := !c.cfg.IncludeHidden
	kids, err := c.inspector.Children(ctx, el, visibleOnly)
	if visibleOnly && errors.Is(err, inspect.ErrUnsupported) {
		kids, err = c.inspector.Children(ctx, el, false)
	}
	if errors.Is(err, inspect.ErrUnsupported) {
		return nil, nil
	}
	return kids, err
}

func (c *Collector) isHidden(n *model.Node) bool {
	v, ok := n.FirstAttribute(c.cfg.HiddenKeys)
	return ok && inspect.IsTruthy(v)
}

func (c *Collector) isPruned(n *model.Node) bool {
	if role, ok := n.FirstAttribute(c.cfg.RoleKeys); ok && c.cfg.IsPrunedRole(role) {
		return true
	}
	sub, ok := n.FirstAttribute(c.cfg.SubroleKeys)
	return ok && c.cfg.IsPrunedRole(sub)
}

func isUnsupported(err error) bool {
	return errors.Is(err, inspect.ErrUnsupported) || errors.Is(err, inspect.ErrAttributeUnsupported)
}

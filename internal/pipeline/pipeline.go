package pipeline

import (
	"log/slog"

	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/model"
)

// Step is one stage of per-node processing.
// Apply receives a node whose children were already processed and returns the
// node to keep, or nil to drop it. Steps never mutate their input.
type Step interface {
	// Apply executes the step on a single node.
	Apply(node *model.Node) *model.Node

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs the filter/prune steps of a configuration in their fixed
// order: canonical build, structural stripping, text-ancestor filtering,
// leaf pruning.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates the pipeline for cfg. Steps whose knob is off are not added.
func New(cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	if o, ok := cfg.Options(); ok {
		p.steps = append(p.steps, NewCanonicalStep(o))
	}
	if cfg.StripStructural {
		p.steps = append(p.steps, NewStructuralStep(cfg.RoleBearingKeys(), cfg.TextBearingKeys()))
	}
	if cfg.TextNodesOnly {
		p.steps = append(p.steps, NewTextAncestorStep(cfg.TextBearingKeys()))
	}
	if cfg.PruneEmptyLeaves {
		p.steps = append(p.steps, LeafPruneStep{})
	}
	return p
}

// Process applies every step to one node whose children are already
// processed. It returns nil when the node is dropped.
func (p *Pipeline) Process(node *model.Node) *model.Node {
	if node == nil {
		return nil
	}
	for _, step := range p.steps {
		next := step.Apply(node)
		if next == nil {
			p.logger.Debug("node dropped",
				"step", step.Name(),
				"attributes", node.Len(),
				"children", node.ChildCount(),
			)
			return nil
		}
		node = next
	}
	return node
}

// Normalize re-runs the per-node processing bottom-up over a whole tree.
// A dropped root becomes an empty node, so the result is never nil.
func (p *Pipeline) Normalize(tree *model.Node) *model.Node {
	if out := p.normalize(tree); out != nil {
		return out
	}
	return model.Empty()
}

func (p *Pipeline) normalize(n *model.Node) *model.Node {
	if n == nil {
		return nil
	}
	children := n.Children()
	kept := make([]*model.Node, 0, len(children))
	for _, c := range children {
		if out := p.normalize(c); out != nil {
			kept = append(kept, out)
		}
	}
	return p.Process(model.NewNode(n.Attributes(), kept))
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Normalize is a convenience for New(cfg).Normalize(tree).
func Normalize(tree *model.Node, cfg config.Config) *model.Node {
	return New(cfg).Normalize(tree)
}

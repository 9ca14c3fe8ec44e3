package pipeline

import (
	"strings"

	"github.com/nao1215/axtree/internal/config"
	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/model"
	"github.com/nao1215/axtree/internal/stringify"
)

// CanonicalStep reduces a node's attributes to the summarized vocabulary.
// Diagnostic attributes are carried over unchanged.
type CanonicalStep struct {
	opts config.SummarizedOptions

	roleKeys       []string
	textKeys       []string
	identifierKeys []string
	enabledKeys    []string
	focusedKeys    []string
}

// NewCanonicalStep creates a CanonicalStep. Each candidate list is extended
// with its canonical key, so already-summarized nodes map onto themselves.
func NewCanonicalStep(opts config.SummarizedOptions) *CanonicalStep {
	return &CanonicalStep{
		opts:           opts,
		roleKeys:       withCanonical(opts.RoleKeys, model.KeyRole),
		textKeys:       withCanonical(opts.TextKeys, model.KeyText),
		identifierKeys: withCanonical(opts.IdentifierKeys, model.KeyIdentifier),
		enabledKeys:    withCanonical(opts.EnabledKeys, model.KeyEnabled),
		focusedKeys:    withCanonical(opts.FocusedKeys, model.KeyFocused),
	}
}

// Name returns the step name.
func (s *CanonicalStep) Name() string {
	return "canonical"
}

// Apply builds the canonical attribute set.
func (s *CanonicalStep) Apply(n *model.Node) *model.Node {
	attrs := n.Diagnostics()

	if role, ok := n.FirstAttribute(s.roleKeys); ok {
		if !s.opts.DropGroupRole || !s.opts.IsGroupRole(role) {
			attrs[model.KeyRole] = role
		}
	}
	if id, ok := n.FirstAttribute(s.identifierKeys); ok {
		attrs[model.KeyIdentifier] = id
	}
	if parts := n.AllAttributes(s.textKeys); len(parts) > 0 {
		text := stringify.CollapseWhitespace(strings.Join(parts, " "))
		if text != "" {
			attrs[model.KeyText] = s.summarize(n, text)
		}
	}
	if s.opts.IncludeFrame {
		for k, v := range frameOf(n, s.opts.PositionKeys, s.opts.SizeKeys) {
			attrs[k] = v
		}
	}
	if v, ok := n.FirstAttribute(s.enabledKeys); ok {
		if out, emit := emitBool(v, s.opts.EmitEnabledOnlyWhenFalse, false); emit {
			attrs[model.KeyEnabled] = out
		}
	}
	if v, ok := n.FirstAttribute(s.focusedKeys); ok {
		if out, emit := emitBool(v, s.opts.EmitFocusedOnlyWhenTrue, true); emit {
			attrs[model.KeyFocused] = out
		}
	}
	return n.WithAttributes(attrs)
}

// summarize bounds text to the text budget. Text of a node that is already
// in the canonical vocabulary and carries a well-formed summary is kept, so a
// second pass does not cut the suffix again.
func (s *CanonicalStep) summarize(n *model.Node, text string) string {
	if isCanonical(n) && stringify.IsSummarized(text, s.opts.TextBudget) {
		return text
	}
	return stringify.Summarize(text, s.opts.TextBudget)
}

func isCanonical(n *model.Node) bool {
	for _, k := range n.Keys() {
		if !model.IsCanonicalKey(k) && !model.IsDiagnosticKey(k) {
			return false
		}
	}
	return true
}

// emitBool decides whether a boolean field is emitted. With onlyWhen set the
// field is emitted only when it equals want; otherwise any recognizable
// boolean is emitted in canonical form.
func emitBool(raw string, onlyWhen, want bool) (string, bool) {
	truthy, falsy := inspect.IsTruthy(raw), inspect.IsFalsy(raw)
	if !truthy && !falsy {
		return "", false
	}
	if onlyWhen && truthy != want {
		return "", false
	}
	if truthy {
		return "true", true
	}
	return "false", true
}

// StructuralStep clears the attributes of nodes that carry neither a role
// nor text, turning them into pure grouping nodes.
type StructuralStep struct {
	roleKeys []string
	textKeys []string
}

// NewStructuralStep creates a StructuralStep.
func NewStructuralStep(roleKeys, textKeys []string) *StructuralStep {
	return &StructuralStep{roleKeys: roleKeys, textKeys: textKeys}
}

// Name returns the step name.
func (s *StructuralStep) Name() string {
	return "structural"
}

// Apply strips a structural node, keeping diagnostics.
func (s *StructuralStep) Apply(n *model.Node) *model.Node {
	if _, ok := n.FirstAttribute(s.roleKeys); ok {
		return n
	}
	if _, ok := n.FirstAttribute(s.textKeys); ok {
		return n
	}
	diag := n.Diagnostics()
	if len(diag) == n.Len() {
		return n
	}
	return n.WithAttributes(diag)
}

// TextAncestorStep keeps only text-bearing nodes and their ancestors.
type TextAncestorStep struct {
	textKeys []string
}

// NewTextAncestorStep creates a TextAncestorStep.
func NewTextAncestorStep(textKeys []string) *TextAncestorStep {
	return &TextAncestorStep{textKeys: textKeys}
}

// Name returns the step name.
func (s *TextAncestorStep) Name() string {
	return "text_ancestor"
}

// Apply drops nodes with no text and no retained children.
func (s *TextAncestorStep) Apply(n *model.Node) *model.Node {
	if n.ChildCount() > 0 || n.HasDiagnostics() {
		return n
	}
	if _, ok := n.FirstAttribute(s.textKeys); ok {
		return n
	}
	return nil
}

// LeafPruneStep drops nodes with neither attributes nor children.
type LeafPruneStep struct{}

// Name returns the step name.
func (LeafPruneStep) Name() string {
	return "leaf_prune"
}

// Apply drops empty leaves.
func (LeafPruneStep) Apply(n *model.Node) *model.Node {
	if n.IsEmpty() {
		return nil
	}
	return n
}

func withCanonical(candidates []string, canonical string) []string {
	out := make([]string, 0, len(candidates)+1)
	out = append(out, candidates...)
	for _, k := range candidates {
		if strings.EqualFold(k, canonical) {
			return out
		}
	}
	return append(out, canonical)
}

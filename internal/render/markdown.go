package render

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/axtree/internal/model"
)

// DefaultMarkdownTitle is the digest heading.
const DefaultMarkdownTitle = "Accessibility Tree"

// maxPieSlices bounds the role chart; smaller roles are grouped as "other".
const maxPieSlices = 8

// roleKeys are looked up to label nodes in the role chart.
var roleKeys = []string{model.KeyRole, "AXRole"}

// MarkdownWriter outputs a human-readable digest: a summary table, a role
// distribution chart and the YAML rendering in a fenced block.
type MarkdownWriter struct {
	baseWriter
	title string
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithTitle sets the digest heading.
func WithTitle(title string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if title != "" {
			w.title = title
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      DefaultMarkdownTitle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Digest summarizes a tree for the Markdown header.
type Digest struct {
	Nodes       int
	Depth       int
	Diagnostics int
	Cycles      int
	// Roles counts nodes per role; nodes without a role are not counted.
	Roles map[string]int
}

// Summarize computes the Digest of a tree.
func Summarize(tree *model.Node) Digest {
	d := Digest{Roles: make(map[string]int)}
	if tree == nil {
		return d
	}
	d.Nodes = tree.Count()
	d.Depth = tree.Depth()
	tree.Walk(func(_ int, n *model.Node) {
		if n.HasDiagnostics() {
			d.Diagnostics++
		}
		if _, ok := n.Attribute(model.AttrCycle); ok {
			d.Cycles++
		}
		if role, ok := n.FirstAttribute(roleKeys); ok {
			d.Roles[role]++
		}
	})
	return d
}

// Write outputs the digest in Markdown format.
func (w *MarkdownWriter) Write(tree *model.Node) (int, error) {
	md := markdown.NewMarkdown(w.output)
	digest := Summarize(tree)

	md.H1(w.title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Nodes", strconv.Itoa(digest.Nodes)},
			{"Depth", strconv.Itoa(digest.Depth)},
			{"Diagnostic nodes", strconv.Itoa(digest.Diagnostics)},
			{"Cycle leaves", strconv.Itoa(digest.Cycles)},
		},
	})
	md.PlainText("")

	if len(digest.Roles) > 0 {
		w.writePieChart(md, digest)
	}

	if digest.Diagnostics > 0 {
		md.Warningf("%d node(s) carry diagnostics; the boundary failed for part of the tree.", digest.Diagnostics)
	} else {
		md.Tip("The tree was collected without boundary failures.")
	}
	md.PlainText("")

	md.H2("Tree")
	md.PlainText("")
	body, err := EncodeYAML(ToValue(tree))
	if err != nil {
		return 0, err
	}
	md.CodeBlocks(markdown.SyntaxHighlight("yaml"), string(body))

	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of the role distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, digest Digest) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Role Distribution"),
		piechart.WithShowData(true),
	)

	type slice struct {
		role  string
		count int
	}
	slices := make([]slice, 0, len(digest.Roles))
	for role, count := range digest.Roles {
		slices = append(slices, slice{role: role, count: count})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].count != slices[j].count {
			return slices[i].count > slices[j].count
		}
		return slices[i].role < slices[j].role
	})

	other := 0
	for i, s := range slices {
		if i >= maxPieSlices {
			other += s.count
			continue
		}
		chart.LabelAndIntValue(s.role, uint64(s.count))
	}
	if other > 0 {
		chart.LabelAndIntValue("other", uint64(other))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

package htmldom

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/axtree/internal/inspect"
	"github.com/nao1215/axtree/internal/stringify"
)

// DefaultPID is the process id a Document answers to unless WithPID is used.
const DefaultPID = 1

// Element names that never become UI elements.
var skippedElements = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
	"meta":     true,
	"link":     true,
	"title":    true,
	"br":       true,
}

// roleByTag maps HTML elements to accessibility roles.
var roleByTag = map[string]string{
	"a":        "AXLink",
	"button":   "AXButton",
	"textarea": "AXTextArea",
	"select":   "AXPopUpButton",
	"option":   "AXMenuItem",
	"img":      "AXImage",
	"h1":       "AXHeading",
	"h2":       "AXHeading",
	"h3":       "AXHeading",
	"h4":       "AXHeading",
	"h5":       "AXHeading",
	"h6":       "AXHeading",
	"ul":       "AXList",
	"ol":       "AXList",
	"table":    "AXTable",
	"tr":       "AXRow",
	"td":       "AXCell",
	"th":       "AXCell",
	"p":        "AXStaticText",
	"span":     "AXStaticText",
	"label":    "AXStaticText",
	"strong":   "AXStaticText",
	"em":       "AXStaticText",
	"dialog":   "AXSheet",
	"progress": "AXProgressIndicator",
}

// roleByARIA maps ARIA roles to accessibility roles.
var roleByARIA = map[string]string{
	"button":       "AXButton",
	"link":         "AXLink",
	"menubar":      "AXMenuBar",
	"menu":         "AXMenu",
	"menuitem":     "AXMenuItem",
	"checkbox":     "AXCheckBox",
	"radio":        "AXRadioButton",
	"textbox":      "AXTextField",
	"dialog":       "AXSheet",
	"heading":      "AXHeading",
	"list":         "AXList",
	"img":          "AXImage",
	"group":        "AXGroup",
	"presentation": "AXGroup",
	"none":         "AXGroup",
	"toolbar":      "AXToolbar",
	"tab":          "AXRadioButton",
	"tablist":      "AXTabGroup",
}

// Roles whose text is a title rather than a value.
var titledRoles = map[string]bool{
	"AXButton":      true,
	"AXLink":        true,
	"AXHeading":     true,
	"AXMenuItem":    true,
	"AXWindow":      true,
	"AXCheckBox":    true,
	"AXRadioButton": true,
}

var formControls = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"option":   true,
}

// Handle is the element handle issued by a Document.
type Handle struct {
	node *html.Node
}

// ElementRef marks Handle as an element handle for the stringifier.
func (Handle) ElementRef() {}

// Option configures a Document.
type Option func(*Document)

// WithPID sets the process id the document answers to.
func WithPID(pid int) Option {
	return func(d *Document) {
		d.pid = pid
	}
}

// Document presents a parsed HTML document as an element tree.
//
// The document node is the application element and <body> its window.
// Elements named by aria-owns are adopted as extra children, so malformed
// markup can produce cycles. A Document is read-only after Parse.
type Document struct {
	pid   int
	root  *html.Node
	title string
	attrs map[*html.Node]map[string]any
	byID  map[string]*html.Node
}

// Parse parses HTML content into a Document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	d := &Document{
		pid:   DefaultPID,
		root:  root,
		attrs: make(map[*html.Node]map[string]any),
		byID:  make(map[string]*html.Node),
	}
	for _, opt := range opts {
		opt(d)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "title" && d.title == "" {
				d.title = stringify.CollapseWhitespace(innerText(n))
			}
			if id := getAttr(n, "id"); id != "" {
				if _, dup := d.byID[id]; !dup {
					d.byID[id] = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	d.index(root, nil)
	return d, nil
}

// IsAuthorized implements inspect.Inspector. Documents are always readable.
func (d *Document) IsAuthorized(context.Context) bool {
	return true
}

// RootElement implements inspect.Inspector.
func (d *Document) RootElement(_ context.Context, pid int) (inspect.Element, error) {
	if pid != d.pid {
		return nil, fmt.Errorf("pid %d: %w", pid, inspect.ErrNoSuchProcess)
	}
	return Handle{node: d.root}, nil
}

// AttributeNames implements inspect.Inspector.
func (d *Document) AttributeNames(_ context.Context, el inspect.Element) ([]string, error) {
	attrs, err := d.lookup(el)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AttributeValue implements inspect.Inspector.
func (d *Document) AttributeValue(_ context.Context, el inspect.Element, name string) (any, error) {
	attrs, err := d.lookup(el)
	if err != nil {
		return nil, err
	}
	v, ok := attrs[name]
	if !ok {
		return nil, inspect.ErrAttributeUnsupported
	}
	return v, nil
}

// AttributeValues implements inspect.BulkFetcher.
func (d *Document) AttributeValues(_ context.Context, el inspect.Element, names []string) (map[string]inspect.AttributeResult, error) {
	attrs, err := d.lookup(el)
	if err != nil {
		return nil, err
	}
	out := make(map[string]inspect.AttributeResult, len(names))
	for _, name := range names {
		v, ok := attrs[name]
		if !ok {
			out[name] = inspect.AttributeResult{Err: inspect.ErrAttributeUnsupported}
			continue
		}
		out[name] = inspect.AttributeResult{Value: v}
	}
	return out, nil
}

// Children implements inspect.Inspector.
func (d *Document) Children(_ context.Context, el inspect.Element, visibleOnly bool) ([]inspect.Element, error) {
	if _, err := d.lookup(el); err != nil {
		return nil, err
	}
	n := el.(Handle).node //nolint:forcetypeassert // checked by lookup

	var out []inspect.Element
	for _, c := range d.children(n) {
		if visibleOnly && isHidden(c) {
			continue
		}
		out = append(out, Handle{node: c})
	}
	return out, nil
}

// Identity implements inspect.Inspector.
func (d *Document) Identity(el inspect.Element) inspect.Identity {
	h, ok := el.(Handle)
	if !ok || h.node == nil {
		return ""
	}
	return inspect.Identity(fmt.Sprintf("%p", h.node))
}

func (d *Document) lookup(el inspect.Element) (map[string]any, error) {
	h, ok := el.(Handle)
	if !ok {
		return nil, inspect.ErrInvalidElement
	}
	attrs, ok := d.attrs[h.node]
	if !ok {
		return nil, inspect.ErrInvalidElement
	}
	return attrs, nil
}

// children returns the UI children of n: its element children (skipping
// non-visual elements and descending through <html>) followed by aria-owns
// targets.
func (d *Document) children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skippedElements[c.Data] {
			continue
		}
		if c.Data == "html" {
			out = append(out, d.children(c)...)
			continue
		}
		out = append(out, c)
	}
	if n.Type == html.ElementNode {
		for _, id := range strings.Fields(getAttr(n, "aria-owns")) {
			owned, ok := d.byID[id]
			if _, indexed := d.attrs[owned]; ok && indexed {
				out = append(out, owned)
			}
		}
	}
	return out
}

// index computes the attribute table of every reachable node.
func (d *Document) index(n, parent *html.Node) {
	if _, done := d.attrs[n]; done {
		return
	}
	d.attrs[n] = d.attributesOf(n, parent)

	next := n
	if n.Type == html.ElementNode && n.Data == "html" {
		next = parent
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !skippedElements[c.Data] {
			d.index(c, next)
		}
	}
}

func (d *Document) attributesOf(n, parent *html.Node) map[string]any {
	attrs := make(map[string]any)
	if parent != nil {
		attrs["AXParent"] = Handle{node: parent}
	}

	if n.Type == html.DocumentNode {
		attrs["AXRole"] = "AXApplication"
		if d.title != "" {
			attrs["AXTitle"] = d.title
		}
		return attrs
	}
	if n.Type != html.ElementNode {
		return attrs
	}
	if n.Data == "html" {
		attrs["AXRole"] = "AXGroup"
		return attrs
	}

	role := roleOf(n)
	attrs["AXRole"] = role
	if aria := strings.TrimSpace(getAttr(n, "role")); aria != "" {
		attrs["AXARIARole"] = aria
	}
	if n.Data == "body" && d.title != "" {
		attrs["AXTitle"] = d.title
	}

	if text := stringify.CollapseWhitespace(ownText(n)); text != "" {
		if titledRoles[role] {
			attrs["AXTitle"] = text
		} else {
			attrs["AXValue"] = text
		}
	}

	switch n.Data {
	case "input", "textarea":
		if v, ok := lookupAttr(n, "value"); ok {
			attrs["AXValue"] = v
		}
		if ph := getAttr(n, "placeholder"); ph != "" {
			attrs["AXPlaceholderValue"] = ph
		}
		if n.Data == "input" {
			switch strings.ToLower(getAttr(n, "type")) {
			case "checkbox", "radio":
				_, checked := lookupAttr(n, "checked")
				attrs["AXValue"] = checked
			case "password":
				attrs["AXSubrole"] = "AXSecureTextField"
				if v, ok := attrs["AXValue"].(string); ok {
					attrs["AXValue"] = strings.Repeat("•", utf8.RuneCountInString(v))
				}
			}
		}
	case "img":
		if alt := getAttr(n, "alt"); alt != "" {
			attrs["AXDescription"] = alt
		}
	case "progress":
		if v, err := strconv.ParseFloat(getAttr(n, "value"), 64); err == nil {
			attrs["AXValue"] = v
		}
	}

	if label := getAttr(n, "aria-label"); label != "" {
		attrs["AXDescription"] = label
	}
	if help := getAttr(n, "title"); help != "" {
		attrs["AXHelp"] = help
	}
	if id := getAttr(n, "id"); id != "" {
		attrs["AXIdentifier"] = id
		attrs["AXDOMIdentifier"] = id
	}
	if classes := strings.Fields(getAttr(n, "class")); len(classes) > 0 {
		attrs["AXDOMClassList"] = classes
	}
	if isHidden(n) {
		attrs["AXHidden"] = true
	}
	if formControls[n.Data] {
		_, disabled := lookupAttr(n, "disabled")
		attrs["AXEnabled"] = !disabled
	}
	if _, ok := lookupAttr(n, "autofocus"); ok {
		attrs["AXFocused"] = true
	}

	x, okX := numberAttr(n, "data-x")
	y, okY := numberAttr(n, "data-y")
	if okX && okY {
		attrs["AXPosition"] = inspect.Point{X: x, Y: y}
	}
	w, okW := numberAttr(n, "data-width")
	h, okH := numberAttr(n, "data-height")
	if okW && okH {
		attrs["AXSize"] = inspect.Size{Width: w, Height: h}
	}
	return attrs
}

func roleOf(n *html.Node) string {
	if aria := strings.ToLower(strings.TrimSpace(getAttr(n, "role"))); aria != "" {
		if role, ok := roleByARIA[aria]; ok {
			return role
		}
		return "AX" + cases.Title(language.Und).String(aria)
	}
	switch n.Data {
	case "body":
		return "AXWindow"
	case "input":
		switch strings.ToLower(getAttr(n, "type")) {
		case "checkbox":
			return "AXCheckBox"
		case "radio":
			return "AXRadioButton"
		case "button", "submit", "reset":
			return "AXButton"
		case "range":
			return "AXSlider"
		default:
			return "AXTextField"
		}
	}
	if role, ok := roleByTag[n.Data]; ok {
		return role
	}
	return "AXGroup"
}

func isHidden(n *html.Node) bool {
	if _, ok := lookupAttr(n, "hidden"); ok {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(getAttr(n, "aria-hidden")), "true") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(getAttr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// ownText returns the text of n's direct text children.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteString(" ")
		}
	}
	return b.String()
}

// innerText returns all descendant text of n.
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func numberAttr(n *html.Node, key string) (float64, bool) {
	v, ok := lookupAttr(n, key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

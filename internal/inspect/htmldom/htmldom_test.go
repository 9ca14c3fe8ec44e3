package htmldom

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/axtree/internal/inspect"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Sign in</title><script>var x = 1;</script></head>
<body>
  <nav role="menubar" id="menu"><a href="/">Home</a></nav>
  <h1 id="heading" data-x="10" data-y="20" data-width="300" data-height="40">Welcome</h1>
  <input id="user" placeholder="User name" autofocus>
  <button disabled class="primary wide">Continue</button>
  <div hidden>secret</div>
  <div id="loop" aria-owns="loop-child"><span id="loop-child" aria-owns="loop">x</span></div>
</body>
</html>`

func parsePage(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func children(t *testing.T, doc *Document, el inspect.Element, visibleOnly bool) []inspect.Element {
	t.Helper()
	out, err := doc.Children(context.Background(), el, visibleOnly)
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	return out
}

func attr(t *testing.T, doc *Document, el inspect.Element, name string) any {
	t.Helper()
	v, err := doc.AttributeValue(context.Background(), el, name)
	if err != nil {
		t.Fatalf("AttributeValue(%s) error = %v", name, err)
	}
	return v
}

// TestDocumentStructure tests how the DOM maps onto elements.
func TestDocumentStructure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("document is the application and body its window", func(t *testing.T) {
		t.Parallel()

		doc := parsePage(t)
		root, err := doc.RootElement(ctx, DefaultPID)
		if err != nil {
			t.Fatalf("RootElement() error = %v", err)
		}
		if got := attr(t, doc, root, "AXRole"); got != "AXApplication" {
			t.Errorf("root role = %v", got)
		}
		if got := attr(t, doc, root, "AXTitle"); got != "Sign in" {
			t.Errorf("root title = %v", got)
		}

		kids := children(t, doc, root, false)
		if len(kids) != 1 {
			t.Fatalf("expected body only, got %d children", len(kids))
		}
		if got := attr(t, doc, kids[0], "AXRole"); got != "AXWindow" {
			t.Errorf("body role = %v", got)
		}
		parent := attr(t, doc, kids[0], "AXParent")
		if doc.Identity(parent) != doc.Identity(root) {
			t.Error("expected body parent to be the document")
		}
	})

	t.Run("hidden elements are skipped by visible children", func(t *testing.T) {
		t.Parallel()

		doc := parsePage(t)
		root, _ := doc.RootElement(ctx, DefaultPID)
		body := children(t, doc, root, false)[0]

		if got := len(children(t, doc, body, false)); got != 6 {
			t.Errorf("expected 6 children, got %d", got)
		}
		if got := len(children(t, doc, body, true)); got != 5 {
			t.Errorf("expected 5 visible children, got %d", got)
		}
	})

	t.Run("aria-owns can form a cycle", func(t *testing.T) {
		t.Parallel()

		doc := parsePage(t)
		root, _ := doc.RootElement(ctx, DefaultPID)
		body := children(t, doc, root, false)[0]
		all := children(t, doc, body, false)
		loop := all[len(all)-1]

		span := children(t, doc, loop, false)
		// The span is both a DOM child and an owned element.
		if len(span) != 2 || doc.Identity(span[0]) != doc.Identity(span[1]) {
			t.Fatalf("unexpected loop children %v", span)
		}
		back := children(t, doc, span[0], false)
		if len(back) != 1 || doc.Identity(back[0]) != doc.Identity(loop) {
			t.Errorf("expected span to own its parent, got %v", back)
		}
	})

	t.Run("unknown pid is rejected", func(t *testing.T) {
		t.Parallel()

		doc, err := Parse(strings.NewReader(page), WithPID(99))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if _, err := doc.RootElement(ctx, DefaultPID); !errors.Is(err, inspect.ErrNoSuchProcess) {
			t.Errorf("expected ErrNoSuchProcess, got %v", err)
		}
		if _, err := doc.RootElement(ctx, 99); err != nil {
			t.Errorf("RootElement(99) error = %v", err)
		}
	})
}

// TestElementAttributes tests the attribute table of individual elements.
func TestElementAttributes(t *testing.T) {
	t.Parallel()

	doc := parsePage(t)
	ctx := context.Background()
	root, _ := doc.RootElement(ctx, DefaultPID)
	body := children(t, doc, root, false)[0]
	kids := children(t, doc, body, false)
	nav, heading, input, button := kids[0], kids[1], kids[2], kids[3]

	t.Run("aria role wins over tag", func(t *testing.T) {
		t.Parallel()

		if got := attr(t, doc, nav, "AXRole"); got != "AXMenuBar" {
			t.Errorf("nav role = %v", got)
		}
	})

	t.Run("heading carries title and geometry", func(t *testing.T) {
		t.Parallel()

		if got := attr(t, doc, heading, "AXTitle"); got != "Welcome" {
			t.Errorf("heading title = %v", got)
		}
		if got := attr(t, doc, heading, "AXPosition"); got != (inspect.Point{X: 10, Y: 20}) {
			t.Errorf("heading position = %v", got)
		}
		if got := attr(t, doc, heading, "AXSize"); got != (inspect.Size{Width: 300, Height: 40}) {
			t.Errorf("heading size = %v", got)
		}
	})

	t.Run("input exposes placeholder focus and enablement", func(t *testing.T) {
		t.Parallel()

		if got := attr(t, doc, input, "AXPlaceholderValue"); got != "User name" {
			t.Errorf("placeholder = %v", got)
		}
		if got := attr(t, doc, input, "AXFocused"); got != true {
			t.Errorf("focused = %v", got)
		}
		if got := attr(t, doc, input, "AXEnabled"); got != true {
			t.Errorf("enabled = %v", got)
		}
	})

	t.Run("disabled button with class list", func(t *testing.T) {
		t.Parallel()

		if got := attr(t, doc, button, "AXEnabled"); got != false {
			t.Errorf("enabled = %v", got)
		}
		if diff := cmp.Diff([]string{"primary", "wide"}, attr(t, doc, button, "AXDOMClassList")); diff != "" {
			t.Errorf("class list mismatch (-want +got):\n%s", diff)
		}
		if _, err := doc.AttributeValue(ctx, button, "AXPlaceholderValue"); !errors.Is(err, inspect.ErrAttributeUnsupported) {
			t.Errorf("expected ErrAttributeUnsupported, got %v", err)
		}
	})

	t.Run("bulk fetch mirrors single fetch", func(t *testing.T) {
		t.Parallel()

		res, err := doc.AttributeValues(ctx, button, []string{"AXTitle", "AXHelp"})
		if err != nil {
			t.Fatalf("AttributeValues() error = %v", err)
		}
		if res["AXTitle"].Value != "Continue" {
			t.Errorf("title = %v", res["AXTitle"].Value)
		}
		if !errors.Is(res["AXHelp"].Err, inspect.ErrAttributeUnsupported) {
			t.Errorf("expected ErrAttributeUnsupported, got %v", res["AXHelp"].Err)
		}
	})
}

// TestSecureTextField tests that password values are masked like a native
// secure field.
func TestSecureTextField(t *testing.T) {
	t.Parallel()

	doc, err := Parse(strings.NewReader(`<body><input type="password" value="hunter2"></body>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root, _ := doc.RootElement(context.Background(), DefaultPID)
	body := children(t, doc, root, false)[0]
	input := children(t, doc, body, false)[0]

	if got := attr(t, doc, input, "AXSubrole"); got != "AXSecureTextField" {
		t.Errorf("subrole = %v", got)
	}
	if got := attr(t, doc, input, "AXValue"); got != "•••••••" {
		t.Errorf("value = %v", got)
	}
}

package memtree

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/axtree/internal/inspect"
)

const cyclicFixture = `
bulk: true
processes:
  42: app
elements:
  app:
    attributes:
      AXRole: AXApplication
      AXTitle: Demo
      AXValue: ~
    refs:
      AXFocusedWindow: win
    children: [win]
    visibleChildren: [win]
  win:
    attributes:
      AXRole: AXWindow
      AXPosition: {x: 10, y: 20}
    children: [app]
    errors:
      attributes:
        AXTitle: cannot complete
`

func loadCyclic(t *testing.T) *Tree {
	t.Helper()
	tree, err := Load(strings.NewReader(cyclicFixture))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return tree
}

// TestLoad tests fixture decoding and validation.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("authorized defaults to true", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		if !tree.IsAuthorized(context.Background()) {
			t.Error("expected tree to be authorized")
		}
	})

	t.Run("explicit authorization is honored", func(t *testing.T) {
		t.Parallel()

		tree, err := Load(strings.NewReader("authorized: false\nprocesses: {}\nelements: {}\n"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if tree.IsAuthorized(context.Background()) {
			t.Error("expected tree to be unauthorized")
		}
	})

	t.Run("dangling child reference is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(Spec{Elements: map[string]ElementSpec{
			"a": {Children: []string{"missing"}},
		}})
		if !errors.Is(err, ErrUnknownElement) {
			t.Errorf("expected ErrUnknownElement, got %v", err)
		}
	})

	t.Run("dangling process root is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(Spec{Processes: map[int]string{1: "nope"}})
		if !errors.Is(err, ErrUnknownElement) {
			t.Errorf("expected ErrUnknownElement, got %v", err)
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := Load(strings.NewReader("elements: [")); err == nil {
			t.Error("expected decode error")
		}
	})
}

// TestTreeBoundary tests the Inspector behavior of a loaded tree.
func TestTreeBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("root element resolves by pid", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		root, err := tree.RootElement(ctx, 42)
		if err != nil {
			t.Fatalf("RootElement() error = %v", err)
		}
		if got := tree.Identity(root); got != "app" {
			t.Errorf("Identity() = %q, want app", got)
		}
		if _, err := tree.RootElement(ctx, 7); !errors.Is(err, inspect.ErrNoSuchProcess) {
			t.Errorf("expected ErrNoSuchProcess, got %v", err)
		}
	})

	t.Run("attribute names include refs and failing attributes", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		names, err := tree.AttributeNames(ctx, Handle{ID: "win"})
		if err != nil {
			t.Fatalf("AttributeNames() error = %v", err)
		}
		want := []string{"AXPosition", "AXRole", "AXTitle"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("AttributeNames() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("attribute values classify absence and failure", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		if _, err := tree.AttributeValue(ctx, Handle{ID: "app"}, "AXValue"); !errors.Is(err, inspect.ErrNoValue) {
			t.Errorf("expected ErrNoValue, got %v", err)
		}
		if _, err := tree.AttributeValue(ctx, Handle{ID: "app"}, "AXHelp"); !errors.Is(err, inspect.ErrAttributeUnsupported) {
			t.Errorf("expected ErrAttributeUnsupported, got %v", err)
		}
		_, err := tree.AttributeValue(ctx, Handle{ID: "win"}, "AXTitle")
		if err == nil || inspect.IsAbsent(err) {
			t.Errorf("expected hard failure, got %v", err)
		}
		v, err := tree.AttributeValue(ctx, Handle{ID: "app"}, "AXFocusedWindow")
		if err != nil {
			t.Fatalf("AttributeValue() error = %v", err)
		}
		if _, ok := v.(Handle); !ok {
			t.Errorf("expected element handle, got %T", v)
		}
	})

	t.Run("bulk fetch returns per-attribute results", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		res, err := tree.AttributeValues(ctx, Handle{ID: "app"}, []string{"AXRole", "AXValue"})
		if err != nil {
			t.Fatalf("AttributeValues() error = %v", err)
		}
		if res["AXRole"].Value != "AXApplication" {
			t.Errorf("unexpected role %v", res["AXRole"].Value)
		}
		if !errors.Is(res["AXValue"].Err, inspect.ErrNoValue) {
			t.Errorf("expected ErrNoValue, got %v", res["AXValue"].Err)
		}
		if got := tree.Stats().BulkCalls; got != 1 {
			t.Errorf("BulkCalls = %d, want 1", got)
		}
	})

	t.Run("bulk fetch is unsupported unless enabled", func(t *testing.T) {
		t.Parallel()

		tree, err := New(Spec{Elements: map[string]ElementSpec{"a": {}}})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, err := tree.AttributeValues(ctx, Handle{ID: "a"}, nil); !errors.Is(err, inspect.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("visible children fall back to unsupported", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		if _, err := tree.Children(ctx, Handle{ID: "win"}, true); !errors.Is(err, inspect.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
		children, err := tree.Children(ctx, Handle{ID: "win"}, false)
		if err != nil {
			t.Fatalf("Children() error = %v", err)
		}
		if len(children) != 1 || tree.Identity(children[0]) != "app" {
			t.Errorf("unexpected children %v", children)
		}
	})

	t.Run("foreign handles are invalid", func(t *testing.T) {
		t.Parallel()

		tree := loadCyclic(t)
		if _, err := tree.AttributeNames(ctx, "not a handle"); !errors.Is(err, inspect.ErrInvalidElement) {
			t.Errorf("expected ErrInvalidElement, got %v", err)
		}
		if got := tree.Identity(42); got != "" {
			t.Errorf("expected empty identity, got %q", got)
		}
	})
}

// TestPIDs tests that process ids are listed in order.
func TestPIDs(t *testing.T) {
	t.Parallel()

	tree, err := New(Spec{
		Processes: map[int]string{7: "a", 3: "a", 12: "a"},
		Elements:  map[string]ElementSpec{"a": {}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if diff := cmp.Diff([]int{3, 7, 12}, tree.PIDs()); diff != "" {
		t.Errorf("PIDs mismatch (-want +got):\n%s", diff)
	}
}

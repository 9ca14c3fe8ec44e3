package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/axtree/internal/render"
)

// snapshotTo captures pid 42 of the fixture into a file of the given format.
func snapshotTo(t *testing.T, format, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if _, _, err := execute(t, "snapshot", "-c", emptyConfig(t), "-F", fixturePath, "-p", "42",
		"-m", "all", "-f", format, "-o", path); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	return path
}

// TestConvert tests conversion between rendered formats.
func TestConvert(t *testing.T) {
	t.Parallel()

	t.Run("xml converts to the same json the snapshot renders", func(t *testing.T) {
		t.Parallel()

		xmlPath := snapshotTo(t, "xml", "tree.xml")
		jsonPath := snapshotTo(t, "json", "tree.json")

		stdout, _, err := execute(t, "convert", xmlPath, "--to", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, err := os.ReadFile(jsonPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if stdout != string(want) {
			t.Errorf("conversion mismatch\nwant: %s\ngot:  %s", want, stdout)
		}
	})

	t.Run("yaml round trips through json", func(t *testing.T) {
		t.Parallel()

		yamlPath := snapshotTo(t, "yaml", "tree.yml")
		jsonOut := filepath.Join(t.TempDir(), "tree.json")
		if _, _, err := execute(t, "convert", yamlPath, "--to", "json", "-o", jsonOut); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stdout, _, err := execute(t, "convert", jsonOut, "--to", "yaml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, err := os.ReadFile(yamlPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if stdout != string(want) {
			t.Errorf("round trip mismatch\nwant:\n%s\ngot:\n%s", want, stdout)
		}
	})

	t.Run("normalize summarizes a raw tree", func(t *testing.T) {
		t.Parallel()

		raw := snapshotTo(t, "yaml", "raw.yaml")
		stdout, _, err := execute(t, "convert", raw, "--normalize", "summarized")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, "AXRole") || !strings.Contains(stdout, "role: AXApplication") {
			t.Errorf("expected canonical keys, got:\n%s", stdout)
		}
	})

	t.Run("stdin requires an explicit input format", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		var stdout strings.Builder
		cmd.SetOut(&stdout)
		cmd.SetErr(&strings.Builder{})
		cmd.SetIn(strings.NewReader(`{"accessibilityTree":{"attributes":{"role":"AXButton"}}}`))
		cmd.SetArgs([]string{"convert", "-", "--from", "json", "--to", "yaml"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "accessibilityTree:\n  attributes:\n    role: AXButton\n"
		if stdout.String() != want {
			t.Errorf("unexpected output %q", stdout.String())
		}
	})
}

// TestConvertErrors tests input validation.
func TestConvertErrors(t *testing.T) {
	t.Parallel()

	mdPath := snapshotTo(t, "markdown", "tree.md")

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{name: "stdin without from", args: []string{"convert", "-"}, wantMsg: "requires --from"},
		{name: "no extension", args: []string{"convert", "tree"}, wantMsg: "cannot infer"},
		{name: "unknown output format", args: []string{"convert", fixturePath, "--to", "csv"}, wantErr: render.ErrUnknownFormat},
		{name: "markdown cannot be read back", args: []string{"convert", mdPath}, wantErr: render.ErrUndecodable},
		{name: "fixture is not a rendered tree", args: []string{"convert", fixturePath}, wantErr: render.ErrMalformedValue},
		{name: "missing input", args: []string{"convert", "missing.json"}, wantMsg: "failed to open input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

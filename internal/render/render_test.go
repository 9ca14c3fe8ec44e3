package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/axtree/internal/model"
)

func smallTree() *model.Node {
	return model.NewNode(map[string]string{"role": "AXWindow", "text": "Main window"}, []*model.Node{
		model.CycleLeaf(),
		model.Empty(),
	})
}

// trickyTree carries values that exercise quoting and escaping in every
// encoding.
func trickyTree() *model.Node {
	return model.NewNode(map[string]string{
		"role":                    "AXApplication",
		"text":                    "O'Reilly & <Sons> \"quoted\"",
		"error.attribute.AXTitle": "cannot complete: -25204",
		"with space":              "  padded  ",
	}, []*model.Node{
		model.NewNode(map[string]string{
			"multi":   "line one\nline two\r\n\ttabbed",
			"bool":    "true",
			"octal":   "0755",
			"dash":    "-",
			"tilde":   "~",
			"null":    "null",
			"hash":    "#not a comment",
			"unicode": "日本語 … (+12 chars)",
		}, []*model.Node{model.Empty()}),
		model.CycleLeaf(),
	})
}

// TestGolden tests the exact bytes of every encoding for a small tree.
func TestGolden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		want   string
	}{
		{
			format: FormatYAML,
			want: `accessibilityTree:
  attributes:
    role: AXWindow
    text: 'Main window'
  children:
    - attributes:
        cycle: true
    - {}
`,
		},
		{
			format: FormatXML,
			want: `<?xml version="1.0" encoding="UTF-8"?>
<accessibilityTree>
  <attributes>
    <attribute name="role">AXWindow</attribute>
    <attribute name="text">Main window</attribute>
  </attributes>
  <children>
    <node>
      <attributes>
        <attribute name="cycle">true</attribute>
      </attributes>
    </node>
    <node/>
  </children>
</accessibilityTree>
`,
		},
		{
			format: FormatJSON,
			want:   `{"accessibilityTree":{"attributes":{"role":"AXWindow","text":"Main window"},"children":[{"attributes":{"cycle":"true"}},{}]}}` + "\n",
		},
		{
			format: FormatJSONPretty,
			want: `{
  "accessibilityTree": {
    "attributes": {
      "role": "AXWindow",
      "text": "Main window"
    },
    "children": [
      {
        "attributes": {
          "cycle": "true"
        }
      },
      {}
    ]
  }
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			got, err := Render(smallTree(), tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestEmptyTree tests that an empty tree renders as an empty root container.
func TestEmptyTree(t *testing.T) {
	t.Parallel()

	tests := map[Format]string{
		FormatYAML: "accessibilityTree: {}\n",
		FormatXML:  "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<accessibilityTree/>\n",
		FormatJSON: "{\"accessibilityTree\":{}}\n",
	}
	for format, want := range tests {
		got, err := Render(model.Empty(), format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if string(got) != want {
			t.Errorf("%s: got %q, want %q", format, got, want)
		}
	}
}

// TestRendererEquivalence tests that decoding any encoding yields the same
// Value and the same tree.
func TestRendererEquivalence(t *testing.T) {
	t.Parallel()

	for _, tree := range []*model.Node{smallTree(), trickyTree(), model.Empty()} {
		want := ToValue(tree)

		for _, format := range []Format{FormatYAML, FormatXML, FormatJSON, FormatJSONPretty} {
			t.Run(string(format), func(t *testing.T) {
				t.Parallel()

				data, err := Render(tree, format)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got, err := Decode(format, bytes.NewReader(data))
				if err != nil {
					t.Fatalf("decode failed: %v\n%s", err, data)
				}
				if !got.Equal(want) {
					t.Errorf("value mismatch\nwant %s\ngot  %s", want, got)
				}

				node, err := NodeFromValue(got)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !node.Equal(tree) {
					t.Error("decoded tree differs from the rendered one")
				}
			})
		}
	}
}

// TestDeterministic tests that rendering twice gives identical bytes.
func TestDeterministic(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		first, err := Render(trickyTree(), format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		second, err := Render(trickyTree(), format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if !bytes.Equal(first, second) {
			t.Errorf("%s: output differs between runs", format)
		}
	}
}

// TestYAMLScalar tests YAML quoting rules.
func TestYAMLScalar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "AXButton", want: "AXButton"},
		{in: "error.attribute.AXTitle", want: "error.attribute.AXTitle"},
		{in: "-12.5", want: "-12.5"},
		{in: "true", want: "true"},
		{in: "", want: "''"},
		{in: "-", want: "'-'"},
		{in: "it's", want: "'it''s'"},
		{in: "a: b", want: "'a: b'"},
		{in: "…", want: "'…'"},
		{in: "line\nbreak", want: `"line\nbreak"`},
		{in: "tab\there", want: `"tab\there"`},
		{in: "say \"hi\"\n", want: `"say \"hi\"\n"`},
		{in: "\x01", want: `"\x01"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := EncodeYAML(model.Object(map[string]model.Value{"k": model.Scalar(tt.in)}))
			if err != nil {
				t.Fatalf("EncodeYAML() error = %v", err)
			}
			if want := "k: " + tt.want + "\n"; string(got) != want {
				t.Errorf("EncodeYAML(%q) = %q, want %q", tt.in, got, want)
			}
		})
	}
}

// TestEncodeYAMLLongText tests that long scalars stay on one line.
func TestEncodeYAMLLongText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("word ", 60) + "end"
	got, err := EncodeYAML(model.Object(map[string]model.Value{"text": model.Scalar(text)}))
	if err != nil {
		t.Fatalf("EncodeYAML() error = %v", err)
	}
	if want := "text: '" + text + "'\n"; string(got) != want {
		t.Errorf("unexpected encoding %q", got)
	}
}

// TestEscapeXML tests XML escaping.
func TestEscapeXML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: `O'Reilly & <Sons> "x"`, want: "O&apos;Reilly &amp; &lt;Sons&gt; &quot;x&quot;"},
		{in: "a\r\nb\tc", want: "a&#xD;&#xA;b&#x9;c"},
		{in: "bell\x07", want: "bell�"},
		{in: "日本語", want: "日本語"},
	}

	for _, tt := range tests {
		if got := escapeXML(tt.in); got != tt.want {
			t.Errorf("escapeXML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestToValue tests the intermediate shape.
func TestToValue(t *testing.T) {
	t.Parallel()

	t.Run("empty attributes and children are omitted", func(t *testing.T) {
		t.Parallel()

		v := ToValue(model.NewNode(nil, []*model.Node{model.Empty()}))
		root, _ := v.Member(RootKey)
		if diff := cmp.Diff([]string{ChildrenKey}, root.Keys()); diff != "" {
			t.Errorf("keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil tree is an empty root", func(t *testing.T) {
		t.Parallel()

		v := ToValue(nil)
		root, ok := v.Member(RootKey)
		if !ok || root.Kind() != model.KindObject || root.Len() != 0 {
			t.Errorf("unexpected value %s", v)
		}
	})

	t.Run("invalid utf-8 is replaced", func(t *testing.T) {
		t.Parallel()

		v := ToValue(model.NewNode(map[string]string{"text": "a\xffb"}, nil))
		root, _ := v.Member(RootKey)
		attrs, _ := root.Member(AttributesKey)
		text, _ := attrs.Member("text")
		if text.Text() != "a�b" {
			t.Errorf("unexpected text %q", text.Text())
		}
	})
}

// TestNodeFromValue tests rejection of malformed values.
func TestNodeFromValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    model.Value
	}{
		{name: "scalar root", v: model.Scalar("x")},
		{name: "missing root key", v: model.Object(map[string]model.Value{"tree": model.Object(nil)})},
		{name: "unexpected node key", v: model.Object(map[string]model.Value{
			RootKey: model.Object(map[string]model.Value{"extra": model.Scalar("x")}),
		})},
		{name: "non-scalar attribute", v: model.Object(map[string]model.Value{
			RootKey: model.Object(map[string]model.Value{
				AttributesKey: model.Object(map[string]model.Value{"role": model.Array()}),
			}),
		})},
		{name: "children not an array", v: model.Object(map[string]model.Value{
			RootKey: model.Object(map[string]model.Value{ChildrenKey: model.Scalar("x")}),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NodeFromValue(tt.v); !errors.Is(err, ErrMalformedValue) {
				t.Errorf("expected ErrMalformedValue, got %v", err)
			}
		})
	}
}

// TestDecodeErrors tests decoder failures.
func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	if _, err := DecodeJSON(strings.NewReader(`{"a": 1}`)); !errors.Is(err, ErrMalformedValue) {
		t.Errorf("expected ErrMalformedValue for a number, got %v", err)
	}
	if _, err := DecodeYAML(strings.NewReader("")); !errors.Is(err, ErrMalformedValue) {
		t.Errorf("expected ErrMalformedValue for an empty document, got %v", err)
	}
	if _, err := DecodeXML(strings.NewReader("<tree/>")); err == nil {
		t.Error("expected an error for a foreign root element")
	}
	if _, err := Decode(FormatMarkdown, strings.NewReader("# x")); !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable, got %v", err)
	}
}

// TestParseFormat tests format name resolution.
func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{
		"yaml": FormatYAML, "YML": FormatYAML, " xml ": FormatXML,
		"json": FormatJSON, "json-pretty": FormatJSONPretty, "md": FormatMarkdown,
	} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("toml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := NewWriter("toml", &bytes.Buffer{}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

// TestMarkdownWriter tests the digest output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary, chart and tree", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, WithTitle("Demo (pid 42)")).Write(trickyTree()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Demo (pid 42)", "Diagnostic nodes", "pie", "Role Distribution", "```yaml", "accessibilityTree:", "[!WARNING]"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("clean tree gets a tip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(model.NewNode(map[string]string{"role": "AXButton"}, nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "# "+DefaultMarkdownTitle) || !strings.Contains(output, "[!TIP]") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})
}

// TestSummarize tests the digest counts.
func TestSummarize(t *testing.T) {
	t.Parallel()

	got := Summarize(trickyTree())
	want := Digest{
		Nodes:       4,
		Depth:       3,
		Diagnostics: 2,
		Cycles:      1,
		Roles:       map[string]int{"AXApplication": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("digest mismatch (-want +got):\n%s", diff)
	}
}

// TestMultiWriter tests writing the same tree to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	n, err := NewMultiWriter(NewYAMLWriter(&a), NewJSONWriter(&b)).Write(smallTree())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

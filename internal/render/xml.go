package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/axtree/internal/model"
)

// xmlHeader starts every XML document.
const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

// Element names of the XML encoding.
const (
	xmlNodeElement      = "node"
	xmlAttributeElement = "attribute"
	xmlNameAttribute    = "name"
)

// XMLWriter outputs trees as markup.
//
// The root element is <accessibilityTree>. A node holds an <attributes>
// element with one <attribute name="..."> per attribute and a <children>
// element with one <node> per child, each omitted when empty. Nesting is
// indented two spaces per element.
type XMLWriter struct {
	baseWriter
}

// NewXMLWriter creates an XMLWriter that outputs to the given writer.
func NewXMLWriter(output io.Writer) *XMLWriter {
	return &XMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the tree in XML form.
func (w *XMLWriter) Write(tree *model.Node) (int, error) {
	data, err := EncodeXML(ToValue(tree))
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

// EncodeXML serializes a Value of the shape produced by ToValue.
func EncodeXML(v model.Value) ([]byte, error) {
	root, ok := v.Member(RootKey)
	if v.Kind() != model.KindObject || v.Len() != 1 || !ok {
		return nil, fmt.Errorf("%w: expected a single %q member", ErrMalformedValue, RootKey)
	}

	var b bytes.Buffer
	b.WriteString(xmlHeader)
	b.WriteByte('\n')
	if err := writeXMLNode(&b, RootKey, root, 0); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func writeXMLNode(b *bytes.Buffer, tag string, v model.Value, ind int) error {
	if v.Kind() != model.KindObject {
		return fmt.Errorf("%w: <%s> is a %s, not an object", ErrMalformedValue, tag, v.Kind())
	}
	pad := strings.Repeat(" ", ind)
	if v.Len() == 0 {
		b.WriteString(pad + "<" + tag + "/>\n")
		return nil
	}

	b.WriteString(pad + "<" + tag + ">\n")
	for _, key := range v.Keys() {
		member, _ := v.Member(key)
		var err error
		switch key {
		case AttributesKey:
			err = writeXMLAttributes(b, member, ind+2)
		case ChildrenKey:
			err = writeXMLChildren(b, member, ind+2)
		default:
			err = fmt.Errorf("%w: unexpected key %q", ErrMalformedValue, key)
		}
		if err != nil {
			return err
		}
	}
	b.WriteString(pad + "</" + tag + ">\n")
	return nil
}

func writeXMLAttributes(b *bytes.Buffer, v model.Value, ind int) error {
	if v.Kind() != model.KindObject {
		return fmt.Errorf("%w: attributes is a %s, not an object", ErrMalformedValue, v.Kind())
	}
	pad := strings.Repeat(" ", ind)
	if v.Len() == 0 {
		b.WriteString(pad + "<" + AttributesKey + "/>\n")
		return nil
	}

	b.WriteString(pad + "<" + AttributesKey + ">\n")
	for _, name := range v.Keys() {
		s, _ := v.Member(name)
		if s.Kind() != model.KindScalar {
			return fmt.Errorf("%w: attribute %q is not a scalar", ErrMalformedValue, name)
		}
		fmt.Fprintf(b, "%s  <%s %s=\"%s\">%s</%s>\n",
			pad, xmlAttributeElement, xmlNameAttribute, escapeXML(name), escapeXML(s.Text()), xmlAttributeElement)
	}
	b.WriteString(pad + "</" + AttributesKey + ">\n")
	return nil
}

func writeXMLChildren(b *bytes.Buffer, v model.Value, ind int) error {
	if v.Kind() != model.KindArray {
		return fmt.Errorf("%w: children is a %s, not an array", ErrMalformedValue, v.Kind())
	}
	pad := strings.Repeat(" ", ind)
	if v.Len() == 0 {
		b.WriteString(pad + "<" + ChildrenKey + "/>\n")
		return nil
	}

	b.WriteString(pad + "<" + ChildrenKey + ">\n")
	for _, item := range v.Items() {
		if err := writeXMLNode(b, xmlNodeElement, item, ind+2); err != nil {
			return err
		}
	}
	b.WriteString(pad + "</" + ChildrenKey + ">\n")
	return nil
}

// escapeXML escapes markup characters. Line breaks and tabs become character
// references so parsers do not normalize them, and characters XML 1.0 cannot
// carry are replaced with U+FFFD.
func escapeXML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToValidUTF8(s, "�") {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '\r':
			b.WriteString("&#xD;")
		case '\n':
			b.WriteString("&#xA;")
		case '\t':
			b.WriteString("&#x9;")
		default:
			if !xmlChar(r) {
				r = '�'
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// xmlChar reports whether r is allowed in an XML 1.0 document.
func xmlChar(r rune) bool {
	return r == 0x09 || r == 0x0a || r == 0x0d ||
		(r >= 0x20 && r <= 0xd7ff) ||
		(r >= 0xe000 && r <= 0xfffd) ||
		(r >= 0x10000 && r <= 0x10ffff)
}

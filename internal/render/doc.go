// Package render encodes normalized trees for output.
//
// Every writer first converts the tree to the shared intermediate model.Value
// (see ToValue) and then serializes that Value:
//   - YAMLWriter: indented structured text
//   - XMLWriter: markup with one element per attribute
//   - JSONWriter: compact or pretty records
//   - MarkdownWriter: a human digest with the YAML rendering embedded
//
// The YAML, XML and JSON encodings carry identical logical content, and the
// Decode functions parse them back into a Value. Object keys are always
// written in ascending byte order, so equal trees produce equal bytes.
package render

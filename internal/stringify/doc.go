// Package stringify converts values obtained from an introspection boundary
// into canonical, deterministic strings.
//
// The mapping is total:
//   - text is summarized to MaxTextLength characters with an exact count suffix
//   - booleans render as "true" / "false"
//   - numbers render in plain decimal, never scientific notation
//   - lists render as "[a, b]" and maps as "{k: v}" with pairs sorted; either
//     collapses to a count once it holds more than MaxCollectionEntries entries
//   - element handles render as ElementMarker and are never expanded
//
// Anything else falls back to its fmt form.
package stringify

// Package inspect defines the introspection boundary the capture engine is
// driven by.
//
// A boundary exposes a running application's UI as elements with named
// attributes. The engine only talks to it through the Inspector interface and
// the optional BulkFetcher capability, so platform specifics stay outside the
// core. Two boundaries live in sub-packages:
//   - memtree: an in-memory element graph, loadable from YAML fixtures
//   - htmldom: a parsed HTML document presented as an element tree
//
// Element handles are opaque. Equality is decided by Identity tokens only,
// never by comparing handle contents.
package inspect

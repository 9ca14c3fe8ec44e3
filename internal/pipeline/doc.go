// Package pipeline implements the filter/prune stage that turns a raw
// collected node into its normalized shape.
//
// A Pipeline is a fixed sequence of Steps built from a configuration. The
// collector calls Process once per node after the node's children have been
// processed, so parents see already-pruned children. Normalize applies the
// same processing to an existing tree.
package pipeline

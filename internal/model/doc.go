// Package model defines the data structures shared by the capture engine.
//
// This package contains two main types:
//   - Node: one UI element with string attributes and ordered children
//   - Value: the Scalar / Object / Array union every renderer consumes
//
// Nodes are immutable once built. The collector creates a fresh tree per
// capture, the pipeline derives a new normalized tree from it, and a renderer
// consumes the result exactly once. There are no parent pointers, so after
// collection the structure is always a tree, never a graph.
//
// Diagnostic attributes (cycle, error.*) are ordinary attributes reserved for
// reporting boundary failures inside the tree itself.
package model

// Package collector walks an introspection boundary and produces a
// normalized node tree.
//
// The walk keeps a visited-set of element identities. An element reached a
// second time, whether through a cycle or through a second parent, becomes a
// leaf carrying cycle=true, so malformed graphs always terminate.
//
// Per-element boundary failures are recorded as diagnostic attributes
// (error.attributeNames, error.attribute.<name>, error.children) and never
// abort the walk. Each node is handed to the filter/prune pipeline after its
// children, so pruning is bottom-up.
//
//	c := collector.New(inspector, config.Summarized())
//	tree, stats, err := c.Collect(ctx, root)
package collector

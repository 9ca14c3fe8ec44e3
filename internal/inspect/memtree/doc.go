// Package memtree provides an in-memory inspection boundary.
//
// A Tree serves an element graph described by a Spec, usually decoded from a
// YAML fixture. Fixtures can declare cycles, unsupported relations and
// injected failures, which makes the package the reference boundary for tests
// and for offline snapshots.
//
//	processes:
//	  42: app
//	elements:
//	  app:
//	    attributes: {AXRole: AXApplication, AXTitle: Demo}
//	    children: [win]
//	  win:
//	    attributes: {AXRole: AXWindow}
//	    children: [app]
package memtree

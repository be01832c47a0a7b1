// Package dag provides the dependency graph read from a lockfile and the
// leveled traversal that picks which crates take part in a downgrade.
//
// # Overview
//
// A [Graph] is an arena: packages are stored in a flat slice and addressed by
// [NodeID], edges are adjacency lists of IDs pointing from a dependent to its
// direct dependencies. Roots are the nodes nothing depends on; for a Cargo
// workspace they are the member crates.
//
// # Basic Usage
//
//	g := dag.New()
//	app, _ := g.AddNode(dag.Package{Name: "app", Version: "0.1.0"})
//	serde, _ := g.AddNode(dag.Package{Name: "serde", Version: "1.0.123"})
//	_ = g.AddEdge(app, serde)
//
// # Levels
//
// [SelectLevels] walks the graph breadth-first one tier at a time. Tier 0 is
// the roots and is never returned, since the project's own crates are not
// downgrade targets. A positive depth returns exactly that tier; [AllLevels]
// returns the union of every tier below the roots:
//
//	direct := dag.Select(g, 1)              // direct dependencies only
//	every := dag.Select(g, dag.AllLevels)   // all transitive dependencies
//
// A crate reachable at several distances is recorded in every tier it shows
// up in. The traversal keeps no visited set, so it is bounded by
// [LevelOptions.MaxLevels] (default [DefaultMaxLevels]); when the bound trips
// it logs a warning and returns the partial result instead of failing.
package dag

package dag

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidPackage is returned by [Graph.AddNode] when the package name is
	// empty. Every node must name a crate.
	ErrInvalidPackage = errors.New("package name must not be empty")

	// ErrDuplicatePackage is returned by [Graph.AddNode] when a package with the
	// same name, version and source already exists. A lockfile selects each
	// concrete package at most once.
	ErrDuplicatePackage = errors.New("duplicate package")

	// ErrUnknownNode is returned by [Graph.AddEdge] when either endpoint is not
	// an index previously returned by [Graph.AddNode].
	ErrUnknownNode = errors.New("unknown node")
)

// NodeID indexes a node in a [Graph]. IDs are dense, starting at 0, in the
// order nodes were added.
type NodeID int

// Package is one concrete crate selected by the lockfile.
type Package struct {
	Name    string // Crate name (e.g., "serde", never empty in a valid graph)
	Version string // Exact locked version (e.g., "1.0.193")
	Source  string // Registry or git source; empty for path and workspace crates
}

// String renders the package as "name version".
func (p Package) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + " " + p.Version
}

// Graph is a directed dependency graph stored as an arena: nodes live in a flat
// slice and edges are adjacency lists of indices, so nodes never point at each
// other and cyclic input cannot create reference cycles.
//
// Edges point from a dependent to its direct dependencies. The zero value is
// not usable - use New. Graph is not safe for concurrent mutation, but any
// number of goroutines may read a fully built graph.
type Graph struct {
	nodes    []Package
	outgoing [][]NodeID
	indegree []int
	index    map[string]NodeID   // Package.key() -> id
	byName   map[string][]NodeID // name -> ids, in insertion order
	edges    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:  make(map[string]NodeID),
		byName: make(map[string][]NodeID),
	}
}

func (p Package) key() string { return p.String() + " (" + p.Source + ")" }

// AddNode appends a package and returns its ID.
// Returns ErrInvalidPackage for an empty name and ErrDuplicatePackage if the
// same name, version and source were already added.
func (g *Graph) AddNode(p Package) (NodeID, error) {
	if p.Name == "" {
		return -1, ErrInvalidPackage
	}
	key := p.key()
	if _, exists := g.index[key]; exists {
		return -1, fmt.Errorf("%w: %s", ErrDuplicatePackage, key)
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, p)
	g.outgoing = append(g.outgoing, nil)
	g.indegree = append(g.indegree, 0)
	g.index[key] = id
	g.byName[p.Name] = append(g.byName[p.Name], id)
	return id, nil
}

// AddEdge records that from depends on to.
// Returns ErrUnknownNode if either ID is out of range. Duplicate edges are
// ignored; self-loops are kept, since traversal tolerates cycles.
func (g *Graph) AddEdge(from, to NodeID) error {
	if !g.valid(from) || !g.valid(to) {
		return fmt.Errorf("%w: edge %d -> %d", ErrUnknownNode, from, to)
	}
	if slices.Contains(g.outgoing[from], to) {
		return nil
	}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.indegree[to]++
	g.edges++
	return nil
}

func (g *Graph) valid(id NodeID) bool { return id >= 0 && int(id) < len(g.nodes) }

// Node returns the package stored at id.
func (g *Graph) Node(id NodeID) (Package, bool) {
	if !g.valid(id) {
		return Package{}, false
	}
	return g.nodes[id], true
}

// Name returns the crate name of id, or "" if id is unknown.
func (g *Graph) Name(id NodeID) string {
	if !g.valid(id) {
		return ""
	}
	return g.nodes[id].Name
}

// Children returns the direct dependencies of id in insertion order.
// The returned slice should not be modified.
func (g *Graph) Children(id NodeID) []NodeID {
	if !g.valid(id) {
		return nil
	}
	return g.outgoing[id]
}

// InDegree returns the number of dependents of id.
func (g *Graph) InDegree(id NodeID) int {
	if !g.valid(id) {
		return 0
	}
	return g.indegree[id]
}

// Roots returns every node with no incoming edges, in insertion order. For a
// lockfile these are the workspace members.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for id, deg := range g.indegree {
		if deg == 0 {
			roots = append(roots, NodeID(id))
		}
	}
	return roots
}

// Lookup finds the first node with an exact name and version, whatever its
// source.
func (g *Graph) Lookup(name, version string) (NodeID, bool) {
	for _, id := range g.byName[name] {
		if g.nodes[id].Version == version {
			return id, true
		}
	}
	return -1, false
}

// ByName returns every node carrying the crate name, in insertion order.
func (g *Graph) ByName(name string) []NodeID { return g.byName[name] }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() int { return g.edges }

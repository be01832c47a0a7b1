package dag

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultMaxLevels bounds how many tiers a traversal visits before giving up.
const DefaultMaxLevels = 255

// AllLevels requests the union of every tier below the roots.
const AllLevels = 0

// Names is a set of crate names.
type Names map[string]struct{}

// Sorted returns the names in lexical order.
func (n Names) Sorted() []string { return slices.Sorted(maps.Keys(n)) }

// Contains reports whether name is in the set.
func (n Names) Contains(name string) bool {
	_, ok := n[name]
	return ok
}

// LevelOptions configures [SelectLevels].
type LevelOptions struct {
	// Depth selects a single tier. AllLevels (0) collects every tier >= 1.
	Depth int
	// MaxLevels bounds the traversal. Values <= 0 mean DefaultMaxLevels.
	MaxLevels int
	// Logger receives per-level debug output and the overflow warning.
	// Nil means log.Default().
	Logger *log.Logger
}

// Level is one breadth-first tier of the graph.
type Level struct {
	Depth int
	Names Names
}

// Select returns the crate names at the given tier, or every tier below the
// roots if depth is AllLevels. It is SelectLevels with default options.
func Select(g *Graph, depth int) Names {
	names, _ := SelectLevels(g, LevelOptions{Depth: depth})
	return names
}

// SelectLevels walks g breadth-first from its roots one tier at a time.
//
// Tier 0 (the roots) is never part of the result. With a positive Depth the
// names of exactly that tier are returned as soon as it is reached; lower
// tiers are not accumulated. With AllLevels the result is the union of every
// tier >= 1. A crate reachable at several distances appears in each of those
// tiers.
//
// If the traversal reaches MaxLevels tiers without the frontier draining
// (pathologically deep or cyclic input), it logs a warning and returns what it
// has accumulated. The returned bool reports whether that happened.
func SelectLevels(g *Graph, opts LevelOptions) (Names, bool) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxLevels := opts.MaxLevels
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}

	result := Names{}
	overflow := walk(g, maxLevels, func(lvl Level) bool {
		logger.Debugf("dependencies on level %d: %s", lvl.Depth, strings.Join(lvl.Names.Sorted(), ", "))
		if lvl.Depth == 0 {
			return true
		}
		if opts.Depth > AllLevels {
			if lvl.Depth == opts.Depth {
				result = lvl.Names
				return false
			}
			return true
		}
		maps.Copy(result, lvl.Names)
		return true
	})
	if overflow {
		logger.Warnf("more than %d levels of dependencies found, stopping early", maxLevels)
	}
	return result, overflow
}

// Levels returns every tier of g in order, including tier 0. The bool reports
// whether the traversal stopped at maxLevels (<= 0 means DefaultMaxLevels).
func Levels(g *Graph, maxLevels int) ([]Level, bool) {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	var levels []Level
	overflow := walk(g, maxLevels, func(lvl Level) bool {
		levels = append(levels, lvl)
		return true
	})
	return levels, overflow
}

// walk visits tiers in order until the frontier drains, visit returns false,
// or maxLevels tiers have been visited. It returns true only in the last case.
func walk(g *Graph, maxLevels int, visit func(Level) bool) bool {
	frontier := g.Roots()
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxLevels {
			return true
		}

		names := make(Names, len(frontier))
		next := make(map[NodeID]struct{})
		for _, id := range frontier {
			names[g.Name(id)] = struct{}{}
			for _, child := range g.Children(id) {
				next[child] = struct{}{}
			}
		}

		if !visit(Level{Depth: depth, Names: names}) {
			return false
		}

		frontier = slices.Sorted(maps.Keys(next))
	}
	return false
}

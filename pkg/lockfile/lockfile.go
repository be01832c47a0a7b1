// Package lockfile reads Cargo.lock files into a [dag.Graph].
//
// A Cargo.lock lists every package the project resolved to, with its direct
// dependencies referenced as "name", "name version" or
// "name version (source)". Cargo only adds the version and source when the
// bare name would be ambiguous; [Lockfile.Graph] resolves them the same way.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/rewind/pkg/dag"
	"github.com/matzehuels/rewind/pkg/errors"
)

// FileName is the lockfile Cargo writes next to the workspace manifest.
const FileName = "Cargo.lock"

// Lockfile is the decoded content of a Cargo.lock.
type Lockfile struct {
	Version  int       `toml:"version"`
	Packages []Package `toml:"package"`
}

// Package is one [[package]] entry.
type Package struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum"`
	Dependencies []string `toml:"dependencies"`
}

// Path returns the lockfile path inside dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Load reads and parses the lockfile at path.
// Failures are reported with [errors.ErrCodeGraphRead].
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphRead, err, "read %s", path)
	}
	lock, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphRead, err, "parse %s", path)
	}
	return lock, nil
}

// Parse decodes Cargo.lock content.
func Parse(data []byte) (*Lockfile, error) {
	var lock Lockfile
	if _, err := toml.Decode(string(data), &lock); err != nil {
		return nil, err
	}
	for i, p := range lock.Packages {
		if p.Name == "" {
			return nil, fmt.Errorf("package #%d has no name", i+1)
		}
	}
	return &lock, nil
}

// LoadGraph is Load followed by Graph.
func LoadGraph(path string) (*dag.Graph, error) {
	lock, err := Load(path)
	if err != nil {
		return nil, err
	}
	g, err := lock.Graph()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeGraphRead, err, "build dependency graph from %s", path)
	}
	return g, nil
}

// Graph builds the dependency graph: one node per package, one edge per
// dependency reference.
func (l *Lockfile) Graph() (*dag.Graph, error) {
	g := dag.New()
	ids := make([]dag.NodeID, len(l.Packages))
	for i, p := range l.Packages {
		id, err := g.AddNode(dag.Package{Name: p.Name, Version: p.Version, Source: p.Source})
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	for i, p := range l.Packages {
		for _, raw := range p.Dependencies {
			ref, err := parseRef(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			to, err := resolve(g, ref)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
			if err := g.AddEdge(ids[i], to); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// ref is a parsed dependency reference.
type ref struct {
	name, version, source string
}

func (r ref) String() string {
	s := r.name
	if r.version != "" {
		s += " " + r.version
	}
	if r.source != "" {
		s += " (" + r.source + ")"
	}
	return s
}

func parseRef(raw string) (ref, error) {
	s := strings.TrimSpace(raw)
	var r ref
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return ref{}, fmt.Errorf("malformed dependency %q", raw)
		}
		r.source = s[open+1 : len(s)-1]
		s = strings.TrimSpace(s[:open])
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		r.name = fields[0]
	case 2:
		r.name, r.version = fields[0], fields[1]
	default:
		return ref{}, fmt.Errorf("malformed dependency %q", raw)
	}
	if r.source != "" && r.version == "" {
		return ref{}, fmt.Errorf("malformed dependency %q", raw)
	}
	return r, nil
}

func resolve(g *dag.Graph, r ref) (dag.NodeID, error) {
	var matches []dag.NodeID
	for _, id := range g.ByName(r.name) {
		p, _ := g.Node(id)
		if r.version != "" && p.Version != r.version {
			continue
		}
		if r.source != "" && p.Source != r.source {
			continue
		}
		matches = append(matches, id)
	}
	switch len(matches) {
	case 0:
		return -1, fmt.Errorf("dependency %s is not in the lockfile", r)
	case 1:
		return matches[0], nil
	default:
		return -1, fmt.Errorf("dependency %s is ambiguous (%d candidates)", r, len(matches))
	}
}

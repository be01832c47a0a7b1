// Package pkg provides the libraries behind rewind, a tool that rolls the
// dependencies of a Cargo.lock back to what crates.io served at a given date.
//
// # Overview
//
// The pkg directory is organized into three areas:
//
//  1. Domain logic: [lockfile], [dag], [downgrade], [cutoff]
//  2. External systems: [integrations], [integrations/crates], [apply]
//  3. Support: [errors], [httputil], [observability], [buildinfo]
//
// # Architecture
//
// The data flow of a run:
//
//	Cargo.lock
//	     ↓
//	[lockfile] package (decode, build the dependency graph)
//	     ↓
//	[dag] package (select crates by breadth-first level)
//	     ↓
//	[downgrade] package (fetch versions, pick the newest before the cutoff)
//	     ↓
//	[apply] package (print pins or run cargo update --precise)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/rewind/pkg/cutoff"
//	    "github.com/matzehuels/rewind/pkg/dag"
//	    "github.com/matzehuels/rewind/pkg/downgrade"
//	    "github.com/matzehuels/rewind/pkg/integrations/crates"
//	    "github.com/matzehuels/rewind/pkg/lockfile"
//	)
//
//	at, _ := cutoff.Parse("22 Feb 2021 23:16:09 GMT")
//	g, _ := lockfile.LoadGraph("Cargo.lock")
//	names := dag.Select(g, dag.AllLevels)
//
//	r := downgrade.NewResolver(crates.NewClient(crates.Options{}), nil)
//	res, _ := r.Resolve(context.Background(), names.Sorted(), at)
//	for _, t := range res.Targets {
//	    fmt.Println(t) // serde = "=1.0.123"
//	}
//
// Requests to crates.io are paced (one per second by default) and each crate
// is fetched at most once per client. Nothing is cached on disk.
//
// [lockfile]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/lockfile
// [dag]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/dag
// [downgrade]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/downgrade
// [cutoff]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/cutoff
// [integrations]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/integrations
// [integrations/crates]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/integrations/crates
// [apply]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/apply
// [errors]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/rewind/pkg/buildinfo
package pkg

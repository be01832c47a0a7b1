// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package lists the published versions of a crate on crates.io
// (https://crates.io), the Rust community's package registry, in the form
// the version picker in [downgrade] consumes.
//
// # Usage
//
//	client := crates.NewClient(crates.Options{})
//
//	versions, err := client.Versions(ctx, "serde")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, v := range versions {
//	    fmt.Println(v.Number, v.PublishedAt, v.Yanked)
//	}
//
// # Publish Time
//
// A version's publish time is its created_at timestamp. updated_at moves
// whenever a version is yanked or unyanked, so it is used only when
// created_at is missing.
//
// # Memoisation
//
// Each client remembers the versions of up to [Options.MemoSize] crates in an
// in-memory LRU. Nothing outlives the process.
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
//
// [downgrade]: github.com/matzehuels/rewind/pkg/downgrade
package crates

// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// The registry subpackage [crates] lists the published versions of a Rust
// crate on crates.io. It is built on the shared [Client] in this package.
//
// # Client Pattern
//
//	client := crates.NewClient(crates.Options{})
//	versions, err := client.Versions(ctx, "serde")
//
// The shared [Client] handles:
//   - A minimum delay between requests (one per second by default), as
//     crates.io asks of crawlers
//   - Retries with exponential backoff for network errors, 5xx and 429
//   - Default headers such as the mandatory User-Agent
//   - [observability.HTTPHooks] events for every request
//
// Responses are never persisted; each run asks the registry afresh.
//
// [crates]: github.com/matzehuels/rewind/pkg/integrations/crates
package integrations

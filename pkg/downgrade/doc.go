// Package downgrade decides which version of each crate was current at a
// point in time.
//
// [Pick] is the pure selection step: given every published version of one
// crate and a cutoff, it returns the newest version that was published
// strictly before the cutoff and is not yanked. [Resolver] feeds a list of
// crate names through a [VersionSource] one at a time and collects the
// resulting [Target] values, isolating per-crate failures so one missing or
// too-young crate never aborts the batch.
//
//	res, err := downgrade.NewResolver(client, logger).Resolve(ctx, names, cutoff)
//	for _, t := range res.Targets {
//	    fmt.Println(t) // serde = "=1.0.123"
//	}
package downgrade

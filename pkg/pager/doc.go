// Package pager implements tiered cache-then-network page loading for
// key-based, forward-only list pagination.
//
// A Session owns the pagination state of one list. Each page request is
// answered exactly once through a Future; cache data for the first page is
// delivered separately as a preview so it never competes with the
// authoritative network answer.
//
// Components:
//   - Resolve: maps (phase, strategy) to a Plan with exactly one
//     authoritative step
//   - Loader: runs a Plan on background workers against a CacheStore and a
//     NetworkClient
//   - sinks: route step outcomes to the preview or authoritative channel
//   - Session: in-flight gating, boundary signaling, lifecycle
//
// Typical usage:
//
//	loader := pager.NewLoader(cacheStore, client, pager.DefaultLoaderConfig(), nil)
//	loader.Start(ctx)
//	defer loader.Stop(5 * time.Second)
//
//	session, err := pager.NewSession(loader, buildQuery, observer, pager.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	items, err := session.LoadInitial(ctx, pager.StartKey, 20).Wait(ctx)
package pager

// Package seashell provides deterministic account state for program-execution
// test harnesses.
//
// A scenario is a named, persisted collection of captured account state. The
// first time an account is resolved it may be fetched from a configured remote
// endpoint; the result is memorialized to a compressed snapshot on disk, and
// every later run replays that exact state without touching the network.
//
// # Basic Usage
//
//	sc, err := seashell.Open("transfer", seashell.Options{})
//	if err != nil {
//	    // handle [ErrSnapshotCorrupt]/[ErrUnsupportedVersion]
//	}
//
//	// Resolve an account. On the first run with RPC_URL set this fetches
//	// and persists; on replays it reads the snapshot.
//	acct, err := sc.Account(ctx, addr)
//
//	// Inject a test-owned fixture (never persisted).
//	sc.SetAccount(addr, acct)
//
//	// Push post-execution state back from the execution engine.
//	err = sc.ApplyUpdates([]seashell.Update{{Address: addr, Account: acct}})
//
// # Lookup Order
//
// Resolution consults tiers in strict order: the override map (snapshot-loaded
// or previously fetched accounts), then the manual map (test fixtures), then a
// one-time remote fetch. A resolution that misses every tier fails with
// [ErrAccountNotFound]; seashell never manufactures a default account.
//
// # Persistence
//
// Persistence is write-through: every mutation of the override tier is
// followed by an atomic snapshot write, so a crash after a successful fetch
// never loses that fetch. Snapshots guarantee reproducibility of captured
// state, not consistency with current on-chain state.
//
// # Concurrency
//
// A Scenario handle is sequential: resolutions happen in call order and a
// handle is not safe for concurrent use. One process owns a given scenario
// file at a time; concurrent writers must be serialized by the caller.
package seashell

package seashell

import (
	"context"
	"fmt"
	"log/slog"
)

// resolver is the multi-tier lookup engine behind a [Scenario].
//
// Tiers are consulted in strict order: overrides (replay-authoritative state
// from snapshot load or completed fetches), then manual (run-scoped test
// fixtures), then a one-time remote fetch. The remote fetch is the only
// I/O-performing path; everything else is pure map operations.
//
// The dirty flag tracks unpersisted override mutations. markOverride is the
// only path that sets it; manual writes never do.
type resolver struct {
	overrides map[Address]Account
	manual    map[Address]Account
	fetcher   *fetcher // nil when no endpoint is configured
	dirty     bool
	logger    *slog.Logger
}

func newResolver(seed map[Address]Account, f *fetcher, logger *slog.Logger) *resolver {
	overrides := make(map[Address]Account, len(seed))

	for addr, acct := range seed {
		overrides[addr] = acct.Clone()
	}

	return &resolver{
		overrides: overrides,
		manual:    make(map[Address]Account),
		fetcher:   f,
		logger:    logger,
	}
}

// resolve returns the first match for addr in tier order. On a full miss it
// fetches from the configured endpoint, records the result as an override,
// and marks the resolver dirty; with no endpoint it fails with
// [ErrAccountNotFound] and leaves every tier unchanged.
//
// Deterministic: identical override/manual state yields identical results.
// The returned Account is an independent copy.
func (r *resolver) resolve(ctx context.Context, addr Address) (Account, error) {
	if acct, ok := r.overrides[addr]; ok {
		return acct.Clone(), nil
	}

	if acct, ok := r.manual[addr]; ok {
		return acct.Clone(), nil
	}

	if r.fetcher == nil {
		return Account{}, &Error{
			Address: addr.String(),
			Err:     fmt.Errorf("%w: no endpoint configured (set RPC_URL to enable fetching)", ErrAccountNotFound),
		}
	}

	acct, err := r.fetcher.fetchAccount(ctx, addr)
	if err != nil {
		// No partial account is ever recorded on a failed fetch.
		return Account{}, err
	}

	r.markOverride(addr, acct)

	return acct.Clone(), nil
}

// setManual inserts or overwrites a run-scoped fixture. Manual accounts are
// never persisted and never shadow override entries.
func (r *resolver) setManual(addr Address, acct Account) {
	r.manual[addr] = acct.Clone()
}

// markOverride records replay-authoritative state: a completed fetch, a
// snapshot load, or post-execution write-back. Entries are append/overwrite
// only for the life of the resolver.
func (r *resolver) markOverride(addr Address, acct Account) {
	r.overrides[addr] = acct.Clone()
	r.dirty = true

	r.logger.Debug("override recorded", "address", addr.String())
}

// hasOverride reports whether addr is already replay-authoritative.
func (r *resolver) hasOverride(addr Address) bool {
	_, ok := r.overrides[addr]

	return ok
}

// peek returns the current value of addr from the in-memory tiers without
// fetching. Used by operations that must not trigger I/O.
func (r *resolver) peek(addr Address) (Account, bool) {
	if acct, ok := r.overrides[addr]; ok {
		return acct.Clone(), true
	}

	if acct, ok := r.manual[addr]; ok {
		return acct.Clone(), true
	}

	return Account{}, false
}

// overridesCopy snapshots the override tier for persistence.
func (r *resolver) overridesCopy() map[Address]Account {
	out := make(map[Address]Account, len(r.overrides))

	for addr, acct := range r.overrides {
		out[addr] = acct.Clone()
	}

	return out
}

func (r *resolver) clearDirty() {
	r.dirty = false
}

package seashell

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// Options configure opening a scenario.
//
// The zero value is usable: scenarios live under "scenarios/" relative to
// the working directory, the endpoint comes from RPC_URL, and fetches time
// out after 30 seconds.
type Options struct {
	// Dir is the scenario directory. Defaults to "scenarios", overridable
	// by SEASHELL_SCENARIO_DIR or the project config file.
	Dir string

	// Endpoint overrides the RPC_URL environment variable. Empty means
	// "use the environment"; if neither is set the scenario has no
	// fetching capability.
	Endpoint string

	// FetchTimeout bounds a single account fetch, retries included.
	FetchTimeout time.Duration

	// ProgramDir overrides SBF_OUT_DIR for program artifact lookup.
	ProgramDir string

	// HTTPClient is used for remote fetches. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives debug-level fetch and persistence events.
	// Defaults to a discarding logger.
	Logger *slog.Logger

	// Env substitutes for the process environment when non-nil.
	// Tests use this to stay hermetic.
	Env map[string]string

	// WorkDir is where the project config file is looked up.
	// Defaults to the current directory.
	WorkDir string
}

// Scenario is a handle on a named, persisted collection of captured account
// state. See the package documentation for lookup order and persistence
// semantics.
//
// A Scenario is not safe for concurrent use.
type Scenario struct {
	name     string
	path     string
	endpoint string
	res      *resolver
	cfg      config
	logger   *slog.Logger
}

// Update is one post-execution account value pushed back by the execution
// engine via [Scenario.ApplyUpdates].
type Update struct {
	Address Address
	Account Account
}

// Open loads the scenario named name, creating an empty one if no snapshot
// exists on disk. The snapshot seeds the override tier, and the endpoint
// configuration is read once here; endpoint availability is fixed for the
// lifetime of the handle.
//
// Returns [ErrSnapshotCorrupt] or [ErrUnsupportedVersion] if the on-disk
// artifact cannot be trusted; it is never silently discarded or rebuilt.
func Open(name string, opts Options) (*Scenario, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cfg, err := resolveConfig(opts.WorkDir, opts)
	if err != nil {
		return nil, &Error{Scenario: name, Err: err}
	}

	path := scenarioPath(cfg.Dir, name)

	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, &Error{Scenario: name, Err: err}
	}

	var f *fetcher

	if cfg.Endpoint != "" {
		f = newFetcher(cfg.Endpoint, opts.HTTPClient, cfg.FetchTimeout, logger)
	}

	logger.Debug("scenario opened",
		"scenario", name,
		"path", path,
		"accounts", len(snap.Accounts),
		"fetching", f != nil,
	)

	return &Scenario{
		name:     name,
		path:     path,
		endpoint: cfg.Endpoint,
		res:      newResolver(snap.Accounts, f, logger),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Name returns the scenario name.
func (s *Scenario) Name() string {
	return s.name
}

// Path returns the on-disk snapshot artifact path.
func (s *Scenario) Path() string {
	return s.path
}

// Account resolves one account: override tier, then manual tier, then a
// one-time remote fetch. A state-changing resolution (a completed fetch) is
// persisted immediately before returning, so a crash after a successful
// fetch never loses it.
//
// Fails with [ErrAccountNotFound] when the address misses every tier and no
// endpoint is configured, [ErrFetch] when the endpoint cannot produce the
// account, and [ErrPersist] when the write-through save fails.
func (s *Scenario) Account(ctx context.Context, addr Address) (Account, error) {
	acct, err := s.res.resolve(ctx, addr)
	if err != nil {
		return Account{}, s.withScenario(err)
	}

	if s.res.dirty {
		persistErr := s.persist()
		if persistErr != nil {
			return Account{}, persistErr
		}
	}

	return acct, nil
}

// SetAccount injects a run-scoped fixture for accounts the test constructs
// itself, such as freshly generated keypairs. Manual accounts are never
// written to the snapshot and never shadow replay-authoritative state.
func (s *Scenario) SetAccount(addr Address, acct Account) {
	s.res.setManual(addr, acct)
}

// ApplyUpdates is the execution-engine handoff: after a unit of work mutates
// a set of accounts, the engine pushes the post-execution values here so
// subsequent reads and future runs see post-execution state consistently.
//
// All updates are recorded in the override tier, then persisted once.
func (s *Scenario) ApplyUpdates(updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		s.res.markOverride(u.Address, u.Account)
	}

	return s.persist()
}

// Airdrop credits lamports to addr, creating an empty system-owned account
// if the address is unknown. Accounts already captured as replay truth are
// updated in place (and persisted); everything else lands in the manual
// tier as a run-scoped fixture.
//
// Airdrop never fetches; it operates on in-memory state only.
func (s *Scenario) Airdrop(addr Address, lamports uint64) error {
	acct, ok := s.res.peek(addr)
	if !ok {
		acct = NewAccount(0, 0, SystemProgramID)
	}

	acct.Lamports += lamports

	if s.res.hasOverride(addr) {
		s.res.markOverride(addr, acct)

		return s.persist()
	}

	s.res.setManual(addr, acct)

	return nil
}

// SetAccountMock seeds a zero-lamport, system-owned, empty account in the
// manual tier. Useful as a transfer destination or placeholder.
func (s *Scenario) SetAccountMock(addr Address) {
	s.res.setManual(addr, NewAccount(0, 0, SystemProgramID))
}

// Accounts returns a copy of the replay-authoritative (override) tier.
// Manual fixtures are not included.
func (s *Scenario) Accounts() map[Address]Account {
	return s.res.overridesCopy()
}

// Addresses returns the override-tier addresses in canonical text order.
func (s *Scenario) Addresses() []Address {
	addrs := make([]Address, 0, len(s.res.overrides))

	for addr := range s.res.overrides {
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].String() < addrs[j].String()
	})

	return addrs
}

// persist writes the override tier through to disk and clears the dirty
// flag.
func (s *Scenario) persist() error {
	snap := snapshot{
		Name:     s.name,
		Accounts: s.res.overridesCopy(),
	}

	err := saveSnapshot(s.path, snap)
	if err != nil {
		return &Error{Scenario: s.name, Err: err}
	}

	s.res.clearDirty()

	s.logger.Debug("scenario persisted", "scenario", s.name, "accounts", len(snap.Accounts))

	return nil
}

// withScenario attaches the scenario name to resolver errors that don't
// already carry it.
func (s *Scenario) withScenario(err error) error {
	var sErr *Error

	if errors.As(err, &sErr) && sErr.Scenario == "" {
		sErr.Scenario = s.name

		return err
	}

	return &Error{Scenario: s.name, Err: err}
}

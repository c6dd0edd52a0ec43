package seashell

import (
	"errors"
	"strings"
)

// Sentinel errors returned by seashell operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, seashell.ErrAccountNotFound) {
//	    // set RPC_URL or inject the account with SetAccount
//	}
var (
	// ErrAccountNotFound indicates an address missed every lookup tier and
	// no remote endpoint was configured to fetch it.
	//
	// Recovery: set the endpoint, fix the scenario name, or inject the
	// account with [Scenario.SetAccount].
	ErrAccountNotFound = errors.New("seashell: account not found")

	// ErrFetch indicates the remote endpoint could not produce an account:
	// transport failure, timeout, or a protocol-level rejection, after
	// bounded retries. The override map is left unchanged.
	ErrFetch = errors.New("seashell: fetch failed")

	// ErrPersist indicates a snapshot write failed. The in-memory state is
	// intact but is no longer guaranteed to be reproducible on a later run.
	ErrPersist = errors.New("seashell: persist failed")

	// ErrSnapshotCorrupt indicates the snapshot file is damaged.
	//
	// Recovery: delete the scenario file and re-capture it.
	ErrSnapshotCorrupt = errors.New("seashell: snapshot corrupt")

	// ErrUnsupportedVersion indicates the snapshot file carries a format
	// version this build does not understand. No best-effort parsing is
	// attempted.
	ErrUnsupportedVersion = errors.New("seashell: unsupported snapshot version")

	// ErrInvalidAddress indicates a textual address did not decode to a
	// 32-byte key.
	ErrInvalidAddress = errors.New("seashell: invalid address")

	// ErrProgramNotFound indicates no compiled artifact for the requested
	// program name exists in the deploy directory.
	ErrProgramNotFound = errors.New("seashell: program artifact not found")
)

// Error is the uniform error type returned by Scenario operations.
//
// It carries structured context appended to the underlying message:
//
//	seashell: account not found: no endpoint configured (scenario=transfer address=B91p...)
//
// Use [errors.As] to extract fields, [errors.Is] to match sentinels:
//
//	var sErr *seashell.Error
//	if errors.As(err, &sErr) {
//	    fmt.Printf("failed for %s in scenario %s\n", sErr.Address, sErr.Scenario)
//	}
type Error struct {
	// Scenario is the scenario name, when known.
	Scenario string

	// Address is the canonical form of the account address involved, when
	// the failure concerns a single account.
	Address string

	// Endpoint is the remote endpoint URL for fetch failures.
	Endpoint string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (scenario=X address=Y endpoint=Z)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := "unknown error"
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()
	if suffix == "" {
		return cause
	}

	return cause + " (" + suffix + ")"
}

// Unwrap returns the underlying cause for errors.Is / errors.As traversal.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (e *Error) suffix() string {
	parts := make([]string, 0, 3)

	if e.Scenario != "" {
		parts = append(parts, "scenario="+e.Scenario)
	}

	if e.Address != "" {
		parts = append(parts, "address="+e.Address)
	}

	if e.Endpoint != "" {
		parts = append(parts, "endpoint="+e.Endpoint)
	}

	return strings.Join(parts, " ")
}

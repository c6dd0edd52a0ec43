package seashell

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/natefinch/atomic"
)

// Snapshot format constants.
const (
	snapshotVersion = 1
	snapshotExt     = ".json.gz"
)

// snapshot is the in-memory form of a scenario's persisted override tier.
type snapshot struct {
	Name     string
	Accounts map[Address]Account
}

// snapshotFile is the wire form: a versioned mapping of canonical address
// strings to account records, gzip-compressed on disk. Addresses within a
// file are unique by construction (JSON object keys).
type snapshotFile struct {
	Version  int                        `json:"version"`
	Name     string                     `json:"name"`
	Accounts map[string]snapshotAccount `json:"accounts"`
}

type snapshotAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       hexBytes `json:"data"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rent_epoch"`
}

// hexBytes marshals a byte payload as a hex string, so account data stays
// readable in decompressed snapshots and empty payloads encode as "".
type hexBytes []byte

func (h hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *hexBytes) UnmarshalJSON(data []byte) error {
	var s string

	err := json.Unmarshal(data, &s)
	if err != nil {
		return err
	}

	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}

	*h = raw

	return nil
}

// scenarioPath resolves the on-disk artifact for a scenario name.
func scenarioPath(dir, name string) string {
	return filepath.Join(dir, name+snapshotExt)
}

// loadSnapshot reads a snapshot from path.
//
// A missing file is not an error: it signals a new scenario and yields an
// empty snapshot. Any decode failure is fail-closed: [ErrSnapshotCorrupt]
// for damaged files, [ErrUnsupportedVersion] for unrecognized format
// versions. No best-effort parsing is attempted.
func loadSnapshot(path string) (snapshot, error) {
	name := scenarioName(path)

	raw, err := os.ReadFile(path) //nolint:gosec // path is constructed from the scenario dir
	if err != nil {
		if os.IsNotExist(err) {
			return snapshot{Name: name, Accounts: make(map[Address]Account)}, nil
		}

		return snapshot{}, fmt.Errorf("opening snapshot %s: %w", path, err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotCorrupt, path, err)
	}

	var file snapshotFile

	decoder := json.NewDecoder(gz)

	decodeErr := decoder.Decode(&file)
	if decodeErr != nil {
		return snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotCorrupt, path, decodeErr)
	}

	closeErr := gz.Close()
	if closeErr != nil {
		return snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotCorrupt, path, closeErr)
	}

	if file.Version != snapshotVersion {
		return snapshot{}, fmt.Errorf("%w: %s has version %d, want %d",
			ErrUnsupportedVersion, path, file.Version, snapshotVersion)
	}

	accounts := make(map[Address]Account, len(file.Accounts))

	for key, rec := range file.Accounts {
		addr, addrErr := ParseAddress(key)
		if addrErr != nil {
			return snapshot{}, fmt.Errorf("%w: %s: bad address key: %w", ErrSnapshotCorrupt, path, addrErr)
		}

		owner, ownerErr := ParseAddress(rec.Owner)
		if ownerErr != nil {
			return snapshot{}, fmt.Errorf("%w: %s: bad owner for %s: %w", ErrSnapshotCorrupt, path, key, ownerErr)
		}

		accounts[addr] = Account{
			Lamports:   rec.Lamports,
			Owner:      owner,
			Data:       rec.Data,
			Executable: rec.Executable,
			RentEpoch:  rec.RentEpoch,
		}
	}

	if file.Name != "" {
		name = file.Name
	}

	return snapshot{Name: name, Accounts: accounts}, nil
}

// saveSnapshot writes a snapshot to path atomically: the encoded bytes go to
// a temp file that is renamed over the target, so a crash mid-write never
// leaves a half-written file. The parent directory is created if absent.
//
// The encoded content is deterministic for the same logical accounts (JSON
// object keys are sorted), modulo gzip nondeterminism which does not affect
// decoded semantics.
func saveSnapshot(path string, snap snapshot) error {
	records := make(map[string]snapshotAccount, len(snap.Accounts))

	for addr, acct := range snap.Accounts {
		records[addr.String()] = snapshotAccount{
			Lamports:   acct.Lamports,
			Owner:      acct.Owner.String(),
			Data:       acct.Data,
			Executable: acct.Executable,
			RentEpoch:  acct.RentEpoch,
		}
	}

	file := snapshotFile{
		Version:  snapshotVersion,
		Name:     snap.Name,
		Accounts: records,
	}

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)

	encodeErr := json.NewEncoder(gz).Encode(file)

	closeErr := gz.Close()

	if err := errors.Join(encodeErr, closeErr); err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrPersist, path, err)
	}

	mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755)
	if mkdirErr != nil {
		return fmt.Errorf("%w: %w", ErrPersist, mkdirErr)
	}

	writeErr := atomic.WriteFile(path, &buf)
	if writeErr != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrPersist, path, writeErr)
	}

	return nil
}

// scenarioName recovers the scenario name from an artifact path.
func scenarioName(path string) string {
	base := filepath.Base(path)

	if name, ok := strings.CutSuffix(base, snapshotExt); ok {
		return name
	}

	return base
}

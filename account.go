package seashell

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLen is the byte length of an account address.
const AddressLen = 32

// Address is a 32-byte account identifier. Its canonical textual form is
// base58, matching the host ledger's key encoding.
//
// The zero Address is the system program id; its textual form is the
// all-ones base58 string.
type Address [AddressLen]byte

// SystemProgramID owns freshly created accounts ([Scenario.Airdrop],
// [Scenario.SetAccountMock]) and accounts fetched as explicit empty records.
var SystemProgramID Address

// ParseAddress decodes the canonical base58 form of an address.
// Returns [ErrInvalidAddress] if the input does not decode to 32 bytes.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}

	if len(raw) != AddressLen {
		return Address{}, fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAddress, s, len(raw), AddressLen)
	}

	var addr Address

	copy(addr[:], raw)

	return addr, nil
}

// String returns the canonical base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether a is the zero (system program) address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements [encoding.TextMarshaler]. Addresses marshal as
// their base58 form, which also makes them usable as JSON object keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Account is a single account's attributes: an addressed unit of ledger state.
//
// An Account is a value; resolution returns an independent copy, and mutations
// reach the scenario only through explicit [Scenario.SetAccount] or
// [Scenario.ApplyUpdates] calls.
type Account struct {
	// Lamports is the account balance.
	Lamports uint64

	// Owner is the program that owns this account.
	Owner Address

	// Data is the raw account payload. May be empty.
	Data []byte

	// Executable marks accounts holding loadable program code.
	Executable bool

	// RentEpoch is the epoch at which rent is next due.
	RentEpoch uint64
}

// NewAccount returns an account owned by owner with the given balance and
// a zeroed data payload of size bytes.
func NewAccount(lamports uint64, size int, owner Address) Account {
	return Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, size),
	}
}

// Clone returns a deep copy. The copy's Data shares no memory with a.
func (a Account) Clone() Account {
	out := a
	out.Data = bytes.Clone(a.Data)

	return out
}

// Equal reports whether two accounts carry identical state, byte-for-byte
// on the data payload. A nil and an empty payload compare equal.
func (a Account) Equal(b Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		a.RentEpoch == b.RentEpoch &&
		bytes.Equal(a.Data, b.Data)
}

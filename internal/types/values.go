// Package types provides common type definitions used across the backend
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Fixed byte sizes of the values exchanged with the foreign ledger.
const (
	HashLength      = common.HashLength    // 32
	AddressLength   = common.AddressLength // 20
	SignatureLength = 65
	AccountIDLength = 32
)

// ErrInvalidLength is returned when a fixed-size value is built from the wrong number of bytes.
var ErrInvalidLength = errors.New("invalid length")

// Hash32 is a 32-byte digest: trie roots and node hashes.
type Hash32 = common.Hash

// ForeignAddress identifies a foreign-chain key.
type ForeignAddress = common.Address

// AccountID is a local ledger account identifier.
type AccountID [AccountIDLength]byte

// Balance is an unsigned amount in the 128-bit range.
type Balance = uint256.Int

// MaxBalanceBits bounds every Balance read from a proof.
const MaxBalanceBits = 128

// HashFromBytes builds a Hash32 and rejects anything that is not exactly 32 bytes.
func HashFromBytes(b []byte) (Hash32, error) {
	var h Hash32
	if len(b) != HashLength {
		return h, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidLength, HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// AddressFromBytes builds a ForeignAddress and rejects anything that is not exactly 20 bytes.
func AddressFromBytes(b []byte) (ForeignAddress, error) {
	var a ForeignAddress
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: address must be %d bytes, got %d", ErrInvalidLength, AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AccountIDFromBytes builds an AccountID and rejects anything that is not exactly 32 bytes.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLength {
		return id, fmt.Errorf("%w: account id must be %d bytes, got %d", ErrInvalidLength, AccountIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ParseAccountID accepts a 0x-prefixed or bare 64 character hex string.
func ParseAccountID(s string) (AccountID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return AccountID{}, fmt.Errorf("invalid account id hex: %w", err)
	}
	return AccountIDFromBytes(raw)
}

// Bytes returns a copy of the account id bytes.
func (id AccountID) Bytes() []byte {
	out := make([]byte, AccountIDLength)
	copy(out, id[:])
	return out
}

// Hex returns the 0x-prefixed hex form.
func (id AccountID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id AccountID) String() string {
	return id.Hex()
}

// MarshalText implements encoding.TextMarshaler.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AccountID) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// RootInfo is the single trusted storage root of the deposit contract.
type RootInfo struct {
	StorageRoot     []byte    `json:"storage_root"`
	MetaBlockNumber uint64    `json:"meta_block_number"`
	IPFSPath        string    `json:"ipfs_path"`
	StateRoot       Hash32    `json:"state_root"` // root the account proof was verified against
	UpdatedBy       string    `json:"updated_by,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Clone returns a deep copy so snapshots never share the root buffer.
func (r RootInfo) Clone() RootInfo {
	out := r
	if r.StorageRoot != nil {
		out.StorageRoot = append([]byte(nil), r.StorageRoot...)
	}
	return out
}

// StorageRootHash interprets StorageRoot as a Hash32. The empty default root
// yields the zero hash, which no proof node can hash to.
func (r RootInfo) StorageRootHash() Hash32 {
	return common.BytesToHash(r.StorageRoot)
}

// RootMeta carries the metadata that accompanies a root update.
type RootMeta struct {
	BlockNumber uint64 `json:"block_number"`
	IPFSPath    string `json:"ipfs_path"`
}

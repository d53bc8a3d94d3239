// Package mpt verifies Merkle-Patricia-Trie inclusion proofs taken from the
// foreign ledger and decodes the records they prove.
//
// Nodes are hashed with the local ledger hash (blake2b-256). A proof is the
// list of raw node encodings on the path from the root to the key, root first.
package mpt

import (
	"bytes"
	"fmt"

	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

const (
	shortNodeItems  = 2
	branchNodeItems = 17
	branchValueSlot = 16
)

// Default resource bounds. Proof length and node size are attacker controlled.
const (
	DefaultMaxProofDepth = 64
	DefaultMaxNodeSize   = 4096
)

// Limits bounds the work a single verification may do.
type Limits struct {
	MaxProofDepth int // maximum number of nodes in a proof
	MaxNodeSize   int // maximum encoded size of one node in bytes
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxProofDepth: DefaultMaxProofDepth,
		MaxNodeSize:   DefaultMaxNodeSize,
	}
}

// Verifier checks inclusion proofs. It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	limits Limits
}

// NewVerifier creates a verifier. Non-positive limits fall back to the defaults.
func NewVerifier(limits Limits) *Verifier {
	if limits.MaxProofDepth <= 0 {
		limits.MaxProofDepth = DefaultMaxProofDepth
	}
	if limits.MaxNodeSize <= 0 {
		limits.MaxNodeSize = DefaultMaxNodeSize
	}
	return &Verifier{limits: limits}
}

// Limits returns the bounds this verifier enforces.
func (v *Verifier) Limits() Limits {
	return v.limits
}

// Verify walks proof from root along the nibble path of key and returns the
// value stored at key.
func (v *Verifier) Verify(root types.Hash32, proof [][]byte, key []byte) ([]byte, error) {
	if len(proof) > v.limits.MaxProofDepth {
		return nil, fmt.Errorf("%w: %d nodes, limit %d", ErrProofTooDeep, len(proof), v.limits.MaxProofDepth)
	}

	path := KeyToNibbles(key)
	cursor := 0
	want := root.Bytes()

	for i, node := range proof {
		if len(node) > v.limits.MaxNodeSize {
			return nil, fmt.Errorf("%w: node %d is %d bytes, limit %d", ErrNodeTooLarge, i, len(node), v.limits.MaxNodeSize)
		}
		if got := utils.LocalHash(node); !bytes.Equal(got[:], want) {
			return nil, fmt.Errorf("%w: node %d hashes to %x, expected %x", ErrProofIntegrityMismatch, i, got, want)
		}

		items, err := DecodeList(node)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		switch len(items) {
		case shortNodeItems:
			nibbles, terminal, err := DecodeHexPrefix(items[0])
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			end := cursor + len(nibbles)
			if end > len(path) || !bytes.Equal(nibbles, path[cursor:end]) {
				return nil, fmt.Errorf("%w: path diverges at node %d", ErrKeyNotInProof, i)
			}
			cursor = end
			if terminal {
				if cursor != len(path) {
					return nil, fmt.Errorf("%w: leaf at node %d leaves %d nibbles unresolved", ErrProofTooShort, i, len(path)-cursor)
				}
				return copyBytes(items[1]), nil
			}
			want = items[1]

		case branchNodeItems:
			if cursor == len(path) {
				if len(items[branchValueSlot]) == 0 {
					return nil, fmt.Errorf("%w: branch at node %d has no value", ErrInvalidNode, i)
				}
				return copyBytes(items[branchValueSlot]), nil
			}
			child := items[path[cursor]]
			cursor++
			if len(child) == 0 {
				return nil, fmt.Errorf("%w: empty branch slot at node %d", ErrKeyNotInProof, i)
			}
			want = child

		default:
			return nil, fmt.Errorf("%w: node %d has %d items", ErrInvalidRLP, i, len(items))
		}
	}
	return nil, fmt.Errorf("%w: %d nodes consumed, %d nibbles unresolved", ErrProofTooShort, len(proof), len(path)-cursor)
}

func copyBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

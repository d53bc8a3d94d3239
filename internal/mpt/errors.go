package mpt

import "errors"

// Proof and encoding failures. All of them are terminal for the input that produced them.
var (
	ErrProofIntegrityMismatch = errors.New("proof node hash does not match expected hash")
	ErrKeyNotInProof          = errors.New("key is not in proof")
	ErrProofTooShort          = errors.New("proof ended before the key was resolved")
	ErrInvalidNode            = errors.New("invalid trie node")
	ErrInvalidAccount         = errors.New("invalid account record")
	ErrInvalidRLP             = errors.New("invalid rlp")

	ErrProofTooDeep = errors.New("proof has too many nodes")
	ErrNodeTooLarge = errors.New("proof node exceeds size limit")
)

package utils

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// LocalHash is the local ledger's hash: blake2b-256 over the concatenated inputs.
// Trie nodes, signed messages and account keys are hashed with it.
func LocalHash(data ...[]byte) common.Hash {
	h, _ := blake2b.New256(nil) // only fails for keys longer than 64 bytes
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// ForeignHash is the foreign ledger's native hash (keccak256).
func ForeignHash(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

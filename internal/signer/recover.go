// Package signer recovers foreign-chain identities from detached signatures.
package signer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

var (
	// ErrRecoveryFailed is returned for any signature that does not recover to a public key.
	ErrRecoveryFailed = errors.New("signature recovery failed")
	// ErrInvalidSignatureLength is always wrapped together with ErrRecoveryFailed.
	ErrInvalidSignatureLength = errors.New("invalid signature length")
)

const recoveryIDOffset = 27

// MessageDigest is the digest a claim signature covers: the local ledger hash
// of the raw signed bytes. No foreign-chain message prefix is applied.
func MessageDigest(raw []byte) types.Hash32 {
	return utils.LocalHash(raw)
}

// Recover returns the address of the secp256k1 key that produced sig over digest.
// sig is r ++ s ++ v with v in {0, 1, 27, 28}.
func Recover(sig []byte, digest types.Hash32) (types.ForeignAddress, error) {
	if len(sig) != types.SignatureLength {
		return types.ForeignAddress{}, fmt.Errorf("%w: %w: expected %d bytes, got %d",
			ErrRecoveryFailed, ErrInvalidSignatureLength, types.SignatureLength, len(sig))
	}

	normalized := make([]byte, types.SignatureLength)
	copy(normalized, sig)
	if v := normalized[crypto.RecoveryIDOffset]; v >= recoveryIDOffset {
		normalized[crypto.RecoveryIDOffset] = v - recoveryIDOffset
	}
	if normalized[crypto.RecoveryIDOffset] > 1 {
		return types.ForeignAddress{}, fmt.Errorf("%w: invalid recovery id %d", ErrRecoveryFailed, sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.Ecrecover(digest.Bytes(), normalized)
	if err != nil {
		return types.ForeignAddress{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}
	return PubkeyToAddress(pub)
}

// PubkeyToAddress hashes an uncompressed 65-byte public key without its
// format byte and keeps the last 20 bytes.
func PubkeyToAddress(pub []byte) (types.ForeignAddress, error) {
	if len(pub) != 65 || pub[0] != 0x04 {
		return types.ForeignAddress{}, fmt.Errorf("%w: malformed public key", ErrRecoveryFailed)
	}
	h := utils.ForeignHash(pub[1:])
	return types.AddressFromBytes(h[12:])
}

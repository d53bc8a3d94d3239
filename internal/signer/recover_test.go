package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	digest := MessageDigest([]byte("swap to 5Grw"))
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	got, err := Recover(sig, digest)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Legacy 27/28 recovery ids are accepted.
	legacy := append([]byte(nil), sig...)
	legacy[64] += 27
	got, err = Recover(legacy, digest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, sig[64], legacy[64]-27, "input must not be mutated")
}

func TestRecoverDifferentDigest(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(MessageDigest([]byte("swap to A")).Bytes(), key)
	require.NoError(t, err)

	got, err := Recover(sig, MessageDigest([]byte("swap to B")))
	if err == nil {
		assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), got)
	} else {
		assert.ErrorIs(t, err, ErrRecoveryFailed)
	}
}

func TestRecoverFailures(t *testing.T) {
	digest := MessageDigest([]byte("payload"))

	_, err := Recover(make([]byte, 64), digest)
	assert.ErrorIs(t, err, ErrRecoveryFailed)
	assert.ErrorIs(t, err, ErrInvalidSignatureLength)

	_, err = Recover(make([]byte, 65), digest)
	assert.ErrorIs(t, err, ErrRecoveryFailed)

	bad := make([]byte, 65)
	bad[0], bad[32], bad[64] = 1, 1, 5
	_, err = Recover(bad, digest)
	assert.ErrorIs(t, err, ErrRecoveryFailed)
}

func TestMessageDigestIsLocalHash(t *testing.T) {
	// blake2b-256 of the empty input.
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		MessageDigest(nil).Hex()[2:])
}

package mpt

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestKeyToNibbles(t *testing.T) {
	assert.Equal(t, []byte{0x1, 0x2, 0xa, 0xb, 0x0, 0xf}, KeyToNibbles([]byte{0x12, 0xab, 0x0f}))
	assert.Empty(t, KeyToNibbles(nil))
}

func TestHexPrefix(t *testing.T) {
	for _, tc := range []struct {
		prefix   []byte
		nibbles  []byte
		terminal bool
	}{
		{[]byte{0x00, 0x12}, []byte{0x1, 0x2}, false},
		{[]byte{0x13, 0x45}, []byte{0x3, 0x4, 0x5}, false},
		{[]byte{0x20, 0xab}, []byte{0xa, 0xb}, true},
		{[]byte{0x3c}, []byte{0xc}, true},
		{[]byte{0x20}, []byte{}, true},
	} {
		nibbles, terminal, err := DecodeHexPrefix(tc.prefix)
		require.NoError(t, err)
		assert.Equal(t, tc.nibbles, nibbles)
		assert.Equal(t, tc.terminal, terminal)
		assert.Equal(t, tc.prefix, EncodeHexPrefix(tc.nibbles, tc.terminal))
	}

	for _, bad := range [][]byte{nil, {0x40}, {0x01, 0x23}} {
		_, _, err := DecodeHexPrefix(bad)
		assert.ErrorIs(t, err, ErrInvalidNode, "%x", bad)
	}
}

func TestDecodeList(t *testing.T) {
	nested, err := rlp.EncodeToBytes([]interface{}{[]byte{0x01}, []interface{}{uint64(5)}, []byte("dog")})
	require.NoError(t, err)

	items, err := DecodeList(nested)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []byte{0x01}, items[0])
	assert.Equal(t, []byte{0xc1, 0x05}, items[1])
	assert.Equal(t, []byte("dog"), items[2])

	_, err = DecodeList(append(nested, 0x00))
	assert.ErrorIs(t, err, ErrInvalidRLP)

	_, err = DecodeList([]byte{0xc3, 0x01})
	assert.ErrorIs(t, err, ErrInvalidRLP)
}

func TestExtractStorageRoot(t *testing.T) {
	storageRoot := bytes.Repeat([]byte{0xaa}, 32)
	codeHash := bytes.Repeat([]byte{0xbb}, 32)

	record, err := rlp.EncodeToBytes([]interface{}{uint64(1000), uint64(5), uint64(1700000000), []byte{}, codeHash, storageRoot})
	require.NoError(t, err)
	got, err := ExtractStorageRoot(record)
	require.NoError(t, err)
	assert.Equal(t, storageRoot, got)
	assert.Len(t, got, 32, "block time must not be mistaken for the storage root")

	short, err := rlp.EncodeToBytes([]interface{}{uint64(1000), uint64(5), uint64(1700000000), []byte{}, codeHash})
	require.NoError(t, err)
	_, err = ExtractStorageRoot(short)
	assert.ErrorIs(t, err, ErrInvalidAccount)

	_, err = ExtractStorageRoot([]byte{0x82, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestDecodeBalance(t *testing.T) {
	for hexIn, want := range map[string]uint64{
		"80":     0,
		"05":     5,
		"7f":     127,
		"8180":   128,
		"81c8":   200,
		"820100": 256,
	} {
		got, err := DecodeBalance(common.FromHex(hexIn))
		require.NoError(t, err, hexIn)
		assert.Equal(t, want, got.Uint64(), hexIn)
	}

	max128, err := DecodeBalance(append([]byte{0x90}, bytes.Repeat([]byte{0xff}, 16)...))
	require.NoError(t, err)
	assert.Equal(t, 128, max128.BitLen())

	for _, bad := range []string{
		"",
		"00",
		"8105",
		"8200c8",
		"c0",
		"81c800",
		"9101" + "00000000000000000000000000000000",
	} {
		_, err := DecodeBalance(common.FromHex(bad))
		assert.ErrorIs(t, err, ErrInvalidRLP, bad)
	}
}

func TestStorageKeys(t *testing.T) {
	addr := common.HexToAddress("0x2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a2a")

	layout := make([]byte, 64)
	copy(layout[12:32], addr[:])
	inner := crypto.Keccak256(layout)
	want := blake2b.Sum256(inner)
	assert.Equal(t, want[:], DepositorStorageKey(addr))

	single := blake2b.Sum256(addr[:])
	assert.Equal(t, single[:], AccountKey(addr))

	// The claim key must not collapse into a single hash of the layout.
	collapsed := blake2b.Sum256(layout)
	assert.NotEqual(t, collapsed[:], DepositorStorageKey(addr))
	assert.NotEqual(t, AccountKey(addr), DepositorStorageKey(addr))
}

package services

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

func testDestination(fill byte) (types.AccountID, string) {
	var id types.AccountID
	copy(id[:], bytes.Repeat([]byte{fill}, types.AccountIDLength))
	return id, utils.EncodeSS58(42, id[:])
}

func claimMessage(content string) []byte {
	return []byte(fmt.Sprintf(`{"payload":{"content":%q,"nonce":7},"version":"1"}`, content))
}

func TestClaimMessageParse(t *testing.T) {
	parser := NewClaimMessageParser(ClaimMessageFormat{})
	want, dest := testDestination(0xd4)

	got, err := parser.Parse(claimMessage("swap to " + dest))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClaimMessageCustomPrefix(t *testing.T) {
	parser := NewClaimMessageParser(ClaimMessageFormat{Prefix: "bridge:"})
	want, dest := testDestination(0x01)

	got, err := parser.Parse(claimMessage("bridge:" + dest))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parser.Parse(claimMessage("swap to " + dest))
	assert.ErrorIs(t, err, ErrPrefixMismatch)
}

func TestClaimMessageErrors(t *testing.T) {
	parser := NewClaimMessageParser(DefaultClaimMessageFormat())
	_, dest := testDestination(0x7e)

	for name, tc := range map[string]struct {
		raw  []byte
		want error
	}{
		"not json":             {[]byte("swap to " + dest), ErrInvalidEncoding},
		"truncated json":       {[]byte(`{"payload":{"content":"swap`), ErrInvalidEncoding},
		"no payload":           {[]byte(`{"content":"swap to x"}`), ErrContentFieldMissing},
		"array document":       {[]byte(`[1,2]`), ErrContentFieldMissing},
		"string document":      {[]byte(`"swap to x"`), ErrContentFieldMissing},
		"number document":      {[]byte(`42`), ErrContentFieldMissing},
		"null document":        {[]byte(`null`), ErrContentFieldMissing},
		"payload not object":   {[]byte(`{"payload":"swap to x"}`), ErrContentFieldMissing},
		"no content":           {[]byte(`{"payload":{"body":"swap to x"}}`), ErrContentFieldMissing},
		"content not string":   {[]byte(`{"payload":{"content":42}}`), ErrContentFieldMissing},
		"missing prefix":       {claimMessage(dest), ErrPrefixMismatch},
		"prefix case differs":  {claimMessage("Swap to " + dest), ErrPrefixMismatch},
		"prefix without space": {claimMessage("swap to" + dest), ErrPrefixMismatch},
		"empty destination":    {claimMessage("swap to "), ErrInvalidDestinationEncoding},
		"bad base58 character": {claimMessage("swap to 0OIl"), ErrInvalidDestinationEncoding},
		"short destination":    {claimMessage("swap to " + base58.Encode(make([]byte, 34))), ErrInvalidDestinationEncoding},
		"long destination":     {claimMessage("swap to " + base58.Encode(bytes.Repeat([]byte{1}, 36))), ErrInvalidDestinationEncoding},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDestinationOffset(t *testing.T) {
	decoded := make([]byte, utils.DestinationDecodedLength)
	for i := range decoded {
		decoded[i] = byte(i + 1)
	}
	parser := NewClaimMessageParser(ClaimMessageFormat{})

	got, err := parser.Parse(claimMessage("swap to " + base58.Encode(decoded)))
	require.NoError(t, err)
	assert.Equal(t, decoded[1:33], got.Bytes())
}

package mpt

import (
	"fmt"

	"github.com/holiman/uint256"

	"swap-backend/internal/types"
)

// DecodeBalance reads an RLP scalar: a canonical big-endian unsigned integer
// with no leading zero byte, at most 128 bits wide.
func DecodeBalance(b []byte) (*types.Balance, error) {
	payload, err := DecodeString(b)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 && payload[0] == 0 {
		return nil, fmt.Errorf("%w: scalar has leading zero byte", ErrInvalidRLP)
	}
	if len(payload)*8 > types.MaxBalanceBits {
		return nil, fmt.Errorf("%w: scalar is %d bytes, limit %d", ErrInvalidRLP, len(payload), types.MaxBalanceBits/8)
	}
	return new(uint256.Int).SetBytes(payload), nil
}

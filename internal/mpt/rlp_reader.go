package mpt

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// DecodeList reads b as exactly one RLP list and returns its items in order.
// String items are returned as their payload; nested lists keep their full
// encoding so they can be decoded again. Returned slices alias b.
func DecodeList(b []byte) ([][]byte, error) {
	content, rest, err := rlp.SplitList(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRLP, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after list", ErrInvalidRLP, len(rest))
	}
	count, err := rlp.CountValues(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRLP, err)
	}

	items := make([][]byte, 0, count)
	for len(content) > 0 {
		kind, val, tail, err := rlp.Split(content)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidRLP, len(items), err)
		}
		if kind == rlp.List {
			val = content[:len(content)-len(tail)]
		}
		items = append(items, val)
		content = tail
	}
	return items, nil
}

// DecodeString reads b as exactly one RLP string and returns its payload.
func DecodeString(b []byte) ([]byte, error) {
	kind, val, rest, err := rlp.Split(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRLP, err)
	}
	if kind == rlp.List {
		return nil, fmt.Errorf("%w: expected string, got list", ErrInvalidRLP)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after string", ErrInvalidRLP, len(rest))
	}
	return val, nil
}

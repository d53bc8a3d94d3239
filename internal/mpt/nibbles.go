package mpt

import "fmt"

// Hex-prefix flags carried in the first nibble of a short node's path.
const (
	flagOddLength = 0x10
	flagTerminal  = 0x20
)

// KeyToNibbles expands key into half-bytes, high nibble first.
func KeyToNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	return nibbles
}

// DecodeHexPrefix expands the compact path of a short node. The flag nibble is
// dropped; the nibble after it belongs to the path only for odd-length paths.
func DecodeHexPrefix(prefix []byte) (nibbles []byte, terminal bool, err error) {
	if len(prefix) == 0 {
		return nil, false, fmt.Errorf("%w: empty short node path", ErrInvalidNode)
	}
	flags := prefix[0] & 0xf0
	if flags&^(flagOddLength|flagTerminal) != 0 {
		return nil, false, fmt.Errorf("%w: unknown path flags %#x", ErrInvalidNode, flags)
	}
	terminal = flags&flagTerminal != 0

	expanded := KeyToNibbles(prefix)
	if flags&flagOddLength != 0 {
		return expanded[1:], terminal, nil
	}
	if expanded[1] != 0 {
		return nil, false, fmt.Errorf("%w: non-zero padding nibble in even path", ErrInvalidNode)
	}
	return expanded[2:], terminal, nil
}

// EncodeHexPrefix is the inverse of DecodeHexPrefix.
func EncodeHexPrefix(nibbles []byte, terminal bool) []byte {
	var flags byte
	if terminal {
		flags = flagTerminal
	}
	out := make([]byte, len(nibbles)/2+1)
	rest := nibbles
	if len(nibbles)%2 == 1 {
		flags |= flagOddLength | nibbles[0]
		rest = nibbles[1:]
	}
	out[0] = flags
	for i := 0; i < len(rest); i += 2 {
		out[i/2+1] = rest[i]<<4 | rest[i+1]
	}
	return out
}

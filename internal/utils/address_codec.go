package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// SS58-style destination layout: one format byte, the 32-byte account id, a 2-byte checksum.
const (
	DestinationDecodedLength = 35
	DestinationAccountOffset = 1
	DestinationChecksumBytes = 2
)

var (
	ErrInvalidBase58   = errors.New("invalid base58 string")
	ErrInvalidEvmHex   = errors.New("invalid foreign address")
	evmAddressPattern  = regexp.MustCompile("^(0x|0X)?[0-9a-fA-F]{40}$")
	ss58ChecksumPrefix = []byte("SS58PRE")
)

// IsEvmAddress checks for a 20-byte hex address with or without the 0x prefix.
func IsEvmAddress(address string) bool {
	return evmAddressPattern.MatchString(address)
}

// NormalizeForeignAddress parses a foreign-chain address in any casing.
func NormalizeForeignAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !IsEvmAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidEvmHex, address)
	}
	if !strings.HasPrefix(strings.ToLower(address), "0x") {
		address = "0x" + address
	}
	return common.HexToAddress(address), nil
}

// DecodeBase58Account decodes encoded, checks its decoded length and returns
// the size bytes that start at offset.
func DecodeBase58Account(encoded string, decodedLength, offset, size int) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBase58)
	}
	decoded, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase58, err)
	}
	if len(decoded) != decodedLength {
		return nil, fmt.Errorf("%w: decoded length %d, expected %d", ErrInvalidBase58, len(decoded), decodedLength)
	}
	if offset < 0 || offset+size > len(decoded) {
		return nil, fmt.Errorf("%w: slice [%d:%d] out of range", ErrInvalidBase58, offset, offset+size)
	}
	out := make([]byte, size)
	copy(out, decoded[offset:offset+size])
	return out, nil
}

// EncodeSS58 builds the destination string for a 32-byte account id under a
// single-byte network format.
func EncodeSS58(format byte, account []byte) string {
	payload := make([]byte, 0, DestinationDecodedLength)
	payload = append(payload, format)
	payload = append(payload, account...)
	payload = append(payload, ss58Checksum(payload)...)
	return base58.Encode(payload)
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58ChecksumPrefix)
	h.Write(payload)
	return h.Sum(nil)[:DestinationChecksumBytes]
}

package mpt

import (
	"github.com/ethereum/go-ethereum/common"

	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

// DepositSlot is the storage slot of the deposit contract's depositor mapping.
const DepositSlot = 0

// DepositorStorageKey derives the trie key of addr's entry in the deposit
// mapping: local(foreign(bytes32(addr) ++ bytes32(slot))). Both hashes are
// part of the key format.
func DepositorStorageKey(addr types.ForeignAddress) []byte {
	var layout [2 * common.HashLength]byte
	copy(layout[common.HashLength-common.AddressLength:common.HashLength], addr[:])
	layout[2*common.HashLength-1] = DepositSlot
	slot := utils.ForeignHash(layout[:])
	key := utils.LocalHash(slot[:])
	return key[:]
}

// AccountKey derives the trie key of an account record: a single local hash of the address.
func AccountKey(addr types.ForeignAddress) []byte {
	key := utils.LocalHash(addr[:])
	return key[:]
}

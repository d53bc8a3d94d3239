package mpt

import "fmt"

// Account record layout: balance, energy, block time, master, code hash, storage root.
const (
	accountRecordItems = 6
	StorageRootIndex   = 5
)

// ExtractStorageRoot returns the storage root field of an RLP account record.
func ExtractStorageRoot(account []byte) ([]byte, error) {
	items, err := DecodeList(account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if len(items) != accountRecordItems {
		return nil, fmt.Errorf("%w: %d fields, expected %d", ErrInvalidAccount, len(items), accountRecordItems)
	}
	return copyBytes(items[StorageRootIndex]), nil
}

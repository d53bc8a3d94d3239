package models

import (
	"time"
)

// ============ Claims ============

// ClaimRecord latest claimed balance per foreign address. Never decreases, never deleted.
type ClaimRecord struct {
	ForeignAddress string `json:"foreign_address" gorm:"primaryKey;size:42"`          // 0x-prefixed lowercase hex
	ClaimedBalance string `json:"claimed_balance" gorm:"type:numeric(39,0);not null"` // absolute, decimal
	ClaimCount     uint64 `json:"claim_count" gorm:"not null;default:0"`
	LastClaimID    string `json:"last_claim_id" gorm:"size:36"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ClaimRecord) TableName() string {
	return "claim_records"
}

// AccountBalance minted balance of a local account
type AccountBalance struct {
	AccountID string `json:"account_id" gorm:"primaryKey;size:66"`
	Balance   string `json:"balance" gorm:"type:numeric(39,0);not null"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (AccountBalance) TableName() string {
	return "account_balances"
}

// ClaimEvent ClaimRecorded side effect, written in the same transaction as the claim
type ClaimEvent struct {
	ID              string `json:"id" gorm:"primaryKey;size:36"` // UUID, also the receipt id
	Signer          string `json:"signer" gorm:"size:42;not null;index"`
	Destination     string `json:"destination" gorm:"size:66;not null;index"`
	Amount          string `json:"amount" gorm:"type:numeric(39,0);not null"`        // minted delta
	TotalClaimed    string `json:"total_claimed" gorm:"type:numeric(39,0);not null"` // new ClaimRecord value
	RootBlockNumber uint64 `json:"root_block_number"`                                // meta block of the root the proof was checked against

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (ClaimEvent) TableName() string {
	return "claim_events"
}

// ============ Trusted root ============

// RootInfoSingletonID the root_infos table holds exactly one row
const RootInfoSingletonID = 1

// RootInfoRecord persisted RootInfo
type RootInfoRecord struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	StorageRoot     string `json:"storage_root" gorm:"size:66"` // 0x-prefixed hex
	StateRoot       string `json:"state_root" gorm:"size:66"`   // root the account proof was verified against
	MetaBlockNumber uint64 `json:"meta_block_number"`
	IPFSPath        string `json:"ipfs_path" gorm:"size:255"`
	UpdatedBy       string `json:"updated_by" gorm:"size:100"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (RootInfoRecord) TableName() string {
	return "root_infos"
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swap-backend/internal/models"
	"swap-backend/internal/types"
)

// ErrBalanceOverflow is returned when a stored or credited amount leaves the 128-bit range.
var ErrBalanceOverflow = errors.New("balance overflow")

// ClaimTx is the view of the store inside one atomic claim unit.
// Nothing written through it is visible to other callers until the unit commits.
type ClaimTx interface {
	Minter

	// ClaimedBalance returns the latest claimed balance of signer, zero when never claimed.
	ClaimedBalance(signer types.ForeignAddress) (*types.Balance, error)
	// SetClaimedBalance stores the absolute claimed balance of signer.
	SetClaimedBalance(signer types.ForeignAddress, balance *types.Balance, claimID string) error
	// RecordEvent appends a ClaimRecorded event row.
	RecordEvent(event *models.ClaimEvent) error
}

// ClaimStore defines the interface for claim bookkeeping
type ClaimStore interface {
	// Atomic runs fn as one unit for signer. Any error from fn discards every write it made.
	Atomic(ctx context.Context, signer types.ForeignAddress, fn func(tx ClaimTx) error) error

	// Read-only queries
	ClaimedBalance(ctx context.Context, signer types.ForeignAddress) (*types.Balance, error)
	GetClaimRecord(ctx context.Context, signer types.ForeignAddress) (*models.ClaimRecord, error)
	AccountBalance(ctx context.Context, account types.AccountID) (*types.Balance, error)
	FindEventsBySigner(ctx context.Context, signer types.ForeignAddress, limit int) ([]*models.ClaimEvent, error)
}

// claimStore implements ClaimStore on gorm
type claimStore struct {
	db *gorm.DB
}

// NewClaimStore creates a new gorm backed ClaimStore
func NewClaimStore(db *gorm.DB) ClaimStore {
	return &claimStore{db: db}
}

func (s *claimStore) Atomic(ctx context.Context, signer types.ForeignAddress, fn func(tx ClaimTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&claimTx{db: tx, known: make(map[string]bool)})
	})
}

func (s *claimStore) ClaimedBalance(ctx context.Context, signer types.ForeignAddress) (*types.Balance, error) {
	record, err := s.GetClaimRecord(ctx, signer)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(types.Balance), nil
	}
	if err != nil {
		return nil, err
	}
	return balanceFromColumn(record.ClaimedBalance)
}

func (s *claimStore) GetClaimRecord(ctx context.Context, signer types.ForeignAddress) (*models.ClaimRecord, error) {
	var record models.ClaimRecord
	err := s.db.WithContext(ctx).Where("foreign_address = ?", AddressKey(signer)).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *claimStore) AccountBalance(ctx context.Context, account types.AccountID) (*types.Balance, error) {
	var row models.AccountBalance
	err := s.db.WithContext(ctx).Where("account_id = ?", account.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(types.Balance), nil
	}
	if err != nil {
		return nil, err
	}
	return balanceFromColumn(row.Balance)
}

func (s *claimStore) FindEventsBySigner(ctx context.Context, signer types.ForeignAddress, limit int) ([]*models.ClaimEvent, error) {
	var events []*models.ClaimEvent
	err := s.db.WithContext(ctx).
		Where("signer = ?", AddressKey(signer)).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// claimTx runs on an open gorm transaction
type claimTx struct {
	db    *gorm.DB
	known map[string]bool // signers whose claim_records row was seen in this transaction
}

func (t *claimTx) ClaimedBalance(signer types.ForeignAddress) (*types.Balance, error) {
	key := AddressKey(signer)
	var record models.ClaimRecord
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("foreign_address = ?", key).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.known[key] = false
		return new(types.Balance), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock claim record: %w", err)
	}
	t.known[key] = true
	return balanceFromColumn(record.ClaimedBalance)
}

func (t *claimTx) SetClaimedBalance(signer types.ForeignAddress, balance *types.Balance, claimID string) error {
	key := AddressKey(signer)
	column, err := balanceColumn(balance)
	if err != nil {
		return err
	}

	if !t.known[key] {
		// Primary key conflict with a concurrent first claim aborts this transaction.
		record := &models.ClaimRecord{
			ForeignAddress: key,
			ClaimedBalance: column,
			ClaimCount:     1,
			LastClaimID:    claimID,
		}
		if err := t.db.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create claim record: %w", err)
		}
		t.known[key] = true
		return nil
	}

	err = t.db.Model(&models.ClaimRecord{}).
		Where("foreign_address = ?", key).
		Updates(map[string]interface{}{
			"claimed_balance": column,
			"claim_count":     gorm.Expr("claim_count + 1"),
			"last_claim_id":   claimID,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update claim record: %w", err)
	}
	return nil
}

func (t *claimTx) RecordEvent(event *models.ClaimEvent) error {
	if err := t.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to record claim event: %w", err)
	}
	return nil
}

// AddressKey is the storage form of a foreign address.
func AddressKey(addr types.ForeignAddress) string {
	return strings.ToLower(addr.Hex())
}

func balanceColumn(b *types.Balance) (string, error) {
	if b.BitLen() > types.MaxBalanceBits {
		return "", ErrBalanceOverflow
	}
	return b.Dec(), nil
}

func balanceFromColumn(s string) (*types.Balance, error) {
	if s == "" {
		return new(types.Balance), nil
	}
	b, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("corrupt balance column %q: %w", s, err)
	}
	return b, nil
}

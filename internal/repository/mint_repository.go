package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swap-backend/internal/models"
	"swap-backend/internal/types"
)

// Minter credits local accounts. Mint either credits the full amount or fails with no effect.
type Minter interface {
	Mint(account types.AccountID, amount *types.Balance) error
}

// CreditBalance adds amount to current and rejects results outside the 128-bit range.
func CreditBalance(current, amount *types.Balance) (*types.Balance, error) {
	sum, overflow := new(types.Balance).AddOverflow(current, amount)
	if overflow || sum.BitLen() > types.MaxBalanceBits {
		return nil, fmt.Errorf("%w: %s + %s", ErrBalanceOverflow, current.Dec(), amount.Dec())
	}
	return sum, nil
}

func (t *claimTx) Mint(account types.AccountID, amount *types.Balance) error {
	key := account.Hex()

	var row models.AccountBalance
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", key).
		First(&row).Error
	exists := true
	if errors.Is(err, gorm.ErrRecordNotFound) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("failed to lock account balance: %w", err)
	}

	current, err := balanceFromColumn(row.Balance)
	if err != nil {
		return err
	}
	next, err := CreditBalance(current, amount)
	if err != nil {
		return err
	}

	if !exists {
		return t.db.Create(&models.AccountBalance{AccountID: key, Balance: next.Dec()}).Error
	}
	return t.db.Model(&models.AccountBalance{}).
		Where("account_id = ?", key).
		Update("balance", next.Dec()).Error
}

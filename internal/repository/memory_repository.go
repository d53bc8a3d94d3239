package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"swap-backend/internal/models"
	"swap-backend/internal/types"
)

// MemoryClaimStore is a process-local ClaimStore. Atomic units are serialised
// and staged, so a failing unit leaves no trace.
type MemoryClaimStore struct {
	mu       sync.RWMutex
	claims   map[string]models.ClaimRecord
	balances map[types.AccountID]*types.Balance
	events   []*models.ClaimEvent
}

// NewMemoryClaimStore creates an empty in-memory ClaimStore
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{
		claims:   make(map[string]models.ClaimRecord),
		balances: make(map[types.AccountID]*types.Balance),
	}
}

func (s *MemoryClaimStore) Atomic(ctx context.Context, signer types.ForeignAddress, fn func(tx ClaimTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryClaimTx{
		store:    s,
		claims:   make(map[string]models.ClaimRecord),
		balances: make(map[types.AccountID]*types.Balance),
	}
	if err := fn(tx); err != nil {
		return err
	}

	now := time.Now()
	for key, record := range tx.claims {
		if existing, ok := s.claims[key]; ok {
			record.CreatedAt = existing.CreatedAt
		} else {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		s.claims[key] = record
	}
	for account, balance := range tx.balances {
		s.balances[account] = balance
	}
	for _, event := range tx.events {
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
		s.events = append(s.events, event)
	}
	return nil
}

func (s *MemoryClaimStore) ClaimedBalance(ctx context.Context, signer types.ForeignAddress) (*types.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.claims[AddressKey(signer)]
	if !ok {
		return new(types.Balance), nil
	}
	return balanceFromColumn(record.ClaimedBalance)
}

func (s *MemoryClaimStore) GetClaimRecord(ctx context.Context, signer types.ForeignAddress) (*models.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.claims[AddressKey(signer)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

func (s *MemoryClaimStore) AccountBalance(ctx context.Context, account types.AccountID) (*types.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[account]; ok {
		return new(types.Balance).Set(b), nil
	}
	return new(types.Balance), nil
}

func (s *MemoryClaimStore) FindEventsBySigner(ctx context.Context, signer types.ForeignAddress, limit int) ([]*models.ClaimEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := AddressKey(signer)
	var out []*models.ClaimEvent
	for _, event := range s.events {
		if event.Signer == key {
			copied := *event
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryClaimTx stages writes until the unit commits. Runs under the store's write lock.
type memoryClaimTx struct {
	store    *MemoryClaimStore
	claims   map[string]models.ClaimRecord
	balances map[types.AccountID]*types.Balance
	events   []*models.ClaimEvent
}

func (t *memoryClaimTx) record(key string) (models.ClaimRecord, bool) {
	if record, ok := t.claims[key]; ok {
		return record, true
	}
	record, ok := t.store.claims[key]
	return record, ok
}

func (t *memoryClaimTx) ClaimedBalance(signer types.ForeignAddress) (*types.Balance, error) {
	record, ok := t.record(AddressKey(signer))
	if !ok {
		return new(types.Balance), nil
	}
	return balanceFromColumn(record.ClaimedBalance)
}

func (t *memoryClaimTx) SetClaimedBalance(signer types.ForeignAddress, balance *types.Balance, claimID string) error {
	column, err := balanceColumn(balance)
	if err != nil {
		return err
	}
	key := AddressKey(signer)
	record, _ := t.record(key)
	record.ForeignAddress = key
	record.ClaimedBalance = column
	record.ClaimCount++
	record.LastClaimID = claimID
	t.claims[key] = record
	return nil
}

func (t *memoryClaimTx) RecordEvent(event *models.ClaimEvent) error {
	t.events = append(t.events, event)
	return nil
}

func (t *memoryClaimTx) Mint(account types.AccountID, amount *types.Balance) error {
	current, ok := t.balances[account]
	if !ok {
		current, ok = t.store.balances[account]
	}
	if !ok {
		current = new(types.Balance)
	}
	next, err := CreditBalance(current, amount)
	if err != nil {
		return err
	}
	t.balances[account] = next
	return nil
}

// MemoryRootInfoRepository keeps the trusted root in process memory
type MemoryRootInfoRepository struct {
	mu     sync.Mutex
	record *models.RootInfoRecord
}

// NewMemoryRootInfoRepository creates an empty in-memory RootInfoRepository
func NewMemoryRootInfoRepository() *MemoryRootInfoRepository {
	return &MemoryRootInfoRepository{}
}

func (r *MemoryRootInfoRepository) Load(ctx context.Context) (*models.RootInfoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.record == nil {
		return nil, nil
	}
	copied := *r.record
	return &copied, nil
}

func (r *MemoryRootInfoRepository) Save(ctx context.Context, record *models.RootInfoRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	copied.ID = models.RootInfoSingletonID
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = time.Now()
	}
	r.record = &copied
	return nil
}

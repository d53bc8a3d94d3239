package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/events"
	"swap-backend/internal/metrics"
	"swap-backend/internal/models"
	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/signer"
	"swap-backend/internal/types"
	"swap-backend/internal/utils"
)

// ErrNoNewDeposit is returned when the proven locked balance does not exceed what was already claimed.
var ErrNoNewDeposit = errors.New("no new deposit")

// RootSource yields the trusted root a claim is checked against.
type RootSource interface {
	Current() types.RootInfo
}

// ClaimReceipt describes a committed claim
type ClaimReceipt struct {
	ClaimID         string
	Signer          types.ForeignAddress
	Destination     types.AccountID
	Amount          *types.Balance // minted now
	TotalClaimed    *types.Balance // claimed balance after this claim
	RootBlockNumber uint64
	CreatedAt       time.Time
}

// ClaimLedger turns proven foreign deposits into local mints, at most once per unit of locked value.
type ClaimLedger struct {
	store     repository.ClaimStore
	roots     RootSource
	parser    *ClaimMessageParser
	verifier  *mpt.Verifier
	publisher events.Publisher
	locks     *utils.KeyedMutex
	logger    *logrus.Logger
}

// NewClaimLedger creates a new ClaimLedger
func NewClaimLedger(store repository.ClaimStore, roots RootSource, parser *ClaimMessageParser, verifier *mpt.Verifier, publisher events.Publisher, logger *logrus.Logger) *ClaimLedger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ClaimLedger{
		store:     store,
		roots:     roots,
		parser:    parser,
		verifier:  verifier,
		publisher: publisher,
		locks:     utils.NewKeyedMutex(),
		logger:    logger,
	}
}

// ProcessClaim verifies a signed claim against the trusted root and mints the
// newly locked amount to the destination named in the message.
func (l *ClaimLedger) ProcessClaim(ctx context.Context, sig []byte, rawMessage []byte, proof [][]byte) (*ClaimReceipt, error) {
	receipt, err := l.processClaim(ctx, sig, rawMessage, proof)
	if err != nil {
		metrics.ClaimsFailed.WithLabelValues(ErrorCode(err)).Inc()
		return nil, err
	}
	metrics.ClaimsProcessed.Inc()
	metrics.AmountMinted.Add(receipt.Amount.Float64())
	return receipt, nil
}

func (l *ClaimLedger) processClaim(ctx context.Context, sig []byte, rawMessage []byte, proof [][]byte) (*ClaimReceipt, error) {
	digest := signer.MessageDigest(rawMessage)
	who, err := signer.Recover(sig, digest)
	if err != nil {
		return nil, err
	}
	log := l.logger.WithField("signer", repository.AddressKey(who))

	destination, err := l.parser.Parse(rawMessage)
	if err != nil {
		log.WithError(err).Info("❌ Claim message rejected")
		return nil, err
	}

	key := mpt.DepositorStorageKey(who)
	root := l.roots.Current()

	started := time.Now()
	leaf, err := l.verifier.Verify(root.StorageRootHash(), proof, key)
	metrics.ProofVerificationDuration.WithLabelValues("claim").Observe(time.Since(started).Seconds())
	if err != nil {
		log.WithError(err).Info("❌ Deposit proof rejected")
		return nil, err
	}
	locked, err := mpt.DecodeBalance(leaf)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(repository.AddressKey(who))
	defer unlock()

	receipt := &ClaimReceipt{
		ClaimID:         uuid.NewString(),
		Signer:          who,
		Destination:     destination,
		TotalClaimed:    locked,
		RootBlockNumber: root.MetaBlockNumber,
		CreatedAt:       time.Now().UTC(),
	}

	err = l.store.Atomic(ctx, who, func(tx repository.ClaimTx) error {
		previous, err := tx.ClaimedBalance(who)
		if err != nil {
			return err
		}
		if locked.Cmp(previous) <= 0 {
			return fmt.Errorf("%w: locked %s, already claimed %s", ErrNoNewDeposit, locked.Dec(), previous.Dec())
		}

		receipt.Amount = new(types.Balance).Sub(locked, previous)
		if err := tx.Mint(destination, receipt.Amount); err != nil {
			return fmt.Errorf("mint failed: %w", err)
		}
		if err := tx.SetClaimedBalance(who, locked, receipt.ClaimID); err != nil {
			return err
		}
		return tx.RecordEvent(&models.ClaimEvent{
			ID:              receipt.ClaimID,
			Signer:          repository.AddressKey(who),
			Destination:     destination.Hex(),
			Amount:          receipt.Amount.Dec(),
			TotalClaimed:    locked.Dec(),
			RootBlockNumber: receipt.RootBlockNumber,
			CreatedAt:       receipt.CreatedAt,
		})
	})
	if err != nil {
		log.WithError(err).Info("❌ Claim not recorded")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"claim_id":      receipt.ClaimID,
		"destination":   destination.Hex(),
		"amount":        receipt.Amount.Dec(),
		"total_claimed": locked.Dec(),
	}).Info("✅ Claim recorded")

	l.publish(ctx, receipt)
	return receipt, nil
}

// publish runs after commit; a delivery failure never undoes the claim.
func (l *ClaimLedger) publish(ctx context.Context, receipt *ClaimReceipt) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishClaimRecorded(ctx, ClaimRecordedEvent(receipt)); err != nil {
		l.logger.WithError(err).WithField("claim_id", receipt.ClaimID).Warn("⚠️ ClaimRecorded event not delivered")
	}
}

// ClaimedBalance returns the latest claimed balance of addr, zero when never claimed.
func (l *ClaimLedger) ClaimedBalance(ctx context.Context, addr types.ForeignAddress) (*types.Balance, error) {
	return l.store.ClaimedBalance(ctx, addr)
}

// AccountBalance returns what has been minted to account.
func (l *ClaimLedger) AccountBalance(ctx context.Context, account types.AccountID) (*types.Balance, error) {
	return l.store.AccountBalance(ctx, account)
}

// ClaimHistory returns the most recent claims of addr, newest first.
func (l *ClaimLedger) ClaimHistory(ctx context.Context, addr types.ForeignAddress, limit int) ([]*models.ClaimEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return l.store.FindEventsBySigner(ctx, addr, limit)
}

// ClaimRecordedEvent converts a receipt into its published form.
func ClaimRecordedEvent(receipt *ClaimReceipt) *events.ClaimRecordedEvent {
	return &events.ClaimRecordedEvent{
		ClaimID:         receipt.ClaimID,
		Signer:          repository.AddressKey(receipt.Signer),
		Destination:     receipt.Destination.Hex(),
		Amount:          receipt.Amount.Dec(),
		TotalClaimed:    receipt.TotalClaimed.Dec(),
		RootBlockNumber: receipt.RootBlockNumber,
		Timestamp:       receipt.CreatedAt,
	}
}

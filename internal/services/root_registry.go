package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/events"
	"swap-backend/internal/metrics"
	"swap-backend/internal/models"
	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/types"
)

// ErrPermissionDenied is returned when a non-privileged origin tries to update the root.
var ErrPermissionDenied = errors.New("permission denied")

// RootRegistry holds the single trusted storage root of the deposit contract.
// Readers get a consistent snapshot; an update replaces it in one atomic swap.
type RootRegistry struct {
	current         atomic.Pointer[types.RootInfo]
	writeMu         sync.Mutex
	repo            repository.RootInfoRepository
	verifier        *mpt.Verifier
	depositContract types.ForeignAddress
	publisher       events.Publisher
	logger          *logrus.Logger
}

// NewRootRegistry Create root registry starting from the empty default root
func NewRootRegistry(repo repository.RootInfoRepository, verifier *mpt.Verifier, depositContract types.ForeignAddress, publisher events.Publisher, logger *logrus.Logger) *RootRegistry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &RootRegistry{
		repo:            repo,
		verifier:        verifier,
		depositContract: depositContract,
		publisher:       publisher,
		logger:          logger,
	}
	r.current.Store(&types.RootInfo{})
	return r
}

// Load restores the persisted root. Without a stored root the empty default stays in place.
func (r *RootRegistry) Load(ctx context.Context) error {
	record, err := r.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load root info: %w", err)
	}
	if record == nil {
		r.logger.Info("📍 No stored root, starting from the empty default")
		return nil
	}

	info, err := rootInfoFromRecord(record)
	if err != nil {
		return err
	}
	r.current.Store(&info)
	metrics.RootMetaBlockNumber.Set(float64(info.MetaBlockNumber))
	r.logger.WithFields(logrus.Fields{
		"storage_root":      hexutil.Encode(info.StorageRoot),
		"meta_block_number": info.MetaBlockNumber,
	}).Info("✅ Trusted root restored")
	return nil
}

// Current returns a snapshot of the trusted root. The caller owns the copy.
func (r *RootRegistry) Current() types.RootInfo {
	return r.current.Load().Clone()
}

// DepositContract returns the address whose account proof anchors every update.
func (r *RootRegistry) DepositContract() types.ForeignAddress {
	return r.depositContract
}

// Update replaces the trusted root with the deposit contract's storage root
// proven under newRoot. Only privileged origins may call it.
func (r *RootRegistry) Update(ctx context.Context, origin types.Origin, newRoot types.Hash32, meta types.RootMeta, accountProof [][]byte) (types.RootInfo, error) {
	log := r.logger.WithFields(logrus.Fields{
		"origin":            origin.Kind.String(),
		"subject":           origin.Subject,
		"new_root":          newRoot.Hex(),
		"meta_block_number": meta.BlockNumber,
	})

	if !origin.IsPrivileged() {
		metrics.RootUpdates.WithLabelValues("denied").Inc()
		log.Warn("🚫 Root update denied")
		return types.RootInfo{}, ErrPermissionDenied
	}

	started := time.Now()
	account, err := r.verifier.Verify(newRoot, accountProof, mpt.AccountKey(r.depositContract))
	metrics.ProofVerificationDuration.WithLabelValues("account").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RootUpdates.WithLabelValues("invalid").Inc()
		log.WithError(err).Warn("❌ Account proof rejected")
		return types.RootInfo{}, err
	}

	storageRoot, err := mpt.ExtractStorageRoot(account)
	if err != nil {
		metrics.RootUpdates.WithLabelValues("invalid").Inc()
		return types.RootInfo{}, err
	}
	if len(storageRoot) != types.HashLength {
		metrics.RootUpdates.WithLabelValues("invalid").Inc()
		return types.RootInfo{}, fmt.Errorf("%w: storage root is %d bytes", mpt.ErrInvalidAccount, len(storageRoot))
	}

	next := types.RootInfo{
		StorageRoot:     storageRoot,
		MetaBlockNumber: meta.BlockNumber,
		IPFSPath:        meta.IPFSPath,
		StateRoot:       newRoot,
		UpdatedBy:       origin.Subject,
		UpdatedAt:       time.Now().UTC(),
	}

	r.writeMu.Lock()
	if err := r.repo.Save(ctx, rootInfoToRecord(next)); err != nil {
		r.writeMu.Unlock()
		metrics.RootUpdates.WithLabelValues("error").Inc()
		log.WithError(err).Error("❌ Failed to persist root, keeping the previous one")
		return types.RootInfo{}, fmt.Errorf("failed to persist root info: %w", err)
	}
	stored := next.Clone()
	r.current.Store(&stored)
	r.writeMu.Unlock()

	metrics.RootUpdates.WithLabelValues("ok").Inc()
	metrics.RootMetaBlockNumber.Set(float64(next.MetaBlockNumber))
	log.WithField("storage_root", hexutil.Encode(storageRoot)).Info("✅ Trusted root updated")

	if r.publisher != nil {
		event := &events.RootUpdatedEvent{
			StorageRoot:     hexutil.Encode(next.StorageRoot),
			StateRoot:       next.StateRoot.Hex(),
			MetaBlockNumber: next.MetaBlockNumber,
			IPFSPath:        next.IPFSPath,
			UpdatedBy:       next.UpdatedBy,
			Timestamp:       next.UpdatedAt,
		}
		if err := r.publisher.PublishRootUpdated(ctx, event); err != nil {
			log.WithError(err).Warn("⚠️ RootUpdated event not delivered")
		}
	}
	return next.Clone(), nil
}

func rootInfoToRecord(info types.RootInfo) *models.RootInfoRecord {
	return &models.RootInfoRecord{
		ID:              models.RootInfoSingletonID,
		StorageRoot:     hexutil.Encode(info.StorageRoot),
		StateRoot:       info.StateRoot.Hex(),
		MetaBlockNumber: info.MetaBlockNumber,
		IPFSPath:        info.IPFSPath,
		UpdatedBy:       info.UpdatedBy,
		UpdatedAt:       info.UpdatedAt,
	}
}

func rootInfoFromRecord(record *models.RootInfoRecord) (types.RootInfo, error) {
	storageRoot, err := hexutil.Decode(record.StorageRoot)
	if err != nil {
		return types.RootInfo{}, fmt.Errorf("stored storage root %q: %w", record.StorageRoot, err)
	}
	return types.RootInfo{
		StorageRoot:     storageRoot,
		MetaBlockNumber: record.MetaBlockNumber,
		IPFSPath:        record.IPFSPath,
		StateRoot:       common.HexToHash(record.StateRoot),
		UpdatedBy:       record.UpdatedBy,
		UpdatedAt:       record.UpdatedAt,
	}, nil
}

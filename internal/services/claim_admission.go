package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"swap-backend/internal/metrics"
	"swap-backend/internal/repository"
	"swap-backend/internal/signer"
	"swap-backend/internal/types"
)

// ErrClaimInFlight is returned when the signer already has a claim being processed.
var ErrClaimInFlight = errors.New("a claim for this signer is already in flight")

// ClaimProcessor runs one claim end to end.
type ClaimProcessor interface {
	ProcessClaim(ctx context.Context, sig []byte, rawMessage []byte, proof [][]byte) (*ClaimReceipt, error)
}

// ClaimAdmission is the entry point for submitted claims. Anyone may submit;
// the recovered signer is the deduplication tag and at most one claim per
// signer is in flight at a time.
type ClaimAdmission struct {
	processor ClaimProcessor
	logger    *logrus.Logger

	mu       sync.Mutex
	inFlight map[types.ForeignAddress]struct{}
}

// NewClaimAdmission creates a new ClaimAdmission
func NewClaimAdmission(processor ClaimProcessor, logger *logrus.Logger) *ClaimAdmission {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ClaimAdmission{
		processor: processor,
		logger:    logger,
		inFlight:  make(map[types.ForeignAddress]struct{}),
	}
}

// Submit admits and processes a claim.
func (a *ClaimAdmission) Submit(ctx context.Context, sig []byte, rawMessage []byte, proof [][]byte) (*ClaimReceipt, error) {
	tag, err := signer.Recover(sig, signer.MessageDigest(rawMessage))
	if err != nil {
		metrics.ClaimsFailed.WithLabelValues(ErrorCode(err)).Inc()
		return nil, err
	}

	if !a.acquire(tag) {
		metrics.AdmissionRejections.Inc()
		a.logger.WithField("signer", repository.AddressKey(tag)).Warn("⏳ Claim rejected, signer already in flight")
		return nil, ErrClaimInFlight
	}
	defer a.release(tag)

	return a.processor.ProcessClaim(ctx, sig, rawMessage, proof)
}

// InFlight reports whether addr currently has an admitted claim.
func (a *ClaimAdmission) InFlight(addr types.ForeignAddress) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.inFlight[addr]
	return ok
}

func (a *ClaimAdmission) acquire(tag types.ForeignAddress) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[tag]; busy {
		return false
	}
	a.inFlight[tag] = struct{}{}
	metrics.ClaimsInFlight.Inc()
	return true
}

func (a *ClaimAdmission) release(tag types.ForeignAddress) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, tag)
	metrics.ClaimsInFlight.Dec()
}

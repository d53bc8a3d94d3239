package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// NATS subjects
const (
	SubjectClaimRecordedPrefix = "swap.claims.recorded"
	SubjectClaimRecordedAll    = SubjectClaimRecordedPrefix + ".*"
	SubjectRootUpdated         = "swap.root.updated"
)

// ClaimRecordedEvent is emitted once per committed claim.
type ClaimRecordedEvent struct {
	ClaimID         string    `json:"claim_id"`
	Signer          string    `json:"signer"`
	Destination     string    `json:"destination"`
	Amount          string    `json:"amount"`        // minted delta, decimal
	TotalClaimed    string    `json:"total_claimed"` // new claimed balance, decimal
	RootBlockNumber uint64    `json:"root_block_number"`
	Timestamp       time.Time `json:"timestamp"`
}

// RootUpdatedEvent is emitted after a new trusted root is stored.
type RootUpdatedEvent struct {
	StorageRoot     string    `json:"storage_root"`
	StateRoot       string    `json:"state_root"`
	MetaBlockNumber uint64    `json:"meta_block_number"`
	IPFSPath        string    `json:"ipfs_path"`
	UpdatedBy       string    `json:"updated_by"`
	Timestamp       time.Time `json:"timestamp"`
}

// ClaimRecordedSubject is the per-signer subject of a ClaimRecorded event.
func ClaimRecordedSubject(signer string) string {
	return fmt.Sprintf("%s.%s", SubjectClaimRecordedPrefix, strings.ToLower(signer))
}

// Publisher delivers events after the state change they describe is committed.
type Publisher interface {
	PublishClaimRecorded(ctx context.Context, event *ClaimRecordedEvent) error
	PublishRootUpdated(ctx context.Context, event *RootUpdatedEvent) error
}

// Fanout forwards every event to all registered publishers.
type Fanout struct {
	mu         sync.RWMutex
	publishers []namedPublisher
	logger     *logrus.Logger
}

type namedPublisher struct {
	name string
	Publisher
}

// NewFanout creates an empty Fanout
func NewFanout(logger *logrus.Logger) *Fanout {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Fanout{logger: logger}
}

// Add registers p under name. A nil publisher is ignored.
func (f *Fanout) Add(name string, p Publisher) {
	if p == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishers = append(f.publishers, namedPublisher{name: name, Publisher: p})
}

// Len returns the number of registered publishers.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.publishers)
}

func (f *Fanout) PublishClaimRecorded(ctx context.Context, event *ClaimRecordedEvent) error {
	return f.each(func(p namedPublisher) error {
		return p.PublishClaimRecorded(ctx, event)
	}, logrus.Fields{"event": "ClaimRecorded", "claim_id": event.ClaimID, "signer": event.Signer})
}

func (f *Fanout) PublishRootUpdated(ctx context.Context, event *RootUpdatedEvent) error {
	return f.each(func(p namedPublisher) error {
		return p.PublishRootUpdated(ctx, event)
	}, logrus.Fields{"event": "RootUpdated", "meta_block_number": event.MetaBlockNumber})
}

// each calls every publisher even when an earlier one fails and joins the failures.
func (f *Fanout) each(call func(namedPublisher) error, fields logrus.Fields) error {
	f.mu.RLock()
	publishers := append([]namedPublisher(nil), f.publishers...)
	f.mu.RUnlock()

	var errs []error
	for _, p := range publishers {
		if err := call(p); err != nil {
			f.logger.WithFields(fields).WithField("publisher", p.name).WithError(err).Warn("⚠️ Event publication failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}

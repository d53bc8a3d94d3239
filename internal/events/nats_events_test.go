package events

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	claims []*ClaimRecordedEvent
	roots  []*RootUpdatedEvent
	err    error
}

func (r *recordingPublisher) PublishClaimRecorded(_ context.Context, event *ClaimRecordedEvent) error {
	r.claims = append(r.claims, event)
	return r.err
}

func (r *recordingPublisher) PublishRootUpdated(_ context.Context, event *RootUpdatedEvent) error {
	r.roots = append(r.roots, event)
	return r.err
}

func TestClaimRecordedSubject(t *testing.T) {
	assert.Equal(t, "swap.claims.recorded.0xabcdef", ClaimRecordedSubject("0xABCDEF"))
}

func TestFanoutDeliversToAll(t *testing.T) {
	logger := logrus.New()
	fanout := NewFanout(logger)
	failing := &recordingPublisher{err: errors.New("nats down")}
	healthy := &recordingPublisher{}
	fanout.Add("nats", failing)
	fanout.Add("websocket", healthy)
	fanout.Add("nil", nil)
	require.Equal(t, 2, fanout.Len())

	err := fanout.PublishClaimRecorded(context.Background(), &ClaimRecordedEvent{ClaimID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats: nats down")
	assert.Len(t, failing.claims, 1)
	assert.Len(t, healthy.claims, 1, "a failing publisher must not starve the others")

	require.Error(t, fanout.PublishRootUpdated(context.Background(), &RootUpdatedEvent{MetaBlockNumber: 3}))
	assert.Len(t, healthy.roots, 1)
}

func TestFanoutEmpty(t *testing.T) {
	assert.NoError(t, NewFanout(nil).PublishClaimRecorded(context.Background(), &ClaimRecordedEvent{}))
}

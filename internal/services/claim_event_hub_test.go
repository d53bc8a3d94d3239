package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-backend/internal/events"
)

func receive(t *testing.T, conn *Connection) PushMessage {
	t.Helper()
	select {
	case payload, ok := <-conn.Send:
		require.True(t, ok, "send queue closed")
		var msg PushMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
		return PushMessage{}
	}
}

func TestClaimEventHubFiltersBySigner(t *testing.T) {
	hub := NewClaimEventHub(testLogger())
	defer hub.Stop()

	all := NewConnection(8)
	followed := NewConnection(8)
	followed.Follow("0xAAAA000000000000000000000000000000000001")
	hub.Register(all)
	hub.Register(followed)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.PublishClaimRecorded(ctx, &events.ClaimRecordedEvent{
		ClaimID: "c1", Signer: "0xbbbb000000000000000000000000000000000002", Amount: "5",
	}))
	require.NoError(t, hub.PublishClaimRecorded(ctx, &events.ClaimRecordedEvent{
		ClaimID: "c2", Signer: "0xaaaa000000000000000000000000000000000001", Amount: "7",
	}))

	first := receive(t, all)
	assert.Equal(t, PushTypeClaimRecorded, first.Type)
	assert.Equal(t, "c1", first.MessageID)
	assert.Equal(t, "c2", receive(t, all).MessageID)

	// The follower only sees its own signer.
	msg := receive(t, followed)
	assert.Equal(t, "c2", msg.MessageID)
	assert.Equal(t, "0xaaaa000000000000000000000000000000000001", msg.Signer)
}

func TestClaimEventHubRootUpdatesReachEveryone(t *testing.T) {
	hub := NewClaimEventHub(testLogger())
	defer hub.Stop()

	followed := NewConnection(4)
	followed.Follow("0x0000000000000000000000000000000000000001")
	hub.Register(followed)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.PublishRootUpdated(context.Background(), &events.RootUpdatedEvent{MetaBlockNumber: 12}))
	msg := receive(t, followed)
	assert.Equal(t, PushTypeRootUpdated, msg.Type)
	assert.NotEmpty(t, msg.MessageID)
}

func TestClaimEventHubUnregisterClosesQueue(t *testing.T) {
	hub := NewClaimEventHub(testLogger())
	defer hub.Stop()

	conn := NewConnection(1)
	hub.Register(conn)
	hub.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("send queue not closed")
	}
	assert.Zero(t, hub.ConnectionCount())
}

func TestClaimEventHubStopped(t *testing.T) {
	hub := NewClaimEventHub(testLogger())
	hub.Stop()
	hub.Stop()

	err := hub.PublishRootUpdated(context.Background(), &events.RootUpdatedEvent{})
	// The buffered queue may still accept the message; either outcome leaves no subscriber.
	if err != nil {
		assert.Contains(t, err.Error(), "stopped")
	}
	assert.Zero(t, hub.ConnectionCount())
}

func TestClaimEventHubLogsThroughInjectedLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	hub := NewClaimEventHub(logger)
	defer hub.Stop()

	conn := NewConnection(1)
	hub.Register(conn)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.PublishRootUpdated(ctx, &events.RootUpdatedEvent{MetaBlockNumber: 1}))
	require.NoError(t, hub.PublishRootUpdated(ctx, &events.RootUpdatedEvent{MetaBlockNumber: 2}))

	// The second message overflows the one-slot queue and is dropped with a warning.
	require.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel && entry.Data["client_id"] == conn.ID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, PushTypeRootUpdated, receive(t, conn).Type)

	var registered bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.InfoLevel && entry.Data["client_id"] == conn.ID {
			registered = true
		}
	}
	assert.True(t, registered)
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"swap-backend/internal/events"
	"swap-backend/internal/metrics"
)

// Push message types
const (
	PushTypeClaimRecorded = "claim_recorded"
	PushTypeRootUpdated   = "root_updated"
)

// Connection is one websocket subscriber as seen by the hub
type Connection struct {
	ID     string
	Send   chan []byte
	signer string // lowercase hex; empty receives every claim
	mu     sync.RWMutex
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(buffer int) *Connection {
	if buffer <= 0 {
		buffer = 256
	}
	return &Connection{ID: uuid.NewString(), Send: make(chan []byte, buffer)}
}

// Follow restricts claim pushes to one signer. An empty address follows everyone.
func (c *Connection) Follow(signer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = strings.ToLower(signer)
}

func (c *Connection) wants(signer string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signer == "" || c.signer == signer
}

// PushMessage is the envelope written to websocket clients
type PushMessage struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id"`
	Signer    string      `json:"signer,omitempty"`
	Data      interface{} `json:"data"`
}

// ClaimEventHub fans claim and root events out to websocket connections.
// It implements events.Publisher so it can sit behind the NATS feed or be
// published to directly.
type ClaimEventHub struct {
	connections map[string]*Connection
	register    chan *Connection
	unregister  chan *Connection
	broadcast   chan PushMessage
	done        chan struct{}
	stopOnce    sync.Once
	mutex       sync.RWMutex
	logger      *logrus.Logger
}

// NewClaimEventHub creates the hub and starts its dispatch loop
func NewClaimEventHub(logger *logrus.Logger) *ClaimEventHub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	hub := &ClaimEventHub{
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan PushMessage, 256),
		done:        make(chan struct{}),
		logger:      logger,
	}
	go hub.run()
	return hub
}

func (h *ClaimEventHub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mutex.Lock()
			h.connections[conn.ID] = conn
			h.mutex.Unlock()
			metrics.WebSocketClients.Inc()
			h.logger.WithField("client_id", conn.ID).Info("📡 WebSocket client registered")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				close(conn.Send)
				metrics.WebSocketClients.Dec()
			}
			h.mutex.Unlock()
			h.logger.WithField("client_id", conn.ID).Info("🔌 WebSocket client unregistered")

		case message := <-h.broadcast:
			h.dispatch(message)

		case <-h.done:
			h.mutex.Lock()
			for id, conn := range h.connections {
				close(conn.Send)
				delete(h.connections, id)
				metrics.WebSocketClients.Dec()
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *ClaimEventHub) dispatch(message PushMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).WithField("type", message.Type).Error("❌ Failed to marshal push message")
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, conn := range h.connections {
		if message.Signer != "" && !conn.wants(message.Signer) {
			continue
		}
		select {
		case conn.Send <- payload:
		default:
			h.logger.WithFields(logrus.Fields{
				"client_id": conn.ID,
				"type":      message.Type,
			}).Warn("⚠️ Send queue full, dropping message")
		}
	}
}

// Register adds conn to the hub
func (h *ClaimEventHub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes conn and closes its send queue
func (h *ClaimEventHub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// ConnectionCount returns the number of registered connections
func (h *ClaimEventHub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections)
}

// Stop closes every connection and ends the dispatch loop
func (h *ClaimEventHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// PublishClaimRecorded implements events.Publisher
func (h *ClaimEventHub) PublishClaimRecorded(ctx context.Context, event *events.ClaimRecordedEvent) error {
	return h.enqueue(ctx, PushMessage{
		Type:      PushTypeClaimRecorded,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: event.ClaimID,
		Signer:    strings.ToLower(event.Signer),
		Data:      event,
	})
}

// PublishRootUpdated implements events.Publisher
func (h *ClaimEventHub) PublishRootUpdated(ctx context.Context, event *events.RootUpdatedEvent) error {
	return h.enqueue(ctx, PushMessage{
		Type:      PushTypeRootUpdated,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		MessageID: uuid.NewString(),
		Data:      event,
	})
}

func (h *ClaimEventHub) enqueue(ctx context.Context, message PushMessage) error {
	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return fmt.Errorf("claim event hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"swap-backend/internal/config"
	"swap-backend/internal/events"
	"swap-backend/internal/metrics"
)

// NATSClient NATS client
type NATSClient struct {
	conn       *nats.Conn
	js         nats.JetStreamContext // nil when JetStream is disabled
	streamName string
}

// NewNATSClient connects to NATS and, when enabled, makes sure the swap stream exists
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	connectTimeout := 10 * time.Second
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Second
	}
	reconnectWait := 5 * time.Second
	if cfg.ReconnectWait > 0 {
		reconnectWait = time.Duration(cfg.ReconnectWait) * time.Second
	}
	log.Printf("🔌 Connecting to NATS %s (timeout %v)", cfg.URL, connectTimeout)

	conn, err := nats.Connect(cfg.URL,
		nats.Name("swap-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️ NATS disconnected: %v", err)
			metrics.NATSConnectionStatus.Set(0)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("✅ NATS reconnected to %s", nc.ConnectedUrl())
			metrics.NATSConnectionStatus.Set(1)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	metrics.NATSConnectionStatus.Set(1)

	client := &NATSClient{conn: conn, streamName: cfg.StreamName}
	if cfg.EnableJetStream {
		js, err := conn.JetStream()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		client.js = js
		if err := client.ensureStream(); err != nil {
			conn.Close()
			return nil, err
		}
	} else {
		log.Printf("✅ Using core NATS publish (JetStream disabled)")
	}
	return client, nil
}

// ensureStream makes sure the JetStream stream for swap subjects exists
func (c *NATSClient) ensureStream() error {
	if _, err := c.js.StreamInfo(c.streamName); err == nil {
		log.Printf("✅ Stream %s already exists", c.streamName)
		return nil
	}

	_, err := c.js.AddStream(&nats.StreamConfig{
		Name:      c.streamName,
		Subjects:  []string{events.SubjectClaimRecordedAll, events.SubjectRootUpdated},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", c.streamName, err)
	}
	log.Printf("✅ Stream %s created", c.streamName)
	return nil
}

// PublishClaimRecorded publishes a committed claim on swap.claims.recorded.<signer>
func (c *NATSClient) PublishClaimRecorded(ctx context.Context, event *events.ClaimRecordedEvent) error {
	return c.publish(ctx, "claim_recorded", events.ClaimRecordedSubject(event.Signer), event)
}

// PublishRootUpdated publishes a root change on swap.root.updated
func (c *NATSClient) PublishRootUpdated(ctx context.Context, event *events.RootUpdatedEvent) error {
	return c.publish(ctx, "root_updated", events.SubjectRootUpdated, event)
}

func (c *NATSClient) publish(ctx context.Context, eventType, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(eventType).Inc()
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	if c.js != nil {
		_, err = c.js.Publish(subject, data, nats.Context(ctx))
	} else {
		err = c.conn.Publish(subject, data)
	}
	if err != nil {
		metrics.NATSMessagesFailed.WithLabelValues(eventType).Inc()
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	metrics.NATSMessagesPublished.WithLabelValues(eventType).Inc()
	log.Printf("📤 Published %s event: %s", eventType, subject)
	return nil
}

// SubscribeClaimRecorded delivers ClaimRecorded events published by any instance
func (c *NATSClient) SubscribeClaimRecorded(handler func(*events.ClaimRecordedEvent, string)) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(events.SubjectClaimRecordedAll, func(msg *nats.Msg) {
		var event events.ClaimRecordedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			metrics.NATSMessagesFailed.WithLabelValues("claim_recorded").Inc()
			log.Printf("❌ [NATS] Failed to decode ClaimRecorded on %s: %v", msg.Subject, err)
			return
		}
		handler(&event, msg.Subject)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", events.SubjectClaimRecordedAll, err)
	}
	log.Printf("✅ NATS subscription active: %s", events.SubjectClaimRecordedAll)
	return sub, nil
}

// Close connection
func (c *NATSClient) Close() {
	if c.conn != nil {
		c.conn.Close()
		metrics.NATSConnectionStatus.Set(0)
	}
}

// IsConnected reports whether the underlying connection is up
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

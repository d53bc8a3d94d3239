package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"swap-backend/internal/clients"
	"swap-backend/internal/config"
	"swap-backend/internal/db"
	"swap-backend/internal/events"
	"swap-backend/internal/handlers"
	"swap-backend/internal/mpt"
	"swap-backend/internal/repository"
	"swap-backend/internal/router"
	"swap-backend/internal/services"
)

// ServiceContainer holds every long-lived component of the swap service
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Database (nil in memory mode)
	DB *gorm.DB

	// Repositories
	ClaimStore repository.ClaimStore
	RootRepo   repository.RootInfoRepository

	// Core Services
	Verifier     *mpt.Verifier
	Parser       *services.ClaimMessageParser
	RootRegistry *services.RootRegistry
	ClaimLedger  *services.ClaimLedger
	Admission    *services.ClaimAdmission

	// Event Services
	Publisher  *events.Fanout
	NATSClient *clients.NATSClient
	EventHub   *services.ClaimEventHub

	natsSub    *nats.Subscription
	stopPoller context.CancelFunc
}

// InitializeContainer builds the container in dependency order
func InitializeContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*ServiceContainer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log.Println("🚀 Initializing Service Container...")

	c := &ServiceContainer{Config: cfg, Logger: logger}

	// 1. Initialize Repositories
	if err := c.initRepositories(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// 2. Initialize Event Services (NATS is optional)
	c.initEventServices()

	// 3. Initialize Core Services
	if err := c.initCoreServices(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize core services: %w", err)
	}

	log.Println("✅ Service Container initialized successfully")
	return c, nil
}

func (c *ServiceContainer) initRepositories(ctx context.Context) error {
	log.Printf("📦 Initializing Repositories (driver: %s)...", c.Config.Database.Driver)

	if c.Config.Database.Driver == "memory" {
		c.ClaimStore = repository.NewMemoryClaimStore()
		c.RootRepo = repository.NewMemoryRootInfoRepository()
		c.Logger.Warn("⚠️ Using in-memory storage, claims are lost on restart")
		return nil
	}

	conn, err := db.Open(c.Config.Database)
	if err != nil {
		return err
	}
	c.DB = conn
	c.ClaimStore = repository.NewClaimStore(conn)
	c.RootRepo = repository.NewRootInfoRepository(conn)

	pollerCtx, cancel := context.WithCancel(ctx)
	c.stopPoller = cancel
	go db.ReportPoolMetrics(pollerCtx, conn, 15*time.Second)
	return nil
}

// initEventServices wires the publishers. With NATS the websocket hub is fed
// from the NATS subscription, so every instance's claims reach every client
// exactly once; without NATS the hub is published to directly.
func (c *ServiceContainer) initEventServices() {
	c.Publisher = events.NewFanout(c.Logger)
	c.EventHub = services.NewClaimEventHub(c.Logger)

	if c.Config.NATS.URL != "" {
		client, err := clients.NewNATSClient(c.Config.NATS)
		if err != nil {
			log.Printf("⚠️ NATS unavailable, events stay local: %v", err)
		} else {
			c.NATSClient = client
			c.Publisher.Add("nats", client)

			sub, err := client.SubscribeClaimRecorded(func(event *events.ClaimRecordedEvent, subject string) {
				if err := c.EventHub.PublishClaimRecorded(context.Background(), event); err != nil {
					c.Logger.WithError(err).WithField("subject", subject).Warn("⚠️ Failed to forward claim to websocket hub")
				}
			})
			if err == nil {
				c.natsSub = sub
				// root updates are rare and local; push them straight to the hub
				c.Publisher.Add("websocket", rootOnly{c.EventHub})
				return
			}
			log.Printf("⚠️ NATS subscription failed, publishing to websocket hub directly: %v", err)
		}
	}
	c.Publisher.Add("websocket", c.EventHub)
}

func (c *ServiceContainer) initCoreServices(ctx context.Context) error {
	swap := c.Config.Swap
	c.Verifier = mpt.NewVerifier(mpt.Limits{MaxProofDepth: swap.MaxProofDepth, MaxNodeSize: swap.MaxNodeSize})
	c.Parser = services.NewClaimMessageParser(services.ClaimMessageFormat{
		Prefix:        swap.ClaimPrefix,
		DecodedLength: swap.DestinationLen,
		AccountOffset: swap.AccountOffset,
	})

	c.RootRegistry = services.NewRootRegistry(c.RootRepo, c.Verifier, c.Config.DepositContractAddress(), c.Publisher, c.Logger)
	if err := c.RootRegistry.Load(ctx); err != nil {
		return err
	}
	c.ClaimLedger = services.NewClaimLedger(c.ClaimStore, c.RootRegistry, c.Parser, c.Verifier, c.Publisher, c.Logger)
	c.Admission = services.NewClaimAdmission(c.ClaimLedger, c.Logger)
	return nil
}

// Handlers builds the HTTP handlers over the container's services
func (c *ServiceContainer) Handlers() router.Handlers {
	checks := map[string]handlers.HealthCheck{}
	if c.DB != nil {
		checks["database"] = func() error { return db.Ping(c.DB) }
	}
	if c.NATSClient != nil {
		checks["nats"] = func() error {
			if !c.NATSClient.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}
	}

	return router.Handlers{
		Claims:    handlers.NewClaimHandler(c.Admission, c.ClaimLedger, c.ClaimStore, c.Parser.Format(), c.Logger),
		Root:      handlers.NewRootHandler(c.RootRegistry, c.Logger),
		AdminAuth: handlers.NewAdminAuthHandler(c.Config.Admin, c.Logger),
		WebSocket: handlers.NewWebSocketHandler(c.EventHub, c.Logger),
		Health:    handlers.NewHealthHandler(checks),
	}
}

// Close releases connections and stops background loops
func (c *ServiceContainer) Close() {
	if c.natsSub != nil {
		_ = c.natsSub.Unsubscribe()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
	if c.EventHub != nil {
		c.EventHub.Stop()
	}
	if c.stopPoller != nil {
		c.stopPoller()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// rootOnly forwards root updates and drops claims, which arrive through NATS instead.
type rootOnly struct {
	hub *services.ClaimEventHub
}

func (r rootOnly) PublishClaimRecorded(context.Context, *events.ClaimRecordedEvent) error {
	return nil
}

func (r rootOnly) PublishRootUpdated(ctx context.Context, event *events.RootUpdatedEvent) error {
	return r.hub.PublishRootUpdated(ctx, event)
}

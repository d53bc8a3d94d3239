package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Database connection
	// ============================================
	DBConnectionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_db_connection_active",
		Help: "Number of active database connections",
	})

	DBConnectionIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_db_connection_idle",
		Help: "Number of idle database connections",
	})

	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	// ============================================
	// NATS
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"event_type"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_nats_messages_failed_total",
			Help: "Total number of NATS messages that failed to publish or decode",
		},
		[]string{"event_type"},
	)

	// ============================================
	// Claims
	// ============================================
	ClaimsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_claims_processed_total",
		Help: "Total number of claims that minted",
	})

	ClaimsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_claims_failed_total",
			Help: "Total number of rejected claims by error code",
		},
		[]string{"code"},
	)

	AmountMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_amount_minted_total",
		Help: "Total amount minted to local accounts (lossy above 2^53)",
	})

	AdmissionRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swap_admission_rejections_total",
		Help: "Claims rejected because the signer already had one in flight",
	})

	ClaimsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_claims_in_flight",
		Help: "Number of claims currently admitted and not yet finished",
	})

	ProofVerificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swap_proof_verification_duration_seconds",
			Help:    "Trie proof verification duration in seconds",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025},
		},
		[]string{"kind"}, // "claim" or "account"
	)

	// ============================================
	// Trusted root
	// ============================================
	RootUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_root_updates_total",
			Help: "Root update attempts by result",
		},
		[]string{"result"},
	)

	RootMetaBlockNumber = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_root_meta_block_number",
		Help: "Meta block number of the currently trusted root",
	})

	// ============================================
	// Websocket
	// ============================================
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_websocket_clients",
		Help: "Number of connected claim stream subscribers",
	})
)

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Swap     SwapConfig     `yaml:"swap"`  // claim and root-update settings
	Admin    AdminConfig    `yaml:"admin"` // Admin API access control configuration
	CORS     CORSConfig     `yaml:"cors"`  // CORS configuration
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig Database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"` // "postgres" or "memory"
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL             string `yaml:"url"`
	Timeout         int    `yaml:"timeout"`        // seconds
	ReconnectWait   int    `yaml:"reconnect_wait"` // seconds
	MaxReconnects   int    `yaml:"max_reconnects"`
	EnableJetStream bool   `yaml:"enable_jetstream"`
	StreamName      string `yaml:"stream_name"`
}

// SwapConfig claim processing configuration
type SwapConfig struct {
	ClaimPrefix     string `yaml:"claimPrefix"`     // literal every signed claim content starts with
	DepositContract string `yaml:"depositContract"` // foreign deposit contract whose storage root is tracked
	MaxProofDepth   int    `yaml:"maxProofDepth"`   // nodes per proof
	MaxNodeSize     int    `yaml:"maxNodeSize"`     // bytes per node
	DestinationLen  int    `yaml:"destinationLen"`  // base58-decoded destination length
	AccountOffset   int    `yaml:"accountOffset"`   // account id offset inside the decoded destination
}

// AdminConfig Admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"` // List of allowed IP addresses or CIDR ranges
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	TOTPSecret string   `yaml:"totpSecret"` // base32, empty disables the second factor
	JWTSecret  string   `yaml:"jwtSecret"`
	TokenTTL   int      `yaml:"tokenTTL"` // hours
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`   // List of allowed origins
	AllowCredentials bool     `yaml:"allowCredentials"` // Whether to allow credentials
	MaxAge           int      `yaml:"maxAge"`           // Max age for preflight requests (seconds)
}

var AppConfig *Config

// Default returns a configuration that runs locally without any file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			DSN:    "host=localhost user=swap password=swap dbname=swap port=5432 sslmode=disable",
		},
		NATS: NATSConfig{
			Timeout:       10,
			ReconnectWait: 5,
			MaxReconnects: -1,
			StreamName:    "SWAP_EVENTS",
		},
		Swap: SwapConfig{
			ClaimPrefix:    "swap to ",
			MaxProofDepth:  64,
			MaxNodeSize:    4096,
			DestinationLen: 35,
			AccountOffset:  1,
		},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: 24,
		},
	}
}

// LoadConfig Load configuration file over the defaults
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// Load reads configPath (or config.local.yaml / config.yaml when empty), applies
// environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		configPath = "config.yaml"
		// Prefer config.local.yaml when present
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		fmt.Printf("✅ [%s] Loading configuration from config file: %s\n", time.Now().Format("2006-01-02 15:04:05"), configPath)
	case errors.Is(err, os.ErrNotExist):
		fmt.Printf("⚠️ [%s] Config file %s not found, using defaults\n", time.Now().Format("2006-01-02 15:04:05"), configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	fmt.Printf("📋 [Config] Swap configuration loaded: prefix=%q, depositContract=%s, maxProofDepth=%d, maxNodeSize=%d\n",
		config.Swap.ClaimPrefix, config.Swap.DepositContract, config.Swap.MaxProofDepth, config.Swap.MaxNodeSize)
	if len(config.Admin.AllowedIPs) > 0 {
		fmt.Printf("📋 [Config] Admin IP whitelist loaded: %d IPs/CIDRs configured\n", len(config.Admin.AllowedIPs))
	} else {
		fmt.Printf("📋 [Config] Admin IP whitelist: not configured (localhost-only mode)\n")
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		fmt.Printf("📋 [Config] CORS: not configured (will allow all origins *)\n")
	}
	return config, nil
}

// Validate checks values the services cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Swap.ClaimPrefix == "" {
		return errors.New("swap.claimPrefix must not be empty")
	}
	if c.Swap.DepositContract != "" && !common.IsHexAddress(c.Swap.DepositContract) {
		return fmt.Errorf("swap.depositContract %q is not a 20-byte hex address", c.Swap.DepositContract)
	}
	if c.Swap.MaxProofDepth <= 0 || c.Swap.MaxNodeSize <= 0 {
		return errors.New("swap.maxProofDepth and swap.maxNodeSize must be positive")
	}
	if c.Swap.AccountOffset < 0 || c.Swap.AccountOffset+32 > c.Swap.DestinationLen {
		return fmt.Errorf("swap.accountOffset %d does not fit a 32-byte account in %d bytes", c.Swap.AccountOffset, c.Swap.DestinationLen)
	}
	return nil
}

// DepositContractAddress returns the configured deposit contract, zero when unset.
func (c *Config) DepositContractAddress() common.Address {
	return common.HexToAddress(c.Swap.DepositContract)
}

// overrideFromEnv Override configuration from environment variables
func overrideFromEnv(config *Config) {
	// DatabaseDSN
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}

	// server configuration
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	setIntFromEnv("SERVER_PORT", &config.Server.Port)

	// NATSConfiguration
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	setIntFromEnv("NATS_TIMEOUT", &config.NATS.Timeout)
	if js := os.Getenv("NATS_ENABLE_JETSTREAM"); js != "" {
		config.NATS.EnableJetStream = js == "true"
	}

	// Swap configuration
	if prefix := os.Getenv("SWAP_CLAIM_PREFIX"); prefix != "" {
		config.Swap.ClaimPrefix = prefix
	}
	if contract := os.Getenv("SWAP_DEPOSIT_CONTRACT"); contract != "" {
		config.Swap.DepositContract = contract
	}
	setIntFromEnv("SWAP_MAX_PROOF_DEPTH", &config.Swap.MaxProofDepth)
	setIntFromEnv("SWAP_MAX_NODE_SIZE", &config.Swap.MaxNodeSize)

	// Admin configuration
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Admin.JWTSecret = secret
	}
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		config.Admin.Username = username
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		config.Admin.Password = password
	}
	if totp := os.Getenv("ADMIN_TOTP_SECRET"); totp != "" {
		config.Admin.TOTPSecret = totp
	}
	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		config.Admin.AllowedIPs = splitList(ips)
	}

	// CORS Configuration
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORS.AllowedOrigins = splitList(corsOrigins)
	}
}

func setIntFromEnv(name string, target *int) {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*target = v
		} else {
			log.Printf("⚠️ Ignoring %s=%q: %v", name, raw, err)
		}
	}
}

// splitList splits a comma-separated value and drops empty entries
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

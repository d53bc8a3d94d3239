package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "swap to ", cfg.Swap.ClaimPrefix)
	assert.Equal(t, 64, cfg.Swap.MaxProofDepth)
	assert.Equal(t, 4096, cfg.Swap.MaxNodeSize)
	assert.Equal(t, 35, cfg.Swap.DestinationLen)
	assert.Equal(t, 1, cfg.Swap.AccountOffset)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  driver: memory
swap:
  claimPrefix: "bridge to "
  depositContract: "0x00000000000000000000000000000000000000d1"
  maxProofDepth: 16
admin:
  allowedIPs: ["10.0.0.0/8"]
`), 0o600))

	t.Setenv("SWAP_MAX_NODE_SIZE", "1024")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "bridge to ", cfg.Swap.ClaimPrefix)
	assert.Equal(t, 16, cfg.Swap.MaxProofDepth)
	assert.Equal(t, 1024, cfg.Swap.MaxNodeSize)
	assert.Equal(t, 35, cfg.Swap.DestinationLen, "unset keys keep their defaults")
	assert.Equal(t, "s3cret", cfg.Admin.JWTSecret)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Admin.AllowedIPs)
	assert.Equal(t, byte(0xd1), cfg.DepositContractAddress()[19])
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Swap, cfg.Swap)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"port":             func(c *Config) { c.Server.Port = 0 },
		"driver":           func(c *Config) { c.Database.Driver = "sqlite" },
		"empty dsn":        func(c *Config) { c.Database.DSN = "" },
		"empty prefix":     func(c *Config) { c.Swap.ClaimPrefix = "" },
		"bad contract":     func(c *Config) { c.Swap.DepositContract = "0x1234" },
		"zero depth":       func(c *Config) { c.Swap.MaxProofDepth = 0 },
		"offset too large": func(c *Config) { c.Swap.AccountOffset = 4 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
}

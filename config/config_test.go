package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BUCKS_DATADIR", dir)
	t.Setenv("ALCHEMY_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Journal.Path)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.PriceTTL)
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleDuration)
	assert.Equal(t, int64(30_000_000), cfg.TronGrid.FeeLimit)
	assert.Equal(t, 5, cfg.History.MaxCount)
	assert.Error(t, cfg.Alchemy.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BUCKS_DATADIR", dir)
	t.Setenv("ALCHEMY_API_KEY", "alchemy-key")
	t.Setenv("INFURA_API_KEY", "infura-key")

	path := filepath.Join(dir, "config.yaml")
	yaml := `
log:
  level: debug
rpc:
  polygon: https://polygon.example.org
cache:
  priceTtl: 5s
tronGrid:
  feeLimit: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://polygon.example.org", cfg.RPC["polygon"])
	assert.Equal(t, 5*time.Second, cfg.Cache.PriceTTL)
	assert.Equal(t, int64(1000), cfg.TronGrid.FeeLimit)
	assert.Equal(t, "alchemy-key", cfg.Alchemy.APIKey)
	assert.NoError(t, cfg.Alchemy.Validate())
	assert.Equal(t, "https://mainnet.infura.io/v3/infura-key", cfg.Infura.Endpoint())
}

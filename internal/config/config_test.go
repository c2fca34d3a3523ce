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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err, "a missing config file falls back to defaults")

	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, 1000, cfg.Server.MaxSessions)
	assert.Equal(t, 5*time.Minute, cfg.Server.LeasePeriod)
	assert.Empty(t, cfg.Server.AccessPasswordHash)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Encoding)
	assert.False(t, cfg.Logging.Development)

	assert.Empty(t, cfg.Database.URL, "persistence defaults to disabled")
	assert.Equal(t, int32(10), cfg.Database.MaxConns)

	assert.Equal(t, 1500, cfg.Game.StartMoney)
	assert.Equal(t, 200, cfg.Game.Salary)
	assert.Equal(t, 50, cfg.Game.JailFine)
	assert.Equal(t, 3, cfg.Game.MaxJailTurns)
	assert.Equal(t, 30, cfg.Game.AuctionDuration)
	assert.Equal(t, 10, cfg.Game.AuctionExtension)
	assert.Equal(t, 5*time.Minute, cfg.Game.TradeWindow)
	assert.Equal(t, 10*time.Second, cfg.Game.TradeSweepInterval)
	assert.Equal(t, 4, cfg.Game.WeatherPeriod)
	assert.Equal(t, 6, cfg.Game.EconomicPeriod)
	assert.Equal(t, 8, cfg.Game.CulturalPeriod)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  websocket:
    address: ":9999"
    allowed_origins:
      - "http://example.test"
  lease_period: 90s
logging:
  level: debug
  development: true
game:
  start_money: 2000
  trade_window: 1m
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.WebSocket.Address)
	assert.Equal(t, []string{"http://example.test"}, cfg.Server.WebSocket.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Server.LeasePeriod)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 2000, cfg.Game.StartMoney)
	assert.Equal(t, time.Minute, cfg.Game.TradeWindow)

	// Untouched keys keep their defaults.
	assert.Equal(t, 200, cfg.Game.Salary)
	assert.Equal(t, 4, cfg.Game.WeatherPeriod)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

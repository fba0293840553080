package config_test

import (
	"testing"
	"time"

	"go-skud/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_CHAT_IDS", "")
	t.Setenv("TELEGRAM_OPERATOR_CHAT_IDS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.HTTPPort)
	assert.Equal(t, ":7001", cfg.ISUPListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.ISUPIdleTimeout)
	assert.Equal(t, 4, cfg.IngestWorkers)
	assert.Equal(t, 20, cfg.IngestRatePerSecond)
	assert.Equal(t, 40, cfg.IngestRateBurst)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Empty(t, cfg.TelegramAttendanceChat)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ChatIDs(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("TELEGRAM_CHAT_IDS", "305812935, -1001234")
	t.Setenv("TELEGRAM_OPERATOR_CHAT_IDS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{305812935, -1001234}, cfg.TelegramAttendanceChat)
	assert.Equal(t, cfg.TelegramAttendanceChat, cfg.TelegramOperatorChat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad timezone", "APP_TIMEZONE", "Mars/Olympus"},
		{"bad duration", "ISUP_IDLE_TIMEOUT", "five minutes"},
		{"bad worker count", "INGEST_WORKERS", "-2"},
		{"bad chat id", "TELEGRAM_CHAT_IDS", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_TIMEZONE", "UTC")
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

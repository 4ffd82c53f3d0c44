package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedash/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 85.0, cfg.Thresholds.AutoApprove)
	assert.Equal(t, 60.0, cfg.Thresholds.Review)
	assert.Equal(t, "mock", cfg.Extraction.Provider)
	assert.Equal(t, 1500*time.Millisecond, cfg.Extraction.UploadLatency)
	assert.Equal(t, 2*time.Second, cfg.Extraction.ExtractLatency)
	assert.Equal(t, 24*time.Hour, cfg.Intake.SLAWindow)
	assert.Equal(t, 15, cfg.Seed.Count)
	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "noop", cfg.Events.Provider)
	assert.Len(t, cfg.CORS.AllowedOrigins, 3)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVOICEDASH_THRESHOLDS_AUTO_APPROVE", "92.5")
	t.Setenv("INVOICEDASH_EXTRACTION_EXTRACT_LATENCY", "0s")
	t.Setenv("INVOICEDASH_SEED_COUNT", "3")
	t.Setenv("INVOICEDASH_LOG_FORMAT", "json")
	t.Setenv("INVOICEDASH_CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 92.5, cfg.Thresholds.AutoApprove)
	assert.Equal(t, time.Duration(0), cfg.Extraction.ExtractLatency)
	assert.Equal(t, 3, cfg.Seed.Count)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)

	t.Setenv("INVOICEDASH_SERVER_PORT", ":7000")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Port)
}

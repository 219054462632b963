package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDuration(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "20s")
	t.Setenv("REALTIME_DEBOUNCE", "250")
	t.Setenv("SESSION_STALE_TIME", "soon")

	assert.Equal(t, 20*time.Second, getDuration("FETCH_TIMEOUT", time.Second))
	assert.Equal(t, 250*time.Millisecond, getDuration("REALTIME_DEBOUNCE", time.Second))
	assert.Equal(t, time.Minute, getDuration("SESSION_STALE_TIME", time.Minute))
	assert.Equal(t, time.Hour, getDuration("UNSET_DURATION_KEY", time.Hour))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AUTH_PROVIDER", "")
	t.Setenv("ENV", "")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.AuthProvider)
	assert.True(t, cfg.MinioUseSSL)
	assert.False(t, cfg.IsProduction())
}

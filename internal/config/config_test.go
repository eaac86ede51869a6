package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)

	cfg := Load()
	assert.Equal(defaultSocketURL, cfg.SocketURL)
	assert.Equal(defaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(5, cfg.ReconnectAttempts)
	assert.Equal(3*time.Second, cfg.ReconnectInterval)
	assert.Equal("8090", cfg.Port)
	assert.False(cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	assert := assert.New(t)

	t.Setenv(envSocketURL, "ws://scoring.internal/ws/scoring/")
	t.Setenv(envReconnectAttempts, "8")
	t.Setenv(envReconnectInterval, "500ms")
	t.Setenv(envMetricsEnabled, "true")

	cfg := Load()
	assert.Equal("ws://scoring.internal/ws/scoring/", cfg.SocketURL)
	assert.Equal(8, cfg.ReconnectAttempts)
	assert.Equal(500*time.Millisecond, cfg.ReconnectInterval)
	assert.True(cfg.MetricsEnabled)
}

func TestLoadRejectsBadValues(t *testing.T) {
	assert := assert.New(t)

	t.Setenv(envReconnectAttempts, "-3")
	t.Setenv(envReconnectInterval, "soon")
	t.Setenv(envMetricsEnabled, "maybe")

	cfg := Load()
	assert.Equal(defaultReconnectAttempts, cfg.ReconnectAttempts)
	assert.Equal(defaultReconnectInterval, cfg.ReconnectInterval)
	assert.False(cfg.MetricsEnabled)
}

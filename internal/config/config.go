package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	envSocketURL         = "SCORESYNC_SOCKET_URL"
	envAPIBaseURL        = "SCORESYNC_API_BASE_URL"
	envReconnectAttempts = "SCORESYNC_RECONNECT_ATTEMPTS"
	envReconnectInterval = "SCORESYNC_RECONNECT_INTERVAL"
	envHTTPTimeout       = "SCORESYNC_HTTP_TIMEOUT"
	envPendingExpiry     = "SCORESYNC_PENDING_EXPIRY"
	envPort              = "SCORESYNC_PORT"
	envMetricsEnabled    = "SCORESYNC_METRICS_ENABLED"
	envOtlpEndpoint      = "SCORESYNC_OTLP_ENDPOINT"
	envOtlpInsecure      = "SCORESYNC_OTLP_INSECURE"

	defaultSocketURL         = "ws://localhost:8000/ws/scoring/"
	defaultAPIBaseURL        = "http://localhost:8000/api"
	defaultReconnectAttempts = 5
	defaultReconnectInterval = 3 * time.Second
	defaultHTTPTimeout       = 10 * time.Second
	defaultPendingExpiry     = 30 * time.Second
	defaultPort              = "8090"
)

// Config holds runtime configuration for the sync client and the
// scoreboard server.
type Config struct {
	SocketURL         string
	APIBaseURL        string
	ReconnectAttempts int
	ReconnectInterval time.Duration
	HTTPTimeout       time.Duration
	PendingExpiry     time.Duration
	Port              string
	MetricsEnabled    bool
	OtlpEndpoint      string
	OtlpInsecure      bool
}

// Load reads configuration from environment variables (and a .env file when
// present) with defaults matching the development backend.
func Load() Config {
	return Config{
		SocketURL:         envOrDefault(envSocketURL, defaultSocketURL),
		APIBaseURL:        envOrDefault(envAPIBaseURL, defaultAPIBaseURL),
		ReconnectAttempts: intEnvOrDefault(envReconnectAttempts, defaultReconnectAttempts),
		ReconnectInterval: durationEnvOrDefault(envReconnectInterval, defaultReconnectInterval),
		HTTPTimeout:       durationEnvOrDefault(envHTTPTimeout, defaultHTTPTimeout),
		PendingExpiry:     durationEnvOrDefault(envPendingExpiry, defaultPendingExpiry),
		Port:              envOrDefault(envPort, defaultPort),
		MetricsEnabled:    boolEnvOrDefault(envMetricsEnabled, false),
		OtlpEndpoint:      envOrDefault(envOtlpEndpoint, ""),
		OtlpInsecure:      boolEnvOrDefault(envOtlpInsecure, false),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func durationEnvOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func boolEnvOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

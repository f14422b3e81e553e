package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the hivelink client daemon.
type Config struct {
	APIBaseURL string
	LoginPath  string

	// HostUserID is the identity reported by the embedding host when the
	// client runs inside a chat-platform mini-app container. It scopes the
	// local credential store so that switching embedded identity never
	// reuses another identity's token.
	HostUserID string

	StorePath string

	BindAddr         string
	MetricsNamespace string
	ShutdownTimeout  time.Duration
	HTTPTimeout      time.Duration

	EngineMode   string
	RTCAppID     string
	RTCServerURL string

	PushStreamURL      string
	CallPollInterval   time.Duration
	UnreadPollInterval time.Duration

	AutoAnswer bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:         envOrDefault("LUVHIVE_API_BASE_URL", "https://api.luvhive.app"),
		LoginPath:          envOrDefault("LUVHIVE_LOGIN_PATH", "/login"),
		HostUserID:         trimmedEnv("LUVHIVE_HOST_USER_ID"),
		StorePath:          envOrDefault("LUVHIVE_STORE_PATH", "hivelink.db"),
		BindAddr:           envOrDefault("LUVHIVE_BIND_ADDR", ":8686"),
		MetricsNamespace:   envOrDefault("LUVHIVE_METRICS_NAMESPACE", "hivelink"),
		EngineMode:         envOrDefault("LUVHIVE_ENGINE_MODE", "auto"),
		RTCAppID:           trimmedEnv("LUVHIVE_RTC_APP_ID"),
		RTCServerURL:       trimmedEnv("LUVHIVE_RTC_SERVER_URL"),
		PushStreamURL:      trimmedEnv("LUVHIVE_PUSH_STREAM_URL"),
		ShutdownTimeout:    15 * time.Second,
		HTTPTimeout:        30 * time.Second,
		CallPollInterval:   3 * time.Second,
		UnreadPollInterval: 15 * time.Second,
		AutoAnswer:         false,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("LUVHIVE_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout, err = durationFromEnv("LUVHIVE_HTTP_TIMEOUT", cfg.HTTPTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CallPollInterval, err = durationFromEnv("LUVHIVE_CALL_POLL_INTERVAL", cfg.CallPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.UnreadPollInterval, err = durationFromEnv("LUVHIVE_UNREAD_POLL_INTERVAL", cfg.UnreadPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.AutoAnswer, err = boolFromEnv("LUVHIVE_AUTO_ANSWER", cfg.AutoAnswer)
	if err != nil {
		return Config{}, err
	}

	if _, err := url.Parse(cfg.APIBaseURL); err != nil {
		return Config{}, fmt.Errorf("LUVHIVE_API_BASE_URL parse error: %w", err)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("LUVHIVE_HTTP_TIMEOUT must be positive")
	}
	if cfg.CallPollInterval < time.Second {
		return Config{}, fmt.Errorf("LUVHIVE_CALL_POLL_INTERVAL must be at least 1s")
	}
	if cfg.UnreadPollInterval < time.Second {
		return Config{}, fmt.Errorf("LUVHIVE_UNREAD_POLL_INTERVAL must be at least 1s")
	}
	switch cfg.EngineMode {
	case "auto", "ws", "mock":
	default:
		return Config{}, fmt.Errorf("LUVHIVE_ENGINE_MODE must be one of auto, ws, mock")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s parse error: expected bool", key)
}

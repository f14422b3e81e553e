package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LUVHIVE_API_BASE_URL",
		"LUVHIVE_LOGIN_PATH",
		"LUVHIVE_HOST_USER_ID",
		"LUVHIVE_STORE_PATH",
		"LUVHIVE_BIND_ADDR",
		"LUVHIVE_METRICS_NAMESPACE",
		"LUVHIVE_ENGINE_MODE",
		"LUVHIVE_RTC_APP_ID",
		"LUVHIVE_RTC_SERVER_URL",
		"LUVHIVE_PUSH_STREAM_URL",
		"LUVHIVE_SHUTDOWN_TIMEOUT",
		"LUVHIVE_HTTP_TIMEOUT",
		"LUVHIVE_CALL_POLL_INTERVAL",
		"LUVHIVE_UNREAD_POLL_INTERVAL",
		"LUVHIVE_AUTO_ANSWER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://api.luvhive.app" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HostUserID != "" {
		t.Fatalf("HostUserID = %q, want empty", cfg.HostUserID)
	}
	if cfg.EngineMode != "auto" {
		t.Fatalf("EngineMode = %q, want auto", cfg.EngineMode)
	}
	if cfg.CallPollInterval != 3*time.Second {
		t.Fatalf("CallPollInterval = %v", cfg.CallPollInterval)
	}
	if cfg.AutoAnswer {
		t.Fatalf("AutoAnswer should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LUVHIVE_HOST_USER_ID", " tg_991 ")
	t.Setenv("LUVHIVE_CALL_POLL_INTERVAL", "5s")
	t.Setenv("LUVHIVE_AUTO_ANSWER", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HostUserID != "tg_991" {
		t.Fatalf("HostUserID = %q, want trimmed value", cfg.HostUserID)
	}
	if cfg.CallPollInterval != 5*time.Second {
		t.Fatalf("CallPollInterval = %v", cfg.CallPollInterval)
	}
	if !cfg.AutoAnswer {
		t.Fatalf("AutoAnswer should be true")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "LUVHIVE_HTTP_TIMEOUT", "soon"},
		{"bad bool", "LUVHIVE_AUTO_ANSWER", "maybe"},
		{"short poll interval", "LUVHIVE_CALL_POLL_INTERVAL", "100ms"},
		{"short unread interval", "LUVHIVE_UNREAD_POLL_INTERVAL", "10ms"},
		{"bad engine mode", "LUVHIVE_ENGINE_MODE", "teleport"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should reject %s=%q", tc.key, tc.value)
			}
		})
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AI.Model != "gemini-2.5-flash-lite" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "YOUR_GEMINI_API_KEY" {
		t.Errorf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.SecretKey != "super-secret-key" {
		t.Errorf("SecretKey = %q", cfg.SecretKey)
	}
	if cfg.BroadcastInterval != 5*time.Second {
		t.Errorf("BroadcastInterval = %v, want 5s", cfg.BroadcastInterval)
	}
	if cfg.Exchange.Timeout != 10*time.Second {
		t.Errorf("Exchange.Timeout = %v, want 10s", cfg.Exchange.Timeout)
	}
	if cfg.AI.Timeout != 20*time.Second {
		t.Errorf("AI.Timeout = %v, want 20s", cfg.AI.Timeout)
	}
	if cfg.AI.MaxHistory != 5 {
		t.Errorf("AI.MaxHistory = %d, want 5", cfg.AI.MaxHistory)
	}
	if !cfg.AI.PersistErrorReplies {
		t.Error("AI.PersistErrorReplies should default to true")
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_MODEL", "gemini-test")
	t.Setenv("BROADCAST_INTERVAL", "250ms")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.AI.Model != "gemini-test" {
		t.Errorf("AI.Model = %q, want gemini-test", cfg.AI.Model)
	}
	if cfg.BroadcastInterval != 250*time.Millisecond {
		t.Errorf("BroadcastInterval = %v", cfg.BroadcastInterval)
	}
	if got := cfg.GetRedisAddress(); got != "localhost:6380" {
		t.Errorf("GetRedisAddress = %q", got)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero interval", "BROADCAST_INTERVAL", "0s"},
		{"zero history", "AI_MAX_HISTORY", "0"},
		{"zero buffer", "WS_SEND_BUFFER", "0"},
		{"bad duration", "AI_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestSummaryMasksSecrets(t *testing.T) {
	cfg := &Config{SecretKey: "super-secret-key"}
	cfg.AI.APIKey = "abcdef"

	s := cfg.Summary()
	if s["Secret key"] == "super-secret-key" {
		t.Error("secret key must be masked")
	}
	if s["AI ключ"] != "ab**ef" {
		t.Errorf("AI key mask = %q", s["AI ключ"])
	}
}

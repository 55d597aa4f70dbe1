package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "JWT_SECRET", "TOKEN_TTL", "RATE_LIMIT_RPS"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("TokenTTL = %s, want 168h", cfg.TokenTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.JWTSecret == "" {
		t.Error("development config should fall back to a dev secret")
	}
	if cfg.WorkerID == "" {
		t.Error("WorkerID should be derived when unset")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("PLAYER_LOCK_TTL", "3s")
	t.Setenv("RATE_LIMIT_BURST", "2")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.PlayerLockTTL != 3*time.Second {
		t.Errorf("PlayerLockTTL = %s, want 3s", cfg.PlayerLockTTL)
	}
	if cfg.RateLimitBurst != 2 {
		t.Errorf("RateLimitBurst = %d, want 2", cfg.RateLimitBurst)
	}
}

func TestFromEnv_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad duration", "TOKEN_TTL", "soon"},
		{"zero rps", "RATE_LIMIT_RPS", "0"},
		{"zero lock ttl", "PLAYER_LOCK_TTL", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

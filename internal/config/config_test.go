package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("SMTP_PORT", "2525")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.TokenTTL)
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("expected smtp port 2525, got %d", cfg.SMTPPort)
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d"}
	want := "postgres://u:p@h:1/d?sslmode=disable"
	if got := cfg.DatabaseURL(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

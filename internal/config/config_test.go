package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PRETOR_JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.AccessTTL != 86400*time.Second {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 604800*time.Second {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	if cfg.AuthCacheTTL != 10*time.Second {
		t.Fatalf("unexpected cache ttl: %v", cfg.AuthCacheTTL)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("PRETOR_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without PRETOR_JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PRETOR_ADDR", ":9999")
	t.Setenv("PRETOR_JWT_ACCESS_TTL", "3600")
	t.Setenv("PRETOR_JWT_REFRESH_TTL", "7200")
	t.Setenv("PRETOR_BCRYPT_COST", "10")
	t.Setenv("PRETOR_AUTHN_CACHE_TTL", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.AccessTTL != time.Hour || cfg.RefreshTTL != 2*time.Hour {
		t.Fatalf("ttl overrides not applied: %v / %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.BcryptCost)
	}
	if cfg.AuthCacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache ttl: %v", cfg.AuthCacheTTL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"PRETOR_JWT_ACCESS_TTL", "not-a-number"},
		{"PRETOR_JWT_ACCESS_TTL", "-5"},
		{"PRETOR_JWT_REFRESH_TTL", "0"},
		{"PRETOR_BCRYPT_COST", "3"},
		{"PRETOR_BCRYPT_COST", "32"},
		{"PRETOR_BCRYPT_COST", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

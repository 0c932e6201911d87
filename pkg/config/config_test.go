package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" || !cfg.App.IsDev() {
		t.Fatalf("expected dev env, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.App.Port)
	}
	if cfg.Cart.StorageKey != "harvest_cart" {
		t.Fatalf("unexpected storage key %q", cfg.Cart.StorageKey)
	}
	if cfg.Cart.NormalizedBackend() != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Cart.Backend)
	}
	if cfg.Cart.RedisTTL != 90*24*time.Hour {
		t.Fatalf("unexpected redis ttl %v", cfg.Cart.RedisTTL)
	}
	if cfg.Checkout.Currency != "usd" {
		t.Fatalf("unexpected currency %q", cfg.Checkout.Currency)
	}
	if len(cfg.CORS.Origins) != 1 || cfg.CORS.Origins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORS.Origins)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_BackendPrerequisites(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "redis without address", env: map[string]string{EnvCartBackend: "redis"}, wantErr: true},
		{name: "redis with url", env: map[string]string{EnvCartBackend: "redis", EnvRedisURL: "redis://localhost:6379/0"}},
		{name: "postgres without dsn", env: map[string]string{EnvCartBackend: "postgres"}, wantErr: true},
		{name: "postgres with dsn", env: map[string]string{EnvCartBackend: "Postgres", EnvDBDSN: "postgres://u:p@localhost:5432/harvest"}},
		{name: "sqlite defaults dsn", env: map[string]string{EnvCartBackend: "sqlite"}},
		{name: "file", env: map[string]string{EnvCartBackend: "file", EnvCartFileDir: t.TempDir()}},
		{name: "unknown backend", env: map[string]string{EnvCartBackend: "etcd"}, wantErr: true},
		{name: "zero timeout", env: map[string]string{EnvCartOpTimeout: "0s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Cart.NormalizedBackend() == BackendSQLite && cfg.DB.DSN == "" {
				t.Fatalf("sqlite should default a dsn")
			}
		})
	}
}

func TestLoad_NormalizesCheckout(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCheckoutBaseURL, "https://harvestconnect.org/")
	t.Setenv(EnvCheckoutCurrency, " USD ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Checkout.BaseURL != "https://harvestconnect.org" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Checkout.BaseURL)
	}
	if cfg.Checkout.Currency != "usd" {
		t.Fatalf("expected lower-case currency, got %q", cfg.Checkout.Currency)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAppEnv, "dev")
}

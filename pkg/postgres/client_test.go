package postgres

import (
	"testing"
	"time"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(
		WithDSN("postgres://u:p@localhost:5432/fintrack?sslmode=disable"),
		WithPool(8, 1),
		WithLifetimes(time.Minute, time.Hour),
		WithConnectTimeout(2*time.Second),
	)
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if cfg.MaxConns != 8 || cfg.MinConns != 1 {
		t.Fatalf("pool bounds = %d/%d, want 8/1", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != time.Hour || cfg.MaxConnIdleTime != time.Minute {
		t.Fatalf("unexpected lifetimes %v/%v", cfg.MaxConnIdleTime, cfg.MaxConnLifetime)
	}
	if cfg.ConnConfig.Database != "fintrack" || cfg.ConnConfig.ConnectTimeout != 2*time.Second {
		t.Fatalf("unexpected conn config %+v", cfg.ConnConfig)
	}
}

func TestPoolConfig_RequiresDSN(t *testing.T) {
	if _, err := poolConfig(); err == nil {
		t.Fatalf("expected error without dsn")
	}
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	if _, err := poolConfig(WithDSN("postgres://%zz")); err == nil {
		t.Fatalf("expected parse error")
	}
}

package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestOptionsApply(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://clinic@localhost:5432/clinic")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	Options{}.apply(cfg)
	if cfg.MaxConns != 10 || cfg.MinConns != 1 || cfg.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("unexpected defaults: max=%d min=%d life=%v", cfg.MaxConns, cfg.MinConns, cfg.MaxConnLifetime)
	}

	Options{MaxConns: 4, MinConns: 8, MaxConnIdleTime: time.Minute}.apply(cfg)
	if cfg.MaxConns != 4 || cfg.MinConns != 1 || cfg.MaxConnIdleTime != time.Minute {
		t.Fatalf("unexpected overrides: max=%d min=%d idle=%v", cfg.MaxConns, cfg.MinConns, cfg.MaxConnIdleTime)
	}
}

func TestReadyCheckWithoutPool(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error for missing pool")
	}
}

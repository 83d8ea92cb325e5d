package database_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/cadence/pkg/database"
	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

func testConfig() database.Config {
	return database.Config{
		Host:            "127.0.0.1",
		Port:            5432,
		Name:            "cadence",
		User:            "cadence",
		Password:        "cadence",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "1s",
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := testConfig()

	sys, err := database.New(&cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 42 {
		t.Errorf("MaxOpenConnections: got %d, want 42", got)
	}
	if sys.Ready() {
		t.Error("should not be ready before startup")
	}
}

func TestStartupFailsWhenUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 1

	sys, err := database.New(&cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err = lc.WaitForStartup()
	if !errors.Is(err, database.ErrNotReady) {
		t.Fatalf("WaitForStartup: got %v, want ErrNotReady", err)
	}
	if sys.Ready() {
		t.Error("should not be ready after a failed ping")
	}
	if lc.Ready() {
		t.Error("coordinator should not be ready")
	}
}

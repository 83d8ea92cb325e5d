package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/cadence/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "CADENCE_DB_DSN"

// migrateLogger routes golang-migrate output through slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return l.verbose }

func main() {
	var (
		dsn     = flag.String("dsn", "", "Database connection string (defaults to "+envDSN+", then the service config)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
		verbose = flag.Bool("verbose", false, "Log each applied migration")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("system", "migrate")

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	url, err := resolveDSN(*dsn)
	if err != nil {
		logger.Error("resolve database url", "error", err)
		os.Exit(1)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		logger.Error("create migration source", "error", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()
	m.Log = migrateLogger{logger: logger, verbose: *verbose}

	if err := run(m, *version, forceSet, *force, *up, *down, *steps, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

// resolveDSN prefers the flag, then CADENCE_DB_DSN, then the database
// section of the service configuration.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Database.URL(), nil
}

func run(m *migrate.Migrate, version, forceSet bool, force int, up, down bool, steps int, logger *slog.Logger) error {
	switch {
	case version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		logger.Info("current version", "version", v, "dirty", dirty)
	case forceSet:
		if err := m.Force(force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		logger.Info("forced version", "version", force)
	case up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("up: %w", err)
		}
		logger.Info("migrations applied")
	case down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("down: %w", err)
		}
		logger.Info("migrations reverted")
	case steps != 0:
		if err := m.Steps(steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("steps %d: %w", steps, err)
		}
		logger.Info("migration steps applied", "steps", steps)
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N] [-verbose]")
		flag.PrintDefaults()
	}
	return nil
}

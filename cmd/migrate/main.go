package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"codeberg.org/algorave/apikit/internal/config"
	"codeberg.org/algorave/apikit/internal/logger"
	"codeberg.org/algorave/apikit/migrations"
)

const usage = "usage: migrate up|down|version"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadMigrationConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	m, err := migrations.New(cfg.DatabaseURL)
	if err != nil {
		logger.FatalErr(err, "failed to open migrations")
	}
	defer m.Close() //nolint:errcheck // best-effort cleanup

	if err := run(m, os.Args[1]); err != nil {
		logger.ErrorErr(err, "migration failed", "command", os.Args[1])
		os.Exit(1) //nolint:gocritic // deferred close is best-effort
	}
}

func run(m *migrate.Migrate, command string) error {
	switch command {
	case "up":
		if err := migrations.Up(m); err != nil {
			return err
		}
		logger.Info("migrations applied")
	case "down":
		if err := migrations.Down(m); err != nil {
			return err
		}
		logger.Info("migration rolled back")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read version: %w", err)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
	default:
		return fmt.Errorf("unknown command %q: %s", command, usage)
	}

	return nil
}

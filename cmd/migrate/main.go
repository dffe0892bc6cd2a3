package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ManuelReschke/Storefront/internal/pkg/config"
	"github.com/ManuelReschke/Storefront/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrator is the part of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
}

var errUsage = errors.New("usage")

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	db := config.LoadDatabase()
	log.Infof("[Migrate] Connecting to database: %s", db.Redacted())

	m, err := migrate.New("file://"+env.GetEnv("MIGRATIONS_PATH", "migrations"), db.MigrateURL())
	if err != nil {
		log.Fatalf("[Migrate] Failed to initialize migrations: %v", err)
	}

	err = run(m, os.Args[1:])
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		log.Warnf("[Migrate] Failed to close migration resources: %v, %v", sourceErr, dbErr)
	}
	if errors.Is(err, errUsage) {
		printUsage(os.Stdout)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
}

// run executes one command. ErrNoChange is reported as success.
func run(m migrator, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "up":
		return report(m.Up(), "Migrations applied", "Database is already up to date")

	case "down":
		if err := m.Steps(-1); err != nil {
			return fmt.Errorf("roll back the last migration: %w", err)
		}
		log.Info("[Migrate] Last migration rolled back")
		return nil

	case "goto":
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		err = m.Migrate(uint(version))
		return report(err, fmt.Sprintf("Migrated to version %d", version), fmt.Sprintf("Database is already at version %d", version))

	case "force":
		// Clears the dirty flag after a failed migration was fixed by hand.
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		log.Infof("[Migrate] Version forced to %d", version)
		return nil

	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("[Migrate] No migrations have been applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read migration version: %w", err)
		}
		if dirty {
			log.Warnf("[Migrate] Current migration version: %d (dirty)", version)
			return nil
		}
		log.Infof("[Migrate] Current migration version: %d", version)
		return nil

	default:
		return errUsage
	}
}

func report(err error, done, unchanged string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Infof("[Migrate] %s", unchanged)
		return nil
	}
	if err != nil {
		return err
	}
	log.Infof("[Migrate] %s", done)
	return nil
}

func versionArg(args []string) (uint64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a version number: %w", args[0], errUsage)
	}
	version, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version number %q: %w", args[1], err)
	}
	return version, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: go run cmd/migrate/main.go [command]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  up        - apply all pending migrations")
	fmt.Fprintln(w, "  down      - roll back the last migration")
	fmt.Fprintln(w, "  goto N    - migrate to version N")
	fmt.Fprintln(w, "  force N   - mark version N as applied and clear the dirty flag")
	fmt.Fprintln(w, "  status    - print the current migration version")
}

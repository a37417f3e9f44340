package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies the SQL migrations under migrations/ to the listings
// database. It wraps golang-migrate with logging and ErrNoChange
// normalization.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New builds a Migrator over an open postgres connection.
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Up applies all pending migrations.
func (mg *Migrator) Up() error {
	if done, err := mg.run("up", mg.m.Up()); done || err != nil {
		return err
	}

	version, dirty, err := mg.m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	mg.logger.Info("Migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	if done, err := mg.run("down", mg.m.Down()); done || err != nil {
		return err
	}
	mg.logger.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations; negative n rolls back.
func (mg *Migrator) Steps(n int) error {
	if done, err := mg.run("step", mg.m.Steps(n)); done || err != nil {
		return err
	}
	mg.logger.Info("Migration steps applied", zap.Int("steps", n))
	return nil
}

// run normalizes ErrNoChange to a logged no-op. The bool reports whether
// the caller is done.
func (mg *Migrator) run(op string, err error) (bool, error) {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("No migration changes", zap.String("op", op))
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("migration %s failed: %w", op, err)
	}
	return false, nil
}

// Version reports the current schema version. A fresh database reports
// version 0 rather than an error.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force stamps the schema version without running migrations. Only for
// recovering a dirty state.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop destroys everything in the target schema.
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping database schema")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration database: %w", dbErr)
	}
	return nil
}

package postgres

import (
	"context"
	_ "embed"

	"github.com/jmoiron/sqlx"

	"mentor/pkg/errors"
	"mentor/pkg/logger"
)

//go:embed migrations/0001_init.sql
var migrationSQL string

// RunMigrations applies the schema on startup when the database is empty
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'users'
		)`).Scan(&exists)
	if err != nil {
		return errors.Wrap(err, "failed to check schema state")
	}

	if exists {
		logger.Debug("Database already migrated, skipping")
		return nil
	}

	logger.Info("Running database migrations")

	if _, err := db.ExecContext(ctx, migrationSQL); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	logger.Info("Database migrations completed")
	return nil
}

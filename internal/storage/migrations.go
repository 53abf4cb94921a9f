package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial records table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS records (
					id TEXT PRIMARY KEY,
					region TEXT NOT NULL,
					district TEXT NOT NULL,
					year INTEGER NOT NULL,
					month INTEGER NOT NULL,
					rainfall_mm REAL NOT NULL,
					temperature_c REAL NOT NULL,
					sanitation_index REAL NOT NULL,
					water_quality_index REAL NOT NULL,
					population_density REAL NOT NULL,
					waste_mgmt_score REAL NOT NULL,
					cholera_cases INTEGER NOT NULL,
					typhoid_cases INTEGER NOT NULL,
					projected_cholera INTEGER,
					projected_typhoid INTEGER,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_records_region ON records(region)`,
				`CREATE INDEX idx_records_district ON records(district)`,
				`CREATE INDEX idx_records_period ON records(year, month)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index pending rows for reconciler scans",
		Up: func(tx *sql.Tx) error {
			// Partial index keeps pending scans cheap as the table grows.
			_, err := tx.Exec(`
				CREATE INDEX IF NOT EXISTS idx_records_pending
				ON records(created_at, id)
				WHERE projected_cholera IS NULL AND projected_typhoid IS NULL
			`)
			if err != nil {
				return fmt.Errorf("failed to create pending index: %w", err)
			}
			return nil
		},
	},
}

// Migrate runs all pending migrations against the database.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// DataMigration represents a data migration
type DataMigration struct {
	Version     string
	Description string
	Up          func(*sql.DB) error
}

// GetDataMigrations return all data migrations
func GetDataMigrations() []DataMigration {
	return []DataMigration{
		{
			Version:     "swap_001",
			Description: "Widen balance columns to numeric(39,0)",
			Up:          widenBalanceColumns,
		},
		{
			Version:     "swap_002",
			Description: "Index claim_events by signer and time",
			Up:          indexClaimEvents,
		},
	}
}

// balanceColumns hold decimal 128-bit amounts. AutoMigrate never changes the
// type of an existing column, so tables created by an older build are fixed here.
var balanceColumns = []struct{ table, column string }{
	{"claim_records", "claimed_balance"},
	{"account_balances", "balance"},
	{"claim_events", "amount"},
	{"claim_events", "total_claimed"},
}

func widenBalanceColumns(db *sql.DB) error {
	for _, col := range balanceColumns {
		var precision sql.NullInt64
		err := db.QueryRow(`
			SELECT numeric_precision
			FROM information_schema.columns
			WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
		`, col.table, col.column).Scan(&precision)
		if err == sql.ErrNoRows {
			log.Printf("📋 %s.%s does not exist yet, skipping", col.table, col.column)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to inspect %s.%s: %w", col.table, col.column, err)
		}
		if precision.Valid && precision.Int64 >= 39 {
			continue
		}

		log.Printf("🔧 Updating %s.%s to NUMERIC(39,0)...", col.table, col.column)
		stmt := fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s TYPE NUMERIC(39,0) USING %s::numeric`, col.table, col.column, col.column)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to update %s.%s: %w", col.table, col.column, err)
		}
	}
	return nil
}

func indexClaimEvents(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_claim_events_signer_created ON claim_events (signer, created_at DESC)`)
	return err
}

// RunDataMigrations applies every migration not yet recorded in schema_migrations_log
func RunDataMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations_log (
			id SERIAL PRIMARY KEY,
			version VARCHAR(50) NOT NULL UNIQUE,
			description TEXT,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations_log: %w", err)
	}

	for _, migration := range GetDataMigrations() {
		var count int
		if err := db.QueryRow(
			"SELECT COUNT(*) FROM schema_migrations_log WHERE version = $1",
			migration.Version,
		).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		log.Printf("🚀 Running data migration: %s", migration.Description)
		if err := migration.Up(db); err != nil {
			return fmt.Errorf("%s: %w", migration.Version, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations_log (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				// another instance recorded it first
				continue
			}
			return err
		}
		log.Printf("✅ Data migration %s completed", migration.Version)
	}
	return nil
}

package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist.
func InitDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			fingerprint TEXT UNIQUE NOT NULL,
			settings TEXT NOT NULL,
			stats TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS exact_duplicates (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			customer_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			status TEXT NOT NULL,
			order_id TEXT NOT NULL,
			delivery_date TEXT,
			amount TEXT,
			priority TEXT NOT NULL,
			product_count INTEGER NOT NULL,
			signature TEXT NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exact_duplicates_customer ON exact_duplicates(customer_id)`,

		`CREATE TABLE IF NOT EXISTS similar_pairs (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			customer_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			status_1 TEXT NOT NULL,
			status_2 TEXT NOT NULL,
			order_id_1 TEXT NOT NULL,
			order_id_2 TEXT NOT NULL,
			delivery_date_1 TEXT,
			delivery_date_2 TEXT,
			amount_1 TEXT,
			amount_2 TEXT,
			amount_similarity REAL NOT NULL,
			product_similarity REAL NOT NULL,
			priority TEXT NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_similar_pairs_customer ON similar_pairs(customer_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

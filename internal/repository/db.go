package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database, and SQLite serializes writers anyway.
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

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batch_runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		`CREATE TABLE IF NOT EXISTS batch_lines (
			run_id TEXT NOT NULL,
			line INTEGER NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL DEFAULT '',
			exec_code TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			record TEXT NOT NULL,
			result TEXT,
			processed_at DATETIME NOT NULL,
			PRIMARY KEY (run_id, line),
			FOREIGN KEY (run_id) REFERENCES batch_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_lines_order ON batch_lines(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_batch_lines_exec_code ON batch_lines(exec_code)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_type TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL DEFAULT '',
			exec_code TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL,
			received_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_transaction ON notifications(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_received_at ON notifications(received_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

package store

import "fmt"

const currentSchemaVersion = 1

// Migrate brings the database schema up to the current version.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var version int
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migrating to v1: %w", err)
		}
	}

	return nil
}

func (db *DB) migrateV1() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at      TEXT NOT NULL,
			metric_count    INTEGER NOT NULL,
			rec_count       INTEGER NOT NULL,
			critical        INTEGER NOT NULL,
			high            INTEGER NOT NULL,
			medium          INTEGER NOT NULL,
			low             INTEGER NOT NULL,
			phases          INTEGER NOT NULL,
			not_scheduled   INTEGER NOT NULL,
			auto_applied    INTEGER NOT NULL,
			report_json     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

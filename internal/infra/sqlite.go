package infra

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"artistry/internal/sqlinline"
)

// sqliteSchemaVersion is bumped whenever QSchemaSQLite changes.
const sqliteSchemaVersion = 1

// OpenSQLite opens (creating when needed) the sqlite database at path in WAL
// mode and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := MigrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite applies the schema once and records its version.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version WHERE version = ?", sqliteSchemaVersion).Scan(&count)
	if err == nil && count > 0 {
		return nil
	}

	_, schema, err := StripMarker(sqlinline.QSchemaSQLite)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", sqliteSchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

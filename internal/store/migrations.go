package store

import (
	"context"
	"database/sql"
)

// migration is one forward-only schema step, applied in order and
// tracked in schema_migrations so re-opening an existing database file
// never re-runs a step.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE notes (
	id            BLOB    NOT NULL,
	tag           INTEGER NOT NULL,
	header        BLOB    NOT NULL,
	details       BLOB    NOT NULL,
	created_at_us INTEGER NOT NULL
);
CREATE UNIQUE INDEX notes_id_idx ON notes(id);
CREATE INDEX notes_tag_created_idx ON notes(tag, created_at_us);
CREATE INDEX notes_created_idx ON notes(created_at_us);
`,
	},
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);`); err != nil {
		return newErr(KindMigration, "create schema_migrations", err)
	}

	var current int
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&current); err != nil {
		return newErr(KindMigration, "read schema version", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return newErr(KindMigration, "begin migration tx", err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return newErr(KindMigration, "apply migration", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations(version, applied_at) VALUES (?, strftime('%s','now'))`,
			m.version); err != nil {
			tx.Rollback()
			return newErr(KindMigration, "record migration", err)
		}
		if err := tx.Commit(); err != nil {
			return newErr(KindMigration, "commit migration", err)
		}
	}
	return nil
}

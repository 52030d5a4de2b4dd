package clientdb

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/relaynote/relaynode/internal/noteproto"
)

// SQLiteDB is the native DB implementation, structured the same way as
// internal/store's SQLite backend: one writer at a time, concurrent
// readers.
type SQLiteDB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens a client database at dsn.
func Open(ctx context.Context, dsn string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
			db.Close()
			return nil, err
		}
		db.SetMaxOpenConns(4)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDB{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS fetched_notes (
	id         BLOB    PRIMARY KEY,
	tag        INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stored_notes (
	id         BLOB    PRIMARY KEY,
	tag        INTEGER NOT NULL,
	header     BLOB    NOT NULL,
	details    BLOB    NOT NULL,
	cursor     INTEGER NOT NULL,
	stored_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS stored_notes_tag_idx ON stored_notes(tag);
CREATE TABLE IF NOT EXISTS cursor_by_tag (
	tag    INTEGER PRIMARY KEY,
	cursor INTEGER NOT NULL
);
`)
	return err
}

func (d *SQLiteDB) NoteFetched(ctx context.Context, id noteproto.ID) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetched_notes WHERE id = ?`, id[:]).Scan(&count)
	return count > 0, err
}

func (d *SQLiteDB) RecordFetchedNote(ctx context.Context, id noteproto.ID, tag uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO fetched_notes (id, tag, fetched_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		id[:], tag, time.Now().UTC().UnixMicro())
	return err
}

func (d *SQLiteDB) StoreNote(ctx context.Context, header, details []byte, cursor uint64) error {
	h, err := noteproto.DecodeHeader(header)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO stored_notes (id, tag, header, details, cursor, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET header=excluded.header, details=excluded.details, cursor=excluded.cursor`,
		h.ID[:], h.Tag, header, details, int64(cursor), time.Now().UTC().UnixMicro())
	return err
}

func (d *SQLiteDB) StoredNote(ctx context.Context, id noteproto.ID) (StoredNote, bool, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, tag, header, details, cursor, stored_at FROM stored_notes WHERE id = ?`, id[:])
	n, err := scanStoredNote(row)
	if err == sql.ErrNoRows {
		return StoredNote{}, false, nil
	}
	if err != nil {
		return StoredNote{}, false, err
	}
	return n, true, nil
}

func (d *SQLiteDB) StoredNotesForTag(ctx context.Context, tag uint32) ([]StoredNote, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, tag, header, details, cursor, stored_at FROM stored_notes WHERE tag = ? ORDER BY cursor ASC`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredNote
	for rows.Next() {
		n, err := scanStoredNoteRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (d *SQLiteDB) FetchedNotesForTag(ctx context.Context, tag uint32) ([]FetchedNote, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, tag, fetched_at FROM fetched_notes WHERE tag = ? ORDER BY fetched_at ASC`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FetchedNote
	for rows.Next() {
		var (
			idBytes   []byte
			t         uint32
			fetchedAt int64
		)
		if err := rows.Scan(&idBytes, &t, &fetchedAt); err != nil {
			return nil, err
		}
		var id noteproto.ID
		copy(id[:], idBytes)
		out = append(out, FetchedNote{ID: id, Tag: t, FetchedAt: time.UnixMicro(fetchedAt).UTC()})
	}
	return out, rows.Err()
}

func (d *SQLiteDB) Cursor(ctx context.Context, tag uint32) (uint64, error) {
	var cursor int64
	err := d.db.QueryRowContext(ctx, `SELECT cursor FROM cursor_by_tag WHERE tag = ?`, tag).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return uint64(cursor), err
}

func (d *SQLiteDB) SetCursor(ctx context.Context, tag uint32, cursor uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO cursor_by_tag (tag, cursor) VALUES (?, ?)
		 ON CONFLICT(tag) DO UPDATE SET cursor=excluded.cursor`,
		tag, int64(cursor))
	return err
}

func (d *SQLiteDB) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT tag) FROM stored_notes`).Scan(&st.TotalNotes, &st.DistinctTags)
	return st, err
}

// CleanupOldData sweeps both stored_notes and fetched_notes, the way
// Maintenance sweeps Store: a fetched-notes row exists only to dedup a
// prior delivery, so it is destroyed by the same retention policy as
// the note it recorded (spec.md §3).
func (d *SQLiteDB) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var storedRes, fetchedRes sql.Result
	var err error
	if retentionDays <= 0 {
		storedRes, err = d.db.ExecContext(ctx, `DELETE FROM stored_notes`)
		if err != nil {
			return 0, err
		}
		fetchedRes, err = d.db.ExecContext(ctx, `DELETE FROM fetched_notes`)
	} else {
		cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour).UnixMicro()
		storedRes, err = d.db.ExecContext(ctx, `DELETE FROM stored_notes WHERE stored_at < ?`, cutoff)
		if err != nil {
			return 0, err
		}
		fetchedRes, err = d.db.ExecContext(ctx, `DELETE FROM fetched_notes WHERE fetched_at < ?`, cutoff)
	}
	if err != nil {
		return 0, err
	}

	storedN, err := storedRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	fetchedN, err := fetchedRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	return storedN + fetchedN, nil
}

func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStoredNote(row *sql.Row) (StoredNote, error)      { return scanAny(row) }
func scanStoredNoteRows(rows *sql.Rows) (StoredNote, error) { return scanAny(rows) }

func scanAny(s scanner) (StoredNote, error) {
	var (
		idBytes  []byte
		tag      uint32
		header   []byte
		details  []byte
		cursor   int64
		storedAt int64
	)
	if err := s.Scan(&idBytes, &tag, &header, &details, &cursor, &storedAt); err != nil {
		return StoredNote{}, err
	}
	var id noteproto.ID
	copy(id[:], idBytes)
	return StoredNote{
		ID:       id,
		Tag:      tag,
		Header:   header,
		Details:  details,
		Cursor:   uint64(cursor),
		StoredAt: time.UnixMicro(storedAt).UTC(),
	}, nil
}

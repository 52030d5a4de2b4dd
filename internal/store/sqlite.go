package store

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/noteproto"
)

// SQLiteStore is the Store implementation backed by a single embedded
// database file (or an in-memory database for tests). SQLite only
// allows one writer at a time, so writes serialize under mu while
// reads run concurrently against the connection pool.
type SQLiteStore struct {
	db          *sql.DB
	mu          sync.Mutex
	maxNoteSize int
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// Open creates or opens a SQLite-backed Store at dsn. Use "file::memory:?cache=shared"
// for an in-memory database, or a filesystem path for a durable one.
// maxNoteSize bounds the details payload the Store will accept; a
// value of 0 means unbounded. m records per-operation counters and
// durations the way every other component in this relay does.
func Open(ctx context.Context, dsn string, maxNoteSize int, m *metrics.Metrics, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, newErr(KindConnection, "open", err)
	}

	// A file-backed database gets one writer connection and WAL so
	// readers never block behind it; an in-memory database only has
	// one backing page cache per connection, so it must stay at one
	// connection total or readers would see an empty database.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
			db.Close()
			return nil, newErr(KindConnection, "enable wal", err)
		}
		db.SetMaxOpenConns(4)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, newErr(KindConnection, "enable foreign_keys", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, maxNoteSize: maxNoteSize, metrics: m, log: log}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, header, details []byte) error {
	timer := s.metrics.NewTimer("store_insert")

	if s.maxNoteSize > 0 && len(details) > s.maxNoteSize {
		timer.Finish("error")
		return ErrTooLarge
	}
	h, err := noteproto.DecodeHeader(header)
	if err != nil {
		timer.Finish("error")
		return newErr(KindSerialization, "insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().UnixMicro()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notes (id, tag, header, details, created_at_us) VALUES (?, ?, ?, ?, ?)`,
		h.ID[:], h.Tag, header, details, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			timer.Finish("duplicate")
			return ErrAlreadyExists
		}
		timer.Finish("error")
		return newErr(KindQuery, "insert", err)
	}
	timer.Finish("ok")
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) Query(ctx context.Context, tags []uint32, cursor uint64, limit *int) ([]StoredNote, error) {
	timer := s.metrics.NewTimer("store_query")
	if limit != nil && *limit <= 0 {
		timer.Finish("ok")
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, tag, header, details, created_at_us FROM notes WHERE created_at_us > ?`)
	args := []any{int64(cursor)}

	if len(tags) > 0 {
		sb.WriteString(` AND tag IN (`)
		for i, t := range tags {
			if i > 0 {
				sb.WriteString(`,`)
			}
			sb.WriteString(`?`)
			args = append(args, t)
		}
		sb.WriteString(`)`)
	}
	sb.WriteString(` ORDER BY created_at_us ASC, rowid ASC`)
	if limit != nil {
		sb.WriteString(` LIMIT ?`)
		args = append(args, *limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		timer.Finish("error")
		return nil, newErr(KindQuery, "query", err)
	}
	defer rows.Close()

	var out []StoredNote
	for rows.Next() {
		var (
			idBytes   []byte
			tag       uint32
			header    []byte
			details   []byte
			createdAt int64
		)
		if err := rows.Scan(&idBytes, &tag, &header, &details, &createdAt); err != nil {
			timer.Finish("error")
			return nil, newErr(KindSerialization, "query scan", err)
		}
		var id noteproto.ID
		copy(id[:], idBytes)
		out = append(out, StoredNote{
			Header:    header,
			Details:   details,
			ID:        id,
			Tag:       tag,
			CreatedAt: time.UnixMicro(createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		timer.Finish("error")
		return nil, newErr(KindQuery, "query rows", err)
	}
	timer.Finish("ok")
	return out, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, id noteproto.ID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE id = ?`, id[:]).Scan(&count)
	if err != nil {
		return false, newErr(KindQuery, "exists", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT tag) FROM notes`,
	).Scan(&st.TotalNotes, &st.DistinctTags)
	if err != nil {
		return Stats{}, newErr(KindQuery, "stats", err)
	}
	return st, nil
}

func (s *SQLiteStore) RetentionSweep(ctx context.Context, retentionDays int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res sql.Result
	var err error
	if retentionDays <= 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM notes`)
	} else {
		cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour).UnixMicro()
		res, err = s.db.ExecContext(ctx, `DELETE FROM notes WHERE created_at_us < ?`, cutoff)
	}
	if err != nil {
		return 0, newErr(KindQuery, "retention sweep", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, newErr(KindQuery, "retention sweep rows affected", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newErr(KindConnection, "close", err)
	}
	return nil
}

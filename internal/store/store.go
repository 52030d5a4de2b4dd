// Package store is the durable, ordered note table: the only component
// that assigns created_at and the only source of truth for pagination.
package store

import (
	"context"
	"time"

	"github.com/relaynote/relaynode/internal/noteproto"
)

// StoredNote is one row as returned by Query: the header/details bytes
// plus the created_at the Store assigned at insert.
type StoredNote struct {
	Header    []byte
	Details   []byte
	ID        noteproto.ID
	Tag       uint32
	CreatedAt time.Time
}

// Cursor returns the note's position encoded as microseconds since the
// Unix epoch, the canonical cursor encoding used throughout the system.
func (n StoredNote) Cursor() uint64 {
	return uint64(n.CreatedAt.UnixMicro())
}

// Stats is the node-wide aggregate reported by Stats().
type Stats struct {
	TotalNotes   uint64
	DistinctTags uint64
}

// Store is the authoritative persistence layer for notes. Implementations
// must give every committed write immediate visibility to subsequent
// reads (read-committed or stronger) and must never return a partial
// row for a Query executed concurrently with an Insert.
type Store interface {
	// Insert stores a new note, stamping CreatedAt at the Store's clock.
	// Returns ErrAlreadyExists (an *Error with Kind KindConstraint) when
	// id is already present, or ErrTooLarge (Kind KindTooLarge) when
	// len(details) exceeds the configured max_note_size.
	Insert(ctx context.Context, header, details []byte) error

	// Query returns notes with tag in tags and created_at > cursor,
	// ordered by (created_at, rowid) ascending, truncated to limit. A
	// nil limit means unbounded; a limit of 0 returns no rows. An empty
	// tags slice applies no tag filter and matches every tag.
	Query(ctx context.Context, tags []uint32, cursor uint64, limit *int) ([]StoredNote, error)

	// Exists reports whether a note with the given id is present.
	Exists(ctx context.Context, id noteproto.ID) (bool, error)

	// Stats reports the total row count and the number of distinct tags.
	Stats(ctx context.Context) (Stats, error)

	// RetentionSweep deletes every row with created_at older than
	// retentionDays and returns the number of rows removed. A
	// retentionDays of 0 purges everything currently in the table.
	RetentionSweep(ctx context.Context, retentionDays int) (int64, error)

	// Close releases the underlying connection pool.
	Close() error
}

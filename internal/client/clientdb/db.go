// Package clientdb is the relay client's local persistence: which
// notes have already been fetched, the notes themselves, and the
// per-tag cursor an incremental fetch resumes from.
package clientdb

import (
	"context"
	"time"

	"github.com/relaynote/relaynode/internal/noteproto"
)

// StoredNote is a note the client has fetched and retained locally.
type StoredNote struct {
	ID        noteproto.ID
	Tag       uint32
	Header    []byte
	Details   []byte
	Cursor    uint64
	StoredAt  time.Time
}

// FetchedNote is a dedup-set row: a note id the client has already
// seen for tag, independent of whether its bytes are still retained in
// stored_notes.
type FetchedNote struct {
	ID        noteproto.ID
	Tag       uint32
	FetchedAt time.Time
}

// Stats mirrors the relay's Stats shape for the client's local copy.
type Stats struct {
	TotalNotes   uint64
	DistinctTags uint64
}

// DB is the client's local storage interface, pluggable so a non-native
// frontend (e.g. a browser build) can swap in a different backend
// without touching Core.
type DB interface {
	// NoteFetched reports whether id has already been recorded as
	// fetched, so a repeated FetchNotes call never reprocesses it.
	NoteFetched(ctx context.Context, id noteproto.ID) (bool, error)

	// RecordFetchedNote marks id as fetched for tag.
	RecordFetchedNote(ctx context.Context, id noteproto.ID, tag uint32) error

	// StoreNote retains a fetched note's bytes locally.
	StoreNote(ctx context.Context, header, details []byte, cursor uint64) error

	// StoredNote returns a previously stored note by id.
	StoredNote(ctx context.Context, id noteproto.ID) (StoredNote, bool, error)

	// StoredNotesForTag returns every stored note for tag.
	StoredNotesForTag(ctx context.Context, tag uint32) ([]StoredNote, error)

	// FetchedNotesForTag returns every dedup-set row recorded for tag,
	// regardless of whether the note's bytes are still in StoredNote.
	FetchedNotesForTag(ctx context.Context, tag uint32) ([]FetchedNote, error)

	// Cursor returns the last cursor value successfully processed for
	// tag, or 0 if the tag has never been fetched.
	Cursor(ctx context.Context, tag uint32) (uint64, error)

	// SetCursor advances the stored cursor for tag.
	SetCursor(ctx context.Context, tag uint32, cursor uint64) error

	// Stats reports the local aggregate.
	Stats(ctx context.Context) (Stats, error)

	// CleanupOldData deletes locally stored notes and fetched-note
	// records older than retentionDays and returns the total number of
	// rows removed from both.
	CleanupOldData(ctx context.Context, retentionDays int) (int64, error)

	// Close releases the underlying connection.
	Close() error
}

package clientdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaynote/relaynode/internal/noteproto"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := Open(context.Background(), "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndCheckFetched(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1

	ok, err := db.NoteFetched(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.RecordFetchedNote(ctx, id, 7))

	ok, err = db.NoteFetched(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreAndRetrieveNote(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 2
	header := noteproto.EncodeHeader(id, 9, nil)
	require.NoError(t, db.StoreNote(ctx, header, []byte("body"), 100))

	got, ok, err := db.StoredNote(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("body"), got.Details)
	require.Equal(t, uint64(100), got.Cursor)
}

func TestCursorDefaultsToZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := db.Cursor(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, uint64(0), c)

	require.NoError(t, db.SetCursor(ctx, 42, 500))
	c, err = db.Cursor(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, uint64(500), c)

	require.NoError(t, db.SetCursor(ctx, 42, 900))
	c, err = db.Cursor(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, uint64(900), c)
}

func TestStatsAndCleanup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for b := byte(1); b <= 3; b++ {
		var id noteproto.ID
		id[0] = b
		require.NoError(t, db.StoreNote(ctx, noteproto.EncodeHeader(id, uint32(b), nil), []byte("x"), uint64(b)))
	}

	st, err := db.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), st.TotalNotes)
	require.Equal(t, uint64(3), st.DistinctTags)

	removed, err := db.CleanupOldData(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), removed)

	st, err = db.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), st.TotalNotes)
}

func TestFetchedNotesForTag(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var a, b noteproto.ID
	a[0], b[0] = 1, 2
	require.NoError(t, db.RecordFetchedNote(ctx, a, 5))
	require.NoError(t, db.RecordFetchedNote(ctx, b, 5))
	require.NoError(t, db.RecordFetchedNote(ctx, noteproto.ID{9}, 6))

	got, err := db.FetchedNotesForTag(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint32(5), got[0].Tag)
}

func TestCleanupRemovesFetchedNotesToo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	require.NoError(t, db.RecordFetchedNote(ctx, id, 5))

	removed, err := db.CleanupOldData(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	got, err := db.FetchedNotesForTag(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

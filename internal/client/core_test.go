package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/relaynote/relaynode/internal/client/clientdb"
	"github.com/relaynote/relaynode/internal/noteproto"
)

// fakeTransport is an in-memory stand-in for grpctransport.Transport,
// letting Core's dedup/cursor logic be tested without a running relay.
type fakeTransport struct {
	mu    sync.Mutex
	notes []Note
	sent  []Note
	feed  chan Note
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{feed: make(chan Note, 16)}
}

func (f *fakeTransport) SendNote(ctx context.Context, header, details []byte) (noteproto.ID, error) {
	h, err := noteproto.DecodeHeader(header)
	if err != nil {
		return noteproto.ID{}, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, Note{Header: header, Details: details})
	f.mu.Unlock()
	return h.ID, nil
}

func (f *fakeTransport) FetchNotes(ctx context.Context, tags []uint32, cursor uint64) ([]Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Note
	for _, n := range f.notes {
		if n.Cursor > cursor {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeTransport) StreamNotes(ctx context.Context, tag uint32, cursor uint64) (<-chan Note, error) {
	return f.feed, nil
}

func (f *fakeTransport) push(n Note) {
	f.mu.Lock()
	f.notes = append(f.notes, n)
	f.mu.Unlock()
}

func newTestDB(t *testing.T) clientdb.DB {
	t.Helper()
	db, err := clientdb.Open(context.Background(), "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func noteWith(b byte, tag uint32, cursor uint64, body string) Note {
	var id noteproto.ID
	id[0] = b
	return Note{Header: noteproto.EncodeHeader(id, tag, nil), Details: []byte(body), Cursor: cursor}
}

func TestFetchNotesSkipsAlreadySeen(t *testing.T) {
	tr := newFakeTransport()
	core := New(tr, newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	tr.push(noteWith(1, 7, 100, "a"))
	tr.push(noteWith(2, 7, 200, "b"))

	got, err := core.FetchNotes(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// A second call with nothing new upstream returns nothing: the
	// cursor already advanced past both notes.
	got, err = core.FetchNotes(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFetchNotesAdvancesCursorAcrossCalls(t *testing.T) {
	tr := newFakeTransport()
	core := New(tr, newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	tr.push(noteWith(1, 7, 100, "a"))
	_, err := core.FetchNotes(ctx, 7)
	require.NoError(t, err)

	tr.push(noteWith(2, 7, 200, "b"))
	got, err := core.FetchNotes(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, byte(2), func() byte {
		h, _ := noteproto.DecodeHeader(got[0].Header)
		return h.ID[0]
	}())
}

func TestStreamNotesForwardsUnseenNotes(t *testing.T) {
	tr := newFakeTransport()
	core := New(tr, newTestDB(t), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := core.StreamNotes(ctx, 3)
	require.NoError(t, err)

	tr.feed <- noteWith(5, 3, 50, "live")

	select {
	case n := <-out:
		h, err := noteproto.DecodeHeader(n.Header)
		require.NoError(t, err)
		require.Equal(t, byte(5), h.ID[0])
	case <-time.After(2 * time.Second):
		t.Fatal("expected a note forwarded from the stream")
	}
}

func TestSendNoteDelegatesToTransport(t *testing.T) {
	tr := newFakeTransport()
	core := New(tr, newTestDB(t), zerolog.Nop())

	var id noteproto.ID
	id[0] = 9
	header := noteproto.EncodeHeader(id, 1, nil)

	got, err := core.SendNote(context.Background(), header, []byte("hi"))
	require.NoError(t, err)
	require.Equal(t, id, got)
}

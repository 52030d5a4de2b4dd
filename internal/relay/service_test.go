package relay

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/noteproto"
	"github.com/relaynote/relaynode/internal/store"
	"github.com/relaynote/relaynode/internal/streamer"
)

func newTestService(t *testing.T, cfg Config) (*Service, *store.SQLiteStore) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	s, err := store.Open(context.Background(), "file::memory:?cache=shared", cfg.MaxNoteSize, m, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	str := streamer.New(s, m, zerolog.Nop(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go str.Run(ctx)

	return New(s, str, m, cfg, zerolog.Nop()), s
}

func TestSendNoteThenFetchNotes(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10})
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	header := noteproto.EncodeHeader(id, 42, nil)

	gotID, err := svc.SendNote(ctx, header, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, id, gotID)

	notes, err := svc.FetchNotes(ctx, []uint32{42}, 0, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, []byte("hello"), notes[0].Details)
}

func TestSendNoteDuplicateIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10})
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	header := noteproto.EncodeHeader(id, 42, nil)

	_, err := svc.SendNote(ctx, header, []byte("hello"))
	require.NoError(t, err)

	gotID, err := svc.SendNote(ctx, header, []byte("hello, again"))
	require.NoError(t, err)
	require.Equal(t, id, gotID)
}

func TestSendNoteTooLargeRejected(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10, MaxNoteSize: 4})
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	header := noteproto.EncodeHeader(id, 42, nil)

	_, err := svc.SendNote(ctx, header, []byte("this is too long"))
	require.Error(t, err)
	require.ErrorIs(t, err, store.ErrTooLarge)
}

func TestFetchNotesEmptyTagsReturnsNothing(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10})
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	header := noteproto.EncodeHeader(id, 42, nil)
	_, err := svc.SendNote(ctx, header, []byte("hello"))
	require.NoError(t, err)

	notes, err := svc.FetchNotes(ctx, nil, 0, nil)
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10})
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	header := noteproto.EncodeHeader(id, 42, nil)
	_, err := svc.SendNote(ctx, header, []byte("hello"))
	require.NoError(t, err)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.TotalNotes)
}

func TestSubscribeReceivesSentNotes(t *testing.T) {
	svc, _ := newTestService(t, Config{MaxConnections: 10})
	ctx := context.Background()

	sub, err := svc.Subscribe(7, 0)
	require.NoError(t, err)
	defer svc.Unsubscribe(sub)

	var id noteproto.ID
	id[0] = 9
	header := noteproto.EncodeHeader(id, 7, nil)
	_, err = svc.SendNote(ctx, header, []byte("body"))
	require.NoError(t, err)

	select {
	case n := <-sub.Notes():
		require.Equal(t, byte(9), n.ID[0])
	case <-time.After(2 * time.Second):
		t.Fatal("expected subscriber to receive the sent note")
	}
}

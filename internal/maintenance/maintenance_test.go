package maintenance

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
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(context.Background(), "file::memory:?cache=shared", 0, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Retention-boundary behavior (old rows purged, recent rows kept) is
// exercised directly against the Store in store_test.go; these tests
// cover the loop's own contract: it calls RetentionSweep with the
// configured retentionDays and stops when its context is cancelled.
func TestStepNoRetentionPurgesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	require.NoError(t, s.Insert(ctx, noteproto.EncodeHeader(id, 1, nil), []byte("fresh")))

	m := New(s, 0, time.Hour, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	require.NoError(t, m.step(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), st.TotalNotes)
}

func TestStepRetentionKeepsRecentRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var id noteproto.ID
	id[0] = 1
	require.NoError(t, s.Insert(ctx, noteproto.EncodeHeader(id, 1, nil), []byte("fresh")))

	m := New(s, 7, time.Hour, metrics.New(prometheus.NewRegistry()), zerolog.Nop())
	require.NoError(t, m.step(ctx))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.TotalNotes)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := newTestStore(t)
	m := New(s, 7, 20*time.Millisecond, metrics.New(prometheus.NewRegistry()), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

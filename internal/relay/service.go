// Package relay implements the RelayService RPCs: SendNote, FetchNotes,
// StreamNotes and Stats. Service carries the business logic against the
// Store/Streamer interfaces, independent of the gRPC transport; see
// grpcserver.go for the transport adapter that wraps it.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/noteproto"
	"github.com/relaynote/relaynode/internal/store"
	"github.com/relaynote/relaynode/internal/streamer"
)

// Config bounds what the service will accept and how long a single
// RPC may run.
type Config struct {
	MaxNoteSize    int
	MaxConnections int
	RequestTimeout time.Duration
}

// Service is the gRPC-transport-agnostic implementation of RelayService.
type Service struct {
	store    store.Store
	streamer *streamer.Streamer
	metrics  *metrics.Metrics
	limiter  *Limiter
	cfg      Config
	log      zerolog.Logger
}

// New builds a Service. str may be nil for deployments that only
// exercise SendNote/FetchNotes/Stats without the streaming RPC.
func New(s store.Store, str *streamer.Streamer, m *metrics.Metrics, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		store:    s,
		streamer: str,
		metrics:  m,
		limiter:  NewLimiter(cfg.MaxConnections),
		cfg:      cfg,
		log:      log.With().Str("component", "relay").Logger(),
	}
}

// SendNote stores a note and returns its id. A duplicate id is treated
// as success: the caller already achieved its goal, so returning an
// error for a retried send would be surprising.
func (s *Service) SendNote(ctx context.Context, header, details []byte) (noteproto.ID, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		return noteproto.ID{}, err
	}
	defer s.limiter.Release()

	timer := s.metrics.NewTimer("send_note")

	h, err := noteproto.DecodeHeader(header)
	if err != nil {
		timer.Finish("error")
		return noteproto.ID{}, err
	}

	err = s.store.Insert(ctx, header, details)
	switch {
	case err == nil:
		s.metrics.NoteSizeBytes.Observe(float64(len(details)))
		timer.Finish("ok")
		return h.ID, nil
	case errors.Is(err, store.ErrAlreadyExists):
		timer.Finish("duplicate")
		return h.ID, nil
	default:
		timer.Finish("error")
		return noteproto.ID{}, err
	}
}

// FetchNotes returns notes matching tags after cursor. An empty tags
// filter matches nothing (not every tag): the relay never infers an
// "all tags" query from an absent filter.
func (s *Service) FetchNotes(ctx context.Context, tags []uint32, cursor uint64, limit *int) ([]store.StoredNote, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	timer := s.metrics.NewTimer("fetch_notes")
	notes, err := s.store.Query(ctx, tags, cursor, limit)
	if err != nil {
		timer.Finish("error")
		return nil, err
	}
	s.metrics.BatchSize.Observe(float64(len(notes)))
	timer.Finish("ok")
	return notes, nil
}

// Stats reports the node-wide aggregate.
func (s *Service) Stats(ctx context.Context) (store.Stats, error) {
	timer := s.metrics.NewTimer("stats")
	st, err := s.store.Stats(ctx)
	if err != nil {
		timer.Finish("error")
		return store.Stats{}, err
	}
	timer.Finish("ok")
	return st, nil
}

// Subscribe opens a live feed for tag starting after cursor. Callers
// must Unsubscribe when done, typically via defer in the streaming RPC
// handler.
func (s *Service) Subscribe(tag uint32, cursor uint64) (*streamer.Subscription, error) {
	if s.streamer == nil {
		return nil, errors.New("relay: streaming not enabled on this service")
	}
	return s.streamer.Subscribe(tag, cursor), nil
}

// Unsubscribe tears down a feed opened with Subscribe.
func (s *Service) Unsubscribe(sub *streamer.Subscription) {
	if s.streamer != nil {
		s.streamer.Unsubscribe(sub)
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

// Package streamer turns the Store's append-only table into a
// tag-indexed pub/sub feed for StreamNotes. A single goroutine owns
// every subscription and polls the Store on a fixed interval; callers
// never touch Store or subscription state directly, only the channel
// each Subscription exposes.
package streamer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/store"
)

// PollInterval is how often the streamer re-queries the Store for each
// subscribed tag.
const PollInterval = 500 * time.Millisecond

// QueueCapacity bounds how many undelivered notes a subscription will
// hold. When a poll finds the queue full, the whole subscription is
// dropped rather than blocking the poll loop, so a slow consumer never
// stalls every other subscription.
const QueueCapacity = 32

// Subscription is a live StreamNotes feed for one tag, starting after
// a given cursor. Notes arrive on the channel returned by Notes in
// cursor order; the channel is closed when the subscription is
// removed.
type Subscription struct {
	id     string
	tag    uint32
	cursor uint64
	queue  chan store.StoredNote
}

// Notes returns the channel notes for this subscription arrive on.
func (s *Subscription) Notes() <-chan store.StoredNote { return s.queue }

// Tag reports the subscription's tag filter.
func (s *Subscription) Tag() uint32 { return s.tag }

type addSubCmd struct{ sub *Subscription }
type removeSubCmd struct{ id string }

// Streamer is the pub/sub loop. Construct with New and run it with Run
// in its own goroutine for the lifetime of the process.
type Streamer struct {
	store       store.Store
	metrics     *metrics.Metrics
	log         zerolog.Logger
	interval    time.Duration
	control     chan any
	subs        map[string]*Subscription
	groupCursor map[uint32]uint64
}

// New builds a Streamer. interval defaults to PollInterval when zero.
func New(s store.Store, m *metrics.Metrics, log zerolog.Logger, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Streamer{
		store:       s,
		metrics:     m,
		log:         log.With().Str("component", "streamer").Logger(),
		interval:    interval,
		control:     make(chan any, 128),
		subs:        make(map[string]*Subscription),
		groupCursor: make(map[uint32]uint64),
	}
}

// Subscribe registers a new feed for tag starting strictly after
// cursor and returns it. Safe to call concurrently with Run.
func (s *Streamer) Subscribe(tag uint32, cursor uint64) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		tag:    tag,
		cursor: cursor,
		queue:  make(chan store.StoredNote, QueueCapacity),
	}
	s.control <- addSubCmd{sub: sub}
	return sub
}

// Unsubscribe tears down a feed created by Subscribe. Safe to call
// concurrently with Run; it is a no-op if the subscription is already
// gone.
func (s *Streamer) Unsubscribe(sub *Subscription) {
	s.control <- removeSubCmd{id: sub.id}
}

// Run polls the Store on the configured interval and fans matching
// notes out to every subscription, until ctx is cancelled. All
// subscription-map mutation happens on this goroutine via control, so
// the map itself needs no lock.
func (s *Streamer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for id, sub := range s.subs {
				close(sub.queue)
				delete(s.subs, id)
			}
			return
		case cmd := <-s.control:
			s.handle(cmd)
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Streamer) handle(cmd any) {
	switch c := cmd.(type) {
	case addSubCmd:
		// group_cursor is global to the tag: a subscriber joining after
		// the tag has already advanced must not be backfilled history
		// distributed before it joined, so its effective cursor can
		// only move forward to the tag's current group_cursor, never
		// back.
		if gc := s.groupCursor[c.sub.tag]; gc > c.sub.cursor {
			c.sub.cursor = gc
		}
		s.subs[c.sub.id] = c.sub
		s.metrics.ActiveSubscriptions.Inc()
	case removeSubCmd:
		if sub, ok := s.subs[c.id]; ok {
			close(sub.queue)
			delete(s.subs, c.id)
			s.metrics.ActiveSubscriptions.Dec()
		}
	}
}

// dropSubscription removes sub for falling behind: its delivery queue
// is full, the intentional failure mode for a slow consumer (spec.md
// §4.3). The subscription is torn down rather than silently skipping
// the note that overflowed it.
func (s *Streamer) dropSubscription(sub *Subscription) {
	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	close(sub.queue)
	delete(s.subs, sub.id)
	s.metrics.ActiveSubscriptions.Dec()
	s.metrics.DroppedNotesTotal.WithLabelValues("queue_full").Inc()
	s.log.Warn().Str("subscription", sub.id).Msg("removing subscription: delivery queue full")
}

func (s *Streamer) poll(ctx context.Context) {
	// Group subscriptions by tag so a tag with many subscribers only
	// costs one Query call.
	byTag := make(map[uint32][]*Subscription)
	for _, sub := range s.subs {
		byTag[sub.tag] = append(byTag[sub.tag], sub)
	}

	for tag, subs := range byTag {
		// One group_cursor per tag, advanced once per tick regardless
		// of how many subscribers are on it, not the minimum across
		// subscriber cursors: polling from a lagging subscriber's
		// cursor would re-fetch history already delivered to everyone
		// else on the tag.
		cursor := s.groupCursor[tag]

		timer := s.metrics.NewTimer("streamer_poll")
		notes, err := s.store.Query(ctx, []uint32{tag}, cursor, nil)
		if err != nil {
			timer.Finish("error")
			s.log.Error().Err(err).Uint32("tag", tag).Msg("streamer poll query failed")
			continue
		}
		timer.Finish("ok")
		if len(notes) == 0 {
			continue
		}
		s.metrics.BatchSize.Observe(float64(len(notes)))
		s.groupCursor[tag] = notes[len(notes)-1].Cursor()

	nextSub:
		for _, sub := range subs {
			for _, n := range notes {
				if n.Cursor() <= sub.cursor {
					continue
				}
				select {
				case sub.queue <- n:
					sub.cursor = n.Cursor()
				default:
					s.dropSubscription(sub)
					continue nextSub
				}
			}
		}
	}
}

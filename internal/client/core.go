// Package client is the relay client's transport-agnostic core, the Go
// counterpart of the original TransportLayerClient: it talks to a
// Transport, dedupes against a local ClientDB, and hands callers only
// notes they have not already seen.
package client

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/relaynote/relaynode/internal/client/clientdb"
	"github.com/relaynote/relaynode/internal/noteproto"
)

// Core is the client's transport-agnostic API.
type Core struct {
	transport Transport
	db        clientdb.DB
	log       zerolog.Logger
}

// New builds a Core over transport and db.
func New(transport Transport, db clientdb.DB, log zerolog.Logger) *Core {
	return &Core{transport: transport, db: db, log: log.With().Str("component", "client").Logger()}
}

// SendNote publishes a note and returns its id.
func (c *Core) SendNote(ctx context.Context, header, details []byte) (noteproto.ID, error) {
	return c.transport.SendNote(ctx, header, details)
}

// FetchNotes resumes an incremental fetch for tag from the last cursor
// recorded locally, persists newly seen notes, and returns only the
// ones this client has not already processed.
func (c *Core) FetchNotes(ctx context.Context, tag uint32) ([]Note, error) {
	cursor, err := c.db.Cursor(ctx, tag)
	if err != nil {
		return nil, err
	}

	notes, err := c.transport.FetchNotes(ctx, []uint32{tag}, cursor)
	if err != nil {
		return nil, err
	}

	fresh := make([]Note, 0, len(notes))
	for _, n := range notes {
		accepted, err := c.acceptNote(ctx, tag, n)
		if err != nil {
			return nil, err
		}
		if accepted {
			fresh = append(fresh, n)
		}
		if n.Cursor > cursor {
			cursor = n.Cursor
		}
	}

	if err := c.db.SetCursor(ctx, tag, cursor); err != nil {
		return nil, err
	}
	return fresh, nil
}

// StreamNotes opens a live feed for tag and forwards every note this
// client has not already processed, persisting each one and advancing
// the stored cursor as it goes. The returned channel closes when ctx
// is cancelled or the transport's stream ends.
func (c *Core) StreamNotes(ctx context.Context, tag uint32) (<-chan Note, error) {
	cursor, err := c.db.Cursor(ctx, tag)
	if err != nil {
		return nil, err
	}

	upstream, err := c.transport.StreamNotes(ctx, tag, cursor)
	if err != nil {
		return nil, err
	}

	out := make(chan Note)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-upstream:
				if !ok {
					return
				}
				accepted, err := c.acceptNote(ctx, tag, n)
				if err != nil {
					c.log.Error().Err(err).Msg("failed to persist streamed note")
					continue
				}
				if n.Cursor > cursor {
					cursor = n.Cursor
					if err := c.db.SetCursor(ctx, tag, cursor); err != nil {
						c.log.Error().Err(err).Msg("failed to advance cursor")
					}
				}
				if accepted {
					select {
					case out <- n:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out, nil
}

// acceptNote dedupes n against the fetched-notes table, recording and
// storing it the first time it is seen. Returns false for a note
// already processed in a prior call.
func (c *Core) acceptNote(ctx context.Context, tag uint32, n Note) (bool, error) {
	h, err := noteproto.DecodeHeader(n.Header)
	if err != nil {
		return false, err
	}

	already, err := c.db.NoteFetched(ctx, h.ID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	if err := c.db.RecordFetchedNote(ctx, h.ID, tag); err != nil {
		return false, err
	}
	if err := c.db.StoreNote(ctx, n.Header, n.Details, n.Cursor); err != nil {
		return false, err
	}
	return true, nil
}

// Stats reports the client's local aggregate.
func (c *Core) Stats(ctx context.Context) (clientdb.Stats, error) {
	return c.db.Stats(ctx)
}

// Cleanup deletes locally stored notes and fetched-note records older
// than retentionDays and returns the total number of rows removed.
func (c *Core) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	return c.db.CleanupOldData(ctx, retentionDays)
}

package client

import (
	"context"

	"github.com/relaynote/relaynode/internal/noteproto"
)

// Note is a note as received over the wire: header/details plus the
// cursor the relay assigned it.
type Note struct {
	Header  []byte
	Details []byte
	Cursor  uint64
}

// Transport is everything Core needs from a connection to a relay
// node. grpctransport.Transport is the production implementation;
// tests substitute an in-memory fake.
type Transport interface {
	SendNote(ctx context.Context, header, details []byte) (noteproto.ID, error)
	FetchNotes(ctx context.Context, tags []uint32, cursor uint64) ([]Note, error)
	StreamNotes(ctx context.Context, tag uint32, cursor uint64) (<-chan Note, error)
}

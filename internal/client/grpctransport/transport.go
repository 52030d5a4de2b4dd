// Package grpctransport is the client.Transport implementation backed
// by a gRPC connection to a relay node, the Go counterpart of the
// original GrpcClient.
package grpctransport

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	relayv1 "github.com/relaynote/relaynode/gen/go/relay/v1"
	"github.com/relaynote/relaynode/internal/client"
	"github.com/relaynote/relaynode/internal/noteproto"
)

// Transport is a client.Transport over a single relay node connection.
type Transport struct {
	conn    *grpc.ClientConn
	client  relayv1.RelayServiceClient
	timeout time.Duration
}

// Dial connects to endpoint with the given per-call timeout.
func Dial(endpoint string, timeout time.Duration) (*Transport, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Transport{conn: conn, client: relayv1.NewRelayServiceClient(conn), timeout: timeout}, nil
}

// Close releases the underlying connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

func (t *Transport) SendNote(ctx context.Context, header, details []byte) (noteproto.ID, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	resp, err := t.client.SendNote(ctx, &relayv1.SendNoteRequest{
		Note: &relayv1.Note{Header: header, Details: details},
	})
	if err != nil {
		return noteproto.ID{}, err
	}
	var id noteproto.ID
	copy(id[:], resp.GetId())
	return id, nil
}

func (t *Transport) FetchNotes(ctx context.Context, tags []uint32, cursor uint64) ([]client.Note, error) {
	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	resp, err := t.client.FetchNotes(ctx, &relayv1.FetchNotesRequest{Tags: tags, Cursor: cursor})
	if err != nil {
		return nil, err
	}
	return fromProtoNotes(resp.GetNotes()), nil
}

func (t *Transport) StreamNotes(ctx context.Context, tag uint32, cursor uint64) (<-chan client.Note, error) {
	stream, err := t.client.StreamNotes(ctx, &relayv1.StreamNotesRequest{Tag: tag, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	out := make(chan client.Note)
	go func() {
		defer close(out)
		for {
			resp, err := stream.Recv()
			if err != nil {
				return
			}
			for _, n := range fromProtoNotes(resp.GetNotes()) {
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func fromProtoNotes(notes []*relayv1.Note) []client.Note {
	out := make([]client.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, client.Note{Header: n.GetHeader(), Details: n.GetDetails(), Cursor: n.GetCursor()})
	}
	return out
}

package relay

import (
	"context"

	relayv1 "github.com/relaynote/relaynode/gen/go/relay/v1"
	"github.com/relaynote/relaynode/internal/store"
)

// GRPCServer adapts Service to the generated relay.v1.RelayService
// interface. It holds no state of its own; every call is delegated to
// Service and every error translated with statusFromError.
type GRPCServer struct {
	relayv1.UnimplementedRelayServiceServer
	svc *Service
}

// NewGRPCServer wraps svc for registration with a grpc.Server.
func NewGRPCServer(svc *Service) *GRPCServer {
	return &GRPCServer{svc: svc}
}

func (g *GRPCServer) SendNote(ctx context.Context, req *relayv1.SendNoteRequest) (*relayv1.SendNoteResponse, error) {
	note := req.GetNote()
	id, err := g.svc.SendNote(ctx, note.GetHeader(), note.GetDetails())
	if err != nil {
		return nil, statusFromError("send_note", err)
	}
	return &relayv1.SendNoteResponse{Id: id[:]}, nil
}

func (g *GRPCServer) FetchNotes(ctx context.Context, req *relayv1.FetchNotesRequest) (*relayv1.FetchNotesResponse, error) {
	notes, err := g.svc.FetchNotes(ctx, req.GetTags(), req.GetCursor(), nil)
	if err != nil {
		return nil, statusFromError("fetch_notes", err)
	}
	return &relayv1.FetchNotesResponse{
		Notes:  toProtoNotes(notes),
		Cursor: lastCursor(notes),
	}, nil
}

func (g *GRPCServer) Stats(ctx context.Context, req *relayv1.StatsRequest) (*relayv1.StatsResponse, error) {
	st, err := g.svc.Stats(ctx)
	if err != nil {
		return nil, statusFromError("stats", err)
	}
	return &relayv1.StatsResponse{
		TotalNotes: st.TotalNotes,
		TotalTags:  st.DistinctTags,
	}, nil
}

func (g *GRPCServer) StreamNotes(req *relayv1.StreamNotesRequest, stream relayv1.RelayService_StreamNotesServer) error {
	sub, err := g.svc.Subscribe(req.GetTag(), req.GetCursor())
	if err != nil {
		return statusFromError("stream_notes", err)
	}
	defer g.svc.Unsubscribe(sub)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case note, ok := <-sub.Notes():
			if !ok {
				return nil
			}
			resp := &relayv1.StreamNotesResponse{
				Notes:  toProtoNotes([]store.StoredNote{note}),
				Cursor: note.Cursor(),
			}
			if err := stream.Send(resp); err != nil {
				return err
			}
		}
	}
}

func toProtoNotes(notes []store.StoredNote) []*relayv1.Note {
	out := make([]*relayv1.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, &relayv1.Note{
			Header:  n.Header,
			Details: n.Details,
			Cursor:  n.Cursor(),
		})
	}
	return out
}

// lastCursor is the cursor the response reports: 0 when no notes
// matched, never an echo of the request cursor (spec.md §8 invariant 3).
func lastCursor(notes []store.StoredNote) uint64 {
	if len(notes) == 0 {
		return 0
	}
	return notes[len(notes)-1].Cursor()
}

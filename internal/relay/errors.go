package relay

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/relaynote/relaynode/internal/noteproto"
	"github.com/relaynote/relaynode/internal/store"
)

// statusFromError maps a Service error to the gRPC status code the
// generated transport should return. Context deadline/cancellation maps
// to Unavailable, a *store.Error by its Kind, a too-short header to
// InvalidArgument, and everything else falls back to Internal.
func statusFromError(op string, err error) error {
	if err == nil {
		return nil
	}

	// The limiter surfaces ctx.Err() directly when max_connections is
	// saturated and the caller's deadline or cancellation wins the
	// race; this is overload, not an internal fault.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return status.Error(codes.Unavailable, err.Error())
	}

	var se *store.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case store.KindTooLarge:
			return status.Error(codes.ResourceExhausted, se.Error())
		case store.KindConstraint:
			return status.Error(codes.AlreadyExists, se.Error())
		case store.KindSerialization:
			return status.Error(codes.InvalidArgument, se.Error())
		case store.KindConnection, store.KindQuery:
			// The Store itself is unreachable or failing, not the
			// relay logic: callers should retry, the way they would
			// for any other overloaded/unavailable dependency.
			return status.Error(codes.Unavailable, se.Error())
		case store.KindMigration:
			return status.Error(codes.Internal, se.Error())
		default:
			return status.Error(codes.Unknown, se.Error())
		}
	}
	if errors.Is(err, noteproto.ErrHeaderTooShort) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Errorf(codes.Internal, "%s: %v", op, err)
}

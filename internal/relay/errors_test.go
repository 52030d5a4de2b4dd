package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/relaynote/relaynode/internal/noteproto"
	"github.com/relaynote/relaynode/internal/store"
)

func TestStatusFromErrorMapsStoreIOFailuresToUnavailable(t *testing.T) {
	for _, kind := range []store.Kind{store.KindConnection, store.KindQuery} {
		err := statusFromError("op", &store.Error{Kind: kind, Op: "op", Err: errors.New("boom")})
		st, ok := status.FromError(err)
		require.True(t, ok)
		require.Equal(t, codes.Unavailable, st.Code())
	}
}

func TestStatusFromErrorMapsLimiterTimeoutToUnavailable(t *testing.T) {
	for _, ctxErr := range []error{context.DeadlineExceeded, context.Canceled} {
		st, ok := status.FromError(statusFromError("send_note", ctxErr))
		require.True(t, ok)
		require.Equal(t, codes.Unavailable, st.Code())
	}
}

func TestStatusFromErrorMapsKnownKinds(t *testing.T) {
	require.Equal(t, codes.ResourceExhausted, codeOf(statusFromError("op", store.ErrTooLarge)))
	require.Equal(t, codes.AlreadyExists, codeOf(statusFromError("op", store.ErrAlreadyExists)))
	require.Equal(t, codes.InvalidArgument, codeOf(statusFromError("op", noteproto.ErrHeaderTooShort)))
}

func codeOf(err error) codes.Code {
	st, _ := status.FromError(err)
	return st.Code()
}

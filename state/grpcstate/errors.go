package grpcstate

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cryptomoji.dev/moji/state"
)

// toStatus maps store errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, state.ErrInvalidKey), errors.Is(err, state.ErrEmptyValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, state.ErrListUnsupported):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, state.ErrClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

// fromStatus restores the state sentinel errors a server reported.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, sentinel := range []error{state.ErrInvalidKey, state.ErrEmptyValue, state.ErrListUnsupported, state.ErrClosed} {
		if st.Message() == sentinel.Error() {
			return sentinel
		}
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return err
}

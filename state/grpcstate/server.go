package grpcstate

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"cryptomoji.dev/moji/cidutil"
	"cryptomoji.dev/moji/state"
)

// Server exposes a state.Store over the State gRPC service.
type Server struct {
	UnimplementedStateServer
	Store state.Store
}

func (s *Server) ready() error {
	if s == nil || s.Store == nil {
		return status.Error(codes.FailedPrecondition, "missing state store")
	}
	return nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys, err := decodeKeys(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	got, err := s.Store.Get(ctx, keys)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(cidutil.CanonicalEntries(got)), nil
}

func (s *Server) Set(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	updates, err := cidutil.DecodeEntries(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	written, err := s.Store.Set(ctx, updates)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(encodeKeys(written)), nil
}

func (s *Server) Delete(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys, err := decodeKeys(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	removed, err := s.Store.Delete(ctx, keys)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(encodeKeys(removed)), nil
}

func (s *Server) List(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	keys, err := state.List(ctx, s.Store, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(encodeKeys(keys)), nil
}

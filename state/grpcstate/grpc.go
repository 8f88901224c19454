package grpcstate

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// StateServer is the server API for the State gRPC service.
//
// Messages are protobuf well-known wrapper types so no protoc toolchain is
// needed. Key lists and entry maps travel inside BytesValue using the
// length-prefixed framing of cidutil.CanonicalEntries.
//
// Proto definition: state.proto.
type StateServer interface {
	Get(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Set(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Delete(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	List(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedStateServer can be embedded to have forward compatible implementations.
type UnimplementedStateServer struct{}

func (UnimplementedStateServer) Get(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedStateServer) Set(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Set not implemented")
}
func (UnimplementedStateServer) Delete(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedStateServer) List(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

// RegisterStateServer registers the State service on a gRPC server.
func RegisterStateServer(s grpc.ServiceRegistrar, srv StateServer) {
	s.RegisterService(&State_ServiceDesc, srv)
}

const serviceName = "cryptomoji.state.v1.State"

// StateClient is the client API for the State gRPC service.
type StateClient interface {
	Get(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Set(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Delete(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	List(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type stateClient struct{ cc grpc.ClientConnInterface }

func NewStateClient(cc grpc.ClientConnInterface) StateClient { return &stateClient{cc: cc} }

func (c *stateClient) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stateClient) Get(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return c.invoke(ctx, "Get", in, opts...)
}

func (c *stateClient) Set(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return c.invoke(ctx, "Set", in, opts...)
}

func (c *stateClient) Delete(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return c.invoke(ctx, "Delete", in, opts...)
}

func (c *stateClient) List(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return c.invoke(ctx, "List", in, opts...)
}

func bytesHandler(method string, call func(StateServer, context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StateServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StateServer), ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _State_List_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StateServer).List(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/List"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StateServer).List(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// State_ServiceDesc is the grpc.ServiceDesc for the State service.
var State_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StateServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: bytesHandler("Get", StateServer.Get)},
		{MethodName: "Set", Handler: bytesHandler("Set", StateServer.Set)},
		{MethodName: "Delete", Handler: bytesHandler("Delete", StateServer.Delete)},
		{MethodName: "List", Handler: _State_List_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "state.proto",
}

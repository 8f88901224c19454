package grpcstate

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"cryptomoji.dev/moji/cidutil"
	"cryptomoji.dev/moji/state"
)

// Client implements state.Store over a State gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client StateClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var (
	_ state.Store  = (*Client)(nil)
	_ state.Lister = (*Client)(nil)
)

type DialOptions struct {
	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

// Dial creates a client for target. The connection is established lazily on
// the first call.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewStateClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func (c *Client) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Get(ctx, wrapperspb.Bytes(encodeKeys(keys)))
	if err != nil {
		return nil, fromStatus(err)
	}
	got, err := cidutil.DecodeEntries(reply.GetValue())
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		out[k] = got[k]
	}
	return out, nil
}

func (c *Client) Set(ctx context.Context, updates map[string][]byte) ([]string, error) {
	if err := state.Validate(nil, updates); err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Set(ctx, wrapperspb.Bytes(cidutil.CanonicalEntries(updates)))
	if err != nil {
		return nil, fromStatus(err)
	}
	return decodeKeys(reply.GetValue())
}

func (c *Client) Delete(ctx context.Context, keys []string) ([]string, error) {
	if err := state.Validate(keys, nil); err != nil {
		return nil, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Delete(ctx, wrapperspb.Bytes(encodeKeys(keys)))
	if err != nil {
		return nil, fromStatus(err)
	}
	return decodeKeys(reply.GetValue())
}

func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	if !state.ValidPrefix(prefix) {
		return nil, state.ErrInvalidKey
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.List(ctx, wrapperspb.String(prefix))
	if err != nil {
		return nil, fromStatus(err)
	}
	return decodeKeys(reply.GetValue())
}

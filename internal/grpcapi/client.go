package grpcapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClientOptions configures a Client.
//
// Defaults:
// - RPCTimeout:  3s (used only if the context has no deadline)
// - DialOptions: insecure credentials
type ClientOptions struct {
	RPCTimeout  time.Duration
	DialOptions []grpc.DialOption
}

type ClientOption func(*ClientOptions)

func WithRPCTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) { o.RPCTimeout = d }
}
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *ClientOptions) { o.DialOptions = opts }
}

// Client calls the GraphQL service.
type Client struct {
	cc      *grpc.ClientConn
	timeout time.Duration
}

// Dial connects to a GraphQL service at target.
func Dial(target string, opts ...ClientOption) (*Client, error) {
	o := &ClientOptions{RPCTimeout: 3 * time.Second}
	for _, f := range opts {
		f(o)
	}
	dialOpts := o.DialOptions
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, timeout: o.RPCTimeout}, nil
}

func (c *Client) Close() error { return c.cc.Close() }

// Execute sends one request and returns the result map.
func (c *Client) Execute(ctx context.Context, query, operationName string, variables map[string]any) (map[string]any, error) {
	in, err := NewRequest(query, operationName, variables)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExecuteMethod, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

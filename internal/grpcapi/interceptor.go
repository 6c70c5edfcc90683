package grpcapi

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/reqid"
)

// UnaryInterceptor assigns a request id to each call, taken from the
// incoming "x-request-id" metadata when it holds a UUID, and publishes
// GRPCStart and GRPCFinish on bus around the handler.
func UnaryInterceptor(bus *eventbus.Bus) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var incoming string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(strings.ToLower(reqid.Header)); len(v) > 0 {
				incoming = v[0]
			}
		}
		ctx, rid := reqid.WithID(ctx, incoming)
		_ = grpc.SetHeader(ctx, metadata.Pairs(strings.ToLower(reqid.Header), rid))

		var addr string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			addr = p.Addr.String()
		}

		start := time.Now()
		eventbus.Publish(ctx, bus, events.GRPCStart{Method: info.FullMethod, Peer: addr})
		resp, err := handler(ctx, req)
		eventbus.Publish(ctx, bus, events.GRPCFinish{
			Method:   info.FullMethod,
			Peer:     addr,
			Code:     status.Code(err),
			Err:      err,
			Duration: time.Since(start),
		})
		return resp, err
	}
}

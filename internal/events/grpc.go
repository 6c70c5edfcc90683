package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// GRPCStart is emitted when a unary RPC is received.
type GRPCStart struct {
	Method string
	Peer   string
}

// GRPCFinish is emitted after a unary RPC handler returns.
type GRPCFinish struct {
	Method   string
	Peer     string
	Code     codes.Code
	Err      error
	Duration time.Duration
}

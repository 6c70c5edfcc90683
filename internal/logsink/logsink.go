// Package logsink writes structured logs for the events published on an
// eventbus.Bus.
package logsink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/reqid"
)

// Config selects the level and encoding of a logger built by New.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// New builds a logger writing to w.
func New(w io.Writer, cfg Config) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}

// Attach subscribes logger to the request, field and transport events on
// bus. The returned function removes every subscription.
//
// Request starts log at DEBUG, finished requests and transport calls at
// INFO, and failed resolvers at WARN.
func Attach(bus *eventbus.Bus, logger *slog.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.RequestStart) {
			logger.DebugContext(ctx, "graphql request",
				withRequestID(ctx, slog.String("operation", e.OperationName))...)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.RequestFinish) {
			attrs := withRequestID(ctx,
				slog.String("operation", e.OperationName),
				slog.String("type", e.OperationType),
				slog.Bool("executed", e.Executed),
				slog.Int("errors", len(e.Errors)),
				slog.Duration("duration", e.Duration),
			)
			logger.InfoContext(ctx, "graphql finished", attrs...)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.FieldResolved) {
			if e.Err == nil {
				return
			}
			logger.WarnContext(ctx, "resolver failed", withRequestID(ctx,
				slog.String("field", e.ParentType+"."+e.Field),
				slog.String("path", e.Path.String()),
				slog.String("error", e.Err.Error()),
			)...)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPFinish) {
			attrs := withRequestID(ctx,
				slog.String("method", e.Request.Method),
				slog.String("path", e.Request.URL.Path),
				slog.Int("status", e.Status),
				slog.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				attrs = append(attrs, slog.String("error", e.Err.Error()))
			}
			logger.InfoContext(ctx, "http request", attrs...)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.GRPCFinish) {
			attrs := withRequestID(ctx,
				slog.String("method", e.Method),
				slog.String("peer", e.Peer),
				slog.String("code", e.Code.String()),
				slog.Duration("duration", e.Duration),
			)
			if e.Err != nil {
				attrs = append(attrs, slog.String("error", e.Err.Error()))
			}
			logger.InfoContext(ctx, "grpc request", attrs...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func withRequestID(ctx context.Context, attrs ...slog.Attr) []any {
	out := make([]any, 0, len(attrs)+1)
	if id, ok := reqid.FromContext(ctx); ok {
		out = append(out, slog.String("request_id", id))
	}
	for _, a := range attrs {
		out = append(out, a)
	}
	return out
}

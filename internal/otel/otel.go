// Package otel turns the events published on an eventbus.Bus into
// OpenTelemetry spans.
package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/reqid"
)

// Setup exports spans over OTLP/gRPC to endpoint and subscribes a tracer to
// bus. If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (shutdown func(context.Context) error, err error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	detach := Subscribe(bus, tp.Tracer("gqlexec"))
	return func(ctx context.Context) error {
		detach()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscribe records spans with tracer for the events on bus. Spans of one
// request are linked through the request id in the event context. The
// returned function removes the subscriptions.
func Subscribe(bus *eventbus.Bus, tracer trace.Tracer) (detach func()) {
	s := &subscriber{tracer: tracer}
	return s.register(bus)
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> trace.Span
	grpcSpans sync.Map // rid -> trace.Span
}

// parent returns ctx carrying the innermost open span of the request.
func (s *subscriber) parent(ctx context.Context, rid string, maps ...*sync.Map) context.Context {
	for _, m := range maps {
		if v, ok := m.Load(rid); ok {
			return trace.ContextWithSpan(ctx, v.(trace.Span))
		}
	}
	return ctx
}

func end(m *sync.Map, rid string, fn func(trace.Span)) {
	v, ok := m.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	fn(span)
	span.End()
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				semconv.HTTPMethodKey.String(e.Request.Method),
				attribute.String("http.target", e.Request.URL.Path),
			)
			s.httpSpans.Store(rid, span)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.HTTPFinish) {
			rid, _ := reqid.FromContext(ctx)
			end(&s.httpSpans, rid, func(span trace.Span) {
				span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
			})
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.GRPCStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "grpc.server", trace.WithSpanKind(trace.SpanKindServer))
			span.SetAttributes(
				semconv.RPCSystemKey.String("grpc"),
				semconv.RPCMethodKey.String(e.Method),
				attribute.String("net.peer.name", e.Peer),
			)
			s.grpcSpans.Store(rid, span)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.GRPCFinish) {
			rid, _ := reqid.FromContext(ctx)
			end(&s.grpcSpans, rid, func(span trace.Span) {
				span.SetAttributes(attribute.String("grpc.code", e.Code.String()))
				if e.Err != nil {
					span.RecordError(e.Err)
					span.SetStatus(codes.Error, e.Err.Error())
				}
			})
		}),

		eventbus.Subscribe(bus, func(ctx context.Context, e events.RequestStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := s.parent(ctx, rid, &s.httpSpans, &s.grpcSpans)
			_, span := s.tracer.Start(parent, "graphql.operation")
			span.SetAttributes(attribute.String("graphql.operation.name", e.OperationName))
			s.gqlSpans.Store(rid, span)
		}),
		eventbus.Subscribe(bus, func(ctx context.Context, e events.RequestFinish) {
			rid, _ := reqid.FromContext(ctx)
			end(&s.gqlSpans, rid, func(span trace.Span) {
				span.SetAttributes(
					attribute.String("graphql.operation.type", e.OperationType),
					attribute.Bool("graphql.executed", e.Executed),
					attribute.Int("graphql.error_count", len(e.Errors)),
				)
				if len(e.Errors) > 0 {
					span.SetStatus(codes.Error, e.Errors[0].Message)
				}
			})
		}),

		// Resolver spans are recorded after the fact from the measured duration.
		eventbus.Subscribe(bus, func(ctx context.Context, e events.FieldResolved) {
			rid, _ := reqid.FromContext(ctx)
			finished := time.Now()
			parent := s.parent(ctx, rid, &s.gqlSpans)
			_, span := s.tracer.Start(parent, "graphql.resolve",
				trace.WithTimestamp(finished.Add(-e.Duration)),
				trace.WithAttributes(
					attribute.String("graphql.field.coordinate", e.ParentType+"."+e.Field),
					attribute.String("graphql.field.path", e.Path.String()),
				))
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End(trace.WithTimestamp(finished))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

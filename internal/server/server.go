// Package server serves GraphQL over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"google.golang.org/grpc/metadata"

	"github.com/hanpama/gqlexec/internal/engine"
	"github.com/hanpama/gqlexec/internal/eventbus"
	"github.com/hanpama/gqlexec/internal/events"
	"github.com/hanpama/gqlexec/internal/executor"
	"github.com/hanpama/gqlexec/internal/reqid"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It decodes requests, runs them on the engine and writes the results.
type Handler struct {
	engine *engine.Engine
	bus    *eventbus.Bus
	opt    Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into outgoing gRPC
	// metadata for resolvers that call gRPC backends. Header names are
	// case-insensitive. Default is none.
	MetadataHeaders []string

	// RequestContext builds the request-scoped object handed to resolvers.
	// Default is nil.
	RequestContext func(*http.Request) any
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithRequestContext(fn func(*http.Request) any) Option {
	return func(o *Options) { o.RequestContext = fn }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler. HTTP events are published on the
// engine's bus.
func New(e *engine.Engine, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{engine: e, bus: e.Bus(), opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)
	status := http.StatusOK
	var writeErr error
	start := time.Now()
	eventbus.Publish(ctx, h.bus, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, h.bus, events.HTTPFinish{Request: r, Status: status, Err: writeErr, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeErr = writeJSON(w, status, errorResult("method not allowed"), h.opt.Pretty)
		return
	}

	// Map configured headers into metadata
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md[strings.ToLower(reqid.Header)] = []string{rid}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, err := parseRequest(r, h.opt.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeErr = writeJSON(w, status, errorResult(err.Error()), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	var reqCtx any
	if h.opt.RequestContext != nil {
		reqCtx = h.opt.RequestContext(r)
	}

	if batch != nil {
		results := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			results[i] = h.executeOne(ctx, batch[i], reqCtx)
		}
		writeErr = writeJSON(w, status, results, h.opt.Pretty)
		return
	}

	writeErr = writeJSON(w, status, h.executeOne(ctx, req, reqCtx), h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest, reqCtx any) *executor.ExecutionResult {
	if req.Query == "" {
		return errorResult(errMissingQuery.Error())
	}
	return h.engine.Execute(ctx, engine.Request{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
		Context:       reqCtx,
	})
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

var (
	errBodyTooLarge    = errors.New("body too large")
	errMissingQuery    = errors.New("missing 'query'")
	errInvalidJSON     = errors.New("invalid JSON")
	errInvalidVars     = errors.New("invalid 'variables' JSON")
	errEmptyBatch      = errors.New("empty batch")
	errUnsupportedType = errors.New("unsupported Content-Type")
)

// parseRequest decodes a GET query string or a POST JSON body. A body that
// is a JSON array is a batch.
func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, errMissingQuery
		}
		var vars map[string]any
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, errInvalidVars
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return GraphQLRequest{}, nil, errUnsupportedType
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return GraphQLRequest{}, nil, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return GraphQLRequest{}, nil, errBodyTooLarge
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var arr []GraphQLRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return GraphQLRequest{}, nil, errInvalidJSON
		}
		if len(arr) == 0 {
			return GraphQLRequest{}, nil, errEmptyBatch
		}
		return GraphQLRequest{}, arr, nil
	}
	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return GraphQLRequest{}, nil, errInvalidJSON
	}
	if req.Query == "" {
		return GraphQLRequest{}, nil, errMissingQuery
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

// errorResult is a transport failure rendered as a result without data.
func errorResult(message string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: gqlerror.List{{Message: message}}}
}

// writeJSON encodes v as the response body. The status is already sent when
// encoding fails, so the error is only reported on the finish event.
func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	wildcard := slices.Contains(opts.AllowedOrigins, "*")
	if !wildcard && !slices.Contains(opts.AllowedOrigins, origin) {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

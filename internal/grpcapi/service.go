// Package grpcapi serves GraphQL requests over gRPC. The service is described
// by hand, so no generated code is needed:
//
//	service gqlexec.v1.GraphQL {
//	  rpc Execute(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
//
// The request carries "query", "operationName" and "variables"; the response
// is the GraphQL result map with "errors" and "data".
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/gqlexec/internal/engine"
)

const (
	ServiceName   = "gqlexec.v1.GraphQL"
	ExecuteMethod = "/" + ServiceName + "/Execute"
)

// GraphQLServer is the server API of the GraphQL service.
type GraphQLServer interface {
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc is the grpc.ServiceDesc of the GraphQL service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GraphQLServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Execute",
		Handler:    executeHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gqlexec/v1/graphql.proto",
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GraphQLServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecuteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GraphQLServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Register adds the GraphQL service backed by e to s.
func Register(s grpc.ServiceRegistrar, e *engine.Engine) {
	s.RegisterService(&ServiceDesc, NewServer(e))
}

// Server runs GraphQL requests received over gRPC on an engine.
type Server struct {
	engine *engine.Engine
}

func NewServer(e *engine.Engine) *Server { return &Server{engine: e} }

// Execute runs one request. GraphQL errors are part of the response; only
// a malformed request fails the RPC.
func (s *Server) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	res := s.engine.Execute(ctx, req)
	b, err := json.Marshal(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

var (
	errMissingQuery = errors.New("missing 'query'")
	errInvalidVars  = errors.New("'variables' must be an object")
)

func decodeRequest(in *structpb.Struct) (engine.Request, error) {
	fields := in.GetFields()
	query := fields["query"].GetStringValue()
	if query == "" {
		return engine.Request{}, errMissingQuery
	}
	req := engine.Request{
		Query:         query,
		OperationName: fields["operationName"].GetStringValue(),
	}
	if v, ok := fields["variables"]; ok {
		switch v.GetKind().(type) {
		case *structpb.Value_StructValue:
			req.Variables = v.GetStructValue().AsMap()
		case *structpb.Value_NullValue:
		default:
			return engine.Request{}, errInvalidVars
		}
	}
	return req, nil
}

// NewRequest builds the request message for query.
func NewRequest(query, operationName string, variables map[string]any) (*structpb.Struct, error) {
	m := map[string]any{"query": query}
	if operationName != "" {
		m["operationName"] = operationName
	}
	if variables != nil {
		m["variables"] = variables
	}
	return structpb.NewStruct(m)
}

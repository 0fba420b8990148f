// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     server
// Description: lox.v1.Frontend service descriptor. Messages are
//              google.protobuf.Struct so no generated code is needed.
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "lox.v1.Frontend"

// Full method names
const (
	ScanMethod  = "/" + ServiceName + "/Scan"
	ParseMethod = "/" + ServiceName + "/Parse"
)

// FrontendServer is the server API for the Frontend service
type FrontendServer interface {
	Scan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterFrontendServer registers srv on s
func RegisterFrontendServer(s grpc.ServiceRegistrar, srv FrontendServer) {
	s.RegisterService(&FrontendServiceDesc, srv)
}

func unaryHandler(method string, call func(FrontendServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FrontendServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FrontendServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FrontendServiceDesc describes the Frontend service
var FrontendServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FrontendServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Scan",
			Handler: unaryHandler(ScanMethod, func(s FrontendServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Scan(ctx, in)
			}),
		},
		{
			MethodName: "Parse",
			Handler: unaryHandler(ParseMethod, func(s FrontendServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Parse(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lox/v1/frontend.proto",
}

// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     server
// Description: gRPC server exposing the front-end service
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"errors"
	"net"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/service"
	coreGrpc "github.com/msto63/lox/pkg/core/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server is the Frontend gRPC server
type Server struct {
	service *service.Service
	grpc    *coreGrpc.Server
	logger  *mdwlog.Logger
	config  Config
}

// Config holds server configuration
type Config struct {
	Host             string
	Port             int
	EnableReflection bool
	MaxMessageSize   int
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:             "127.0.0.1",
		Port:             9310,
		EnableReflection: true,
		MaxMessageSize:   4 * 1024 * 1024,
	}
}

// New creates a Frontend server around svc
func New(cfg Config, svc *service.Service, logger *mdwlog.Logger) *Server {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Host
	grpcCfg.Port = cfg.Port
	grpcCfg.EnableReflection = cfg.EnableReflection
	if cfg.MaxMessageSize > 0 {
		grpcCfg.MaxRecvMsgSize = cfg.MaxMessageSize
	}

	server := &Server{
		service: svc,
		grpc:    coreGrpc.NewServer(grpcCfg, logger),
		logger:  logger.WithField("component", "frontend-server"),
		config:  cfg,
	}

	RegisterFrontendServer(server.grpc.GRPCServer(), server)
	server.grpc.SetServingStatus("", true)
	server.grpc.SetServingStatus(ServiceName, true)

	return server
}

// Scan implements lox.v1.Frontend/Scan
func (s *Server) Scan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	source, err := sourceField(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.service.Scan(ctx, service.Request{
		Source:    source,
		Origin:    "grpc",
		RequestID: coreGrpc.GetRequestID(ctx),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return encodeStruct(resp.Map())
}

// Parse implements lox.v1.Frontend/Parse
func (s *Server) Parse(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	source, err := sourceField(in)
	if err != nil {
		return nil, err
	}

	resp, err := s.service.Parse(ctx, service.Request{
		Source:    source,
		Origin:    "grpc",
		RequestID: coreGrpc.GetRequestID(ctx),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return encodeStruct(resp.Map())
}

func sourceField(in *structpb.Struct) (string, error) {
	v, ok := in.GetFields()["source"]
	if !ok {
		return "", status.Error(codes.InvalidArgument, "source is required")
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Error(codes.InvalidArgument, "source must be a string")
	}
	return sv.StringValue, nil
}

func encodeStruct(m map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// toStatus maps service errors onto gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case mdwerror.HasCode(err, mdwerror.CodeInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case mdwerror.HasCode(err, mdwerror.CodeNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Start starts the server and blocks
func (s *Server) Start() error {
	return s.grpc.Start()
}

// StartAsync starts the server in the background
func (s *Server) StartAsync() error {
	return s.grpc.StartAsync()
}

// Serve serves on an existing listener and blocks
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.logger.Info("stopping frontend server")
	s.grpc.Stop()
}

// StopWithTimeout stops the server, forcing it once ctx is done
func (s *Server) StopWithTimeout(ctx context.Context) {
	s.grpc.StopWithTimeout(ctx)
}

// Address returns the listen address
func (s *Server) Address() string {
	return s.grpc.Address()
}

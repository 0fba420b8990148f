package grpc

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	mdwlog "github.com/msto63/lox/foundation/core/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const testService = "test.v1.Echo"

type echoServer interface {
	Echo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type echo struct{}

func (echo) Echo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in.GetFields()["panic"].GetBoolValue() {
		panic("boom")
	}
	return structpb.NewStruct(map[string]interface{}{"request_id": GetRequestID(ctx)})
}

func echoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + testService + "/Echo"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(echoServer).Echo(ctx, req.(*structpb.Struct))
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	return interceptor(ctx, in, info, handler)
}

var echoDesc = grpc.ServiceDesc{
	ServiceName: testService,
	HandlerType: (*echoServer)(nil),
	Methods:     []grpc.MethodDesc{{MethodName: "Echo", Handler: echoHandler}},
}

func startTestServer(t *testing.T, logs *bytes.Buffer) *grpc.ClientConn {
	t.Helper()

	logger := mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelDebug, Format: mdwlog.FormatJSON, Output: logs})
	srv := NewServer(DefaultServerConfig(), logger)
	srv.GRPCServer().RegisterService(&echoDesc, echo{})
	srv.SetServingStatus(testService, true)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cfg := DefaultClientConfig("passthrough:///bufnet")
	cfg.Logger = logger
	conn, err := Dial(cfg, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func invokeEcho(ctx context.Context, conn *grpc.ClientConn, in map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, "/"+testService+"/Echo", req, out, opts...)
	return out, err
}

func TestServerHealth(t *testing.T) {
	conn := startTestServer(t, &bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		service string
		serving bool
	}{
		{"", true},
		{testService, true},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			ok, err := CheckHealth(ctx, conn, tt.service)
			if err != nil {
				t.Fatalf("CheckHealth failed: %v", err)
			}
			if ok != tt.serving {
				t.Errorf("Expected serving=%v, got %v", tt.serving, ok)
			}
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	conn := startTestServer(t, &bytes.Buffer{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("caller supplied", func(t *testing.T) {
		var header metadata.MD
		out, err := invokeEcho(WithRequestID(ctx, "req-42"), conn, map[string]interface{}{}, grpc.Header(&header))
		if err != nil {
			t.Fatalf("Echo failed: %v", err)
		}
		if got := out.GetFields()["request_id"].GetStringValue(); got != "req-42" {
			t.Errorf("Expected request id req-42, got %q", got)
		}
		if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-42" {
			t.Errorf("Expected response header req-42, got %v", got)
		}
	})

	t.Run("generated", func(t *testing.T) {
		out, err := invokeEcho(ctx, conn, map[string]interface{}{})
		if err != nil {
			t.Fatalf("Echo failed: %v", err)
		}
		if got := out.GetFields()["request_id"].GetStringValue(); len(got) != 36 {
			t.Errorf("Expected generated uuid, got %q", got)
		}
	})
}

func TestRecoveryInterceptor(t *testing.T) {
	logs := &bytes.Buffer{}
	conn := startTestServer(t, logs)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := invokeEcho(ctx, conn, map[string]interface{}{"panic": true})
	if status.Code(err) != codes.Internal {
		t.Fatalf("Expected Internal, got %v", err)
	}

	// the server keeps serving after a recovered panic
	if _, err := invokeEcho(ctx, conn, map[string]interface{}{}); err != nil {
		t.Errorf("Expected server to survive panic, got %v", err)
	}
}

func TestRequestIDHeaderFailureIsLogged(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := mdwlog.NewWithConfig(mdwlog.Config{Level: mdwlog.LevelDebug, Format: mdwlog.FormatJSON, Output: logs})
	interceptor := RequestIDInterceptor(logger)

	// a plain context has no server transport, so SetHeader fails
	info := &grpc.UnaryServerInfo{FullMethod: "/" + testService + "/Echo"}
	var seen string
	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(seen) != 36 {
		t.Errorf("Expected generated request id in context, got %q", seen)
	}
	if !strings.Contains(logs.String(), "Request ID header not set") || !strings.Contains(logs.String(), seen) {
		t.Errorf("Expected debug log with request id, got %q", logs.String())
	}
}

func TestGetRequestIDEmpty(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("Expected empty request id, got %q", got)
	}

	md := metadata.Pairs(RequestIDHeader, "from-md")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	if got := GetRequestID(ctx); got != "from-md" {
		t.Errorf("Expected from-md, got %q", got)
	}
}

func TestServerAddress(t *testing.T) {
	srv := NewServer(ServerConfig{Host: "127.0.0.1", Port: 9999, MaxRecvMsgSize: 1024, MaxSendMsgSize: 1024}, mdwlog.NewNop())
	if got := srv.Address(); !strings.HasSuffix(got, ":9999") {
		t.Errorf("Expected address ending in :9999, got %q", got)
	}
}

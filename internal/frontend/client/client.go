// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     client
// Description: gRPC client for the lox.v1.Frontend service
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package client

import (
	"context"
	"fmt"
	"math"

	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
	"github.com/msto63/lox/internal/frontend/server"
	coreGrpc "github.com/msto63/lox/pkg/core/grpc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a Frontend server
type Client struct {
	conn     *grpc.ClientConn
	ownsConn bool
}

// ScanResult is a decoded Scan response
type ScanResult struct {
	RunID       string
	OK          bool
	Tokens      []mdwtoken.Token
	Diagnostics []mdwdiag.Diagnostic
}

// ParseResult is a decoded Parse response. AST is the plain-map tree
// encoding; SExpr its prefix form.
type ParseResult struct {
	RunID       string
	OK          bool
	TokenCount  int
	SExpr       string
	AST         map[string]interface{}
	Diagnostics []mdwdiag.Diagnostic
}

// New dials the server described by cfg
func New(cfg coreGrpc.ClientConfig, opts ...grpc.DialOption) (*Client, error) {
	conn, err := coreGrpc.Dial(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, ownsConn: true}, nil
}

// NewFromConn wraps an existing connection; Close leaves it open
func NewFromConn(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Scan tokenizes source on the server
func (c *Client) Scan(ctx context.Context, source string) (*ScanResult, error) {
	out, err := c.invoke(ctx, server.ScanMethod, source)
	if err != nil {
		return nil, err
	}

	fields := out.GetFields()
	result := &ScanResult{
		RunID:       fields["run_id"].GetStringValue(),
		OK:          fields["ok"].GetBoolValue(),
		Diagnostics: decodeDiagnostics(fields["diagnostics"]),
	}

	for _, v := range fields["tokens"].GetListValue().GetValues() {
		tok, err := decodeToken(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		result.Tokens = append(result.Tokens, tok)
	}

	return result, nil
}

// Parse parses source on the server
func (c *Client) Parse(ctx context.Context, source string) (*ParseResult, error) {
	out, err := c.invoke(ctx, server.ParseMethod, source)
	if err != nil {
		return nil, err
	}

	fields := out.GetFields()
	result := &ParseResult{
		RunID:       fields["run_id"].GetStringValue(),
		OK:          fields["ok"].GetBoolValue(),
		TokenCount:  int(fields["token_count"].GetNumberValue()),
		SExpr:       fields["sexpr"].GetStringValue(),
		Diagnostics: decodeDiagnostics(fields["diagnostics"]),
	}
	if ast := fields["ast"].GetStructValue(); ast != nil {
		result.AST = ast.AsMap()
	}

	return result, nil
}

// Healthy reports whether the server's Frontend service is serving
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	return coreGrpc.CheckHealth(ctx, c.conn, server.ServiceName)
}

// Close closes the connection when the client opened it
func (c *Client) Close() error {
	if c.ownsConn {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, method, source string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"source": source})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeToken(s *structpb.Struct) (mdwtoken.Token, error) {
	fields := s.GetFields()
	name := fields["type"].GetStringValue()
	tt, ok := mdwtoken.ParseType(name)
	if !ok {
		return mdwtoken.Token{}, fmt.Errorf("unknown token type %q", name)
	}

	var literal interface{}
	switch v := fields["literal"].GetKind().(type) {
	case *structpb.Value_NumberValue:
		literal = v.NumberValue
	case *structpb.Value_StringValue:
		literal = v.StringValue
		if tt == mdwtoken.Number {
			literal = parseNonFinite(v.StringValue)
		}
	}

	return mdwtoken.New(tt, fields["lexeme"].GetStringValue(), literal, int(fields["line"].GetNumberValue())), nil
}

// parseNonFinite reverses the string form used for overflowing numbers
func parseNonFinite(s string) float64 {
	switch s {
	case "+Inf":
		return math.Inf(1)
	case "-Inf":
		return math.Inf(-1)
	default:
		return math.NaN()
	}
}

func decodeDiagnostics(v *structpb.Value) []mdwdiag.Diagnostic {
	var out []mdwdiag.Diagnostic
	for _, item := range v.GetListValue().GetValues() {
		f := item.GetStructValue().GetFields()
		out = append(out, mdwdiag.Diagnostic{
			Phase:   mdwdiag.Phase(f["phase"].GetStringValue()),
			Line:    int(f["line"].GetNumberValue()),
			Where:   f["where"].GetStringValue(),
			Message: f["message"].GetStringValue(),
		})
	}
	return out
}

package service

import (
	mdwast "github.com/msto63/lox/foundation/lox/ast"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

// Wire encoding shared by the transports. Values are limited to the
// types structpb.NewValue accepts.

// EncodeToken converts a token into a plain map
func EncodeToken(t mdwtoken.Token) map[string]interface{} {
	return map[string]interface{}{
		"type":    t.Type.String(),
		"lexeme":  t.Lexeme,
		"literal": mdwast.EncodeValue(t.Literal),
		"line":    t.Line,
	}
}

// EncodeTokens converts a token list
func EncodeTokens(tokens []mdwtoken.Token) []interface{} {
	out := make([]interface{}, len(tokens))
	for i, t := range tokens {
		out[i] = EncodeToken(t)
	}
	return out
}

// EncodeDiagnostics converts diagnostics; each carries its formatted text
func EncodeDiagnostics(ds []mdwdiag.Diagnostic) []interface{} {
	out := make([]interface{}, len(ds))
	for i, d := range ds {
		out[i] = map[string]interface{}{
			"phase":   string(d.Phase),
			"line":    d.Line,
			"where":   d.Where,
			"message": d.Message,
			"text":    d.String(),
		}
	}
	return out
}

// Map encodes the scan response
func (r *ScanResponse) Map() map[string]interface{} {
	return map[string]interface{}{
		"run_id":      r.RunID,
		"ok":          r.OK(),
		"tokens":      EncodeTokens(r.Tokens),
		"diagnostics": EncodeDiagnostics(r.Diagnostics),
		"duration_us": r.Duration.Microseconds(),
	}
}

// Map encodes the parse response. ast and sexpr are nil when no tree
// was built.
func (r *ParseResponse) Map() map[string]interface{} {
	m := map[string]interface{}{
		"run_id":      r.RunID,
		"ok":          r.OK(),
		"token_count": r.TokenCount,
		"diagnostics": EncodeDiagnostics(r.Diagnostics),
		"duration_us": r.Duration.Microseconds(),
		"ast":         nil,
		"sexpr":       nil,
	}
	if r.Expr != nil {
		m["ast"] = mdwast.Encode(r.Expr)
		m["sexpr"] = mdwast.Print(r.Expr)
	}
	return m
}

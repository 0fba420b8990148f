package ast

import (
	"math"

	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

// Encode converts a tree into nested maps of plain values, ready for
// JSON, YAML or structpb. Numbers stay float64.
func Encode(expr Expr) map[string]interface{} {
	if expr == nil {
		return nil
	}
	return expr.Accept(encoder{}).(map[string]interface{})
}

type encoder struct{}

func (enc encoder) VisitBinaryExpr(expr *Binary) interface{} {
	return map[string]interface{}{
		"type":     "binary",
		"operator": expr.Operator.Lexeme,
		"line":     expr.Line(),
		"left":     Encode(expr.Left),
		"right":    Encode(expr.Right),
	}
}

func (enc encoder) VisitGroupingExpr(expr *Grouping) interface{} {
	return map[string]interface{}{
		"type":       "grouping",
		"line":       expr.Line(),
		"expression": Encode(expr.Expression),
	}
}

func (enc encoder) VisitLiteralExpr(expr *Literal) interface{} {
	return map[string]interface{}{
		"type":  "literal",
		"kind":  LiteralKind(expr.Value),
		"line":  expr.Line(),
		"value": EncodeValue(expr.Value),
	}
}

// LiteralKind names the type of a literal value: "number", "string",
// "bool" or "nil"
func LiteralKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return "unknown"
	}
}

// EncodeValue returns a literal as a plain value. Non-finite numbers,
// which JSON cannot carry, become their printed form.
func EncodeValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return mdwtoken.FormatLiteral(f)
	}
	return v
}

func (enc encoder) VisitUnaryExpr(expr *Unary) interface{} {
	return map[string]interface{}{
		"type":     "unary",
		"operator": expr.Operator.Lexeme,
		"line":     expr.Line(),
		"right":    Encode(expr.Right),
	}
}

func (enc encoder) VisitVariableExpr(expr *Variable) interface{} {
	return map[string]interface{}{
		"type": "variable",
		"name": expr.Name.Lexeme,
		"line": expr.Line(),
	}
}

// Equal reports whether two trees have the same shape, operators, names
// and literal values. Source lines are not compared.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case *Binary:
		y, ok := b.(*Binary)
		return ok && sameOperator(x.Operator, y.Operator) && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Grouping:
		y, ok := b.(*Grouping)
		return ok && Equal(x.Expression, y.Expression)
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Value == y.Value
	case *Unary:
		y, ok := b.(*Unary)
		return ok && sameOperator(x.Operator, y.Operator) && Equal(x.Right, y.Right)
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name.Lexeme == y.Name.Lexeme
	default:
		return false
	}
}

func sameOperator(a, b mdwtoken.Token) bool {
	return a.Type == b.Type && a.Lexeme == b.Lexeme
}

// File: visitor.go
// Title: Lox AST Visitors
// Description: The Visitor interface and the stock visitors: a walking
//              base, a validation visitor and a summary collector.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial visitor implementation

package ast

import (
	"fmt"
	"sort"
	"strings"

	mdwerror "github.com/msto63/lox/foundation/core/error"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

// Visitor has one method per node type. Adding a node type breaks every
// implementation until it handles the new type.
type Visitor interface {
	VisitBinaryExpr(expr *Binary) interface{}
	VisitGroupingExpr(expr *Grouping) interface{}
	VisitLiteralExpr(expr *Literal) interface{}
	VisitUnaryExpr(expr *Unary) interface{}
	VisitVariableExpr(expr *Variable) interface{}
}

// Walk calls fn for expr and each descendant in pre-order with its depth
// (root is depth 1). Nil children are skipped.
func Walk(expr Expr, fn func(expr Expr, depth int)) {
	walk(expr, 1, fn)
}

func walk(expr Expr, depth int, fn func(Expr, int)) {
	if expr == nil {
		return
	}
	fn(expr, depth)

	switch e := expr.(type) {
	case *Binary:
		walk(e.Left, depth+1, fn)
		walk(e.Right, depth+1, fn)
	case *Grouping:
		walk(e.Expression, depth+1, fn)
	case *Unary:
		walk(e.Right, depth+1, fn)
	case *Literal, *Variable:
	}
}

// ValidationVisitor checks structural invariants of a tree
type ValidationVisitor struct {
	errors []error
}

// NewValidationVisitor creates a new validation visitor
func NewValidationVisitor() *ValidationVisitor {
	return &ValidationVisitor{}
}

// Errors returns the problems found so far
func (vv *ValidationVisitor) Errors() []error {
	return vv.errors
}

// HasErrors returns true if validation found problems
func (vv *ValidationVisitor) HasErrors() bool {
	return len(vv.errors) > 0
}

func (vv *ValidationVisitor) addError(format string, args ...interface{}) {
	vv.errors = append(vv.errors, fmt.Errorf(format, args...))
}

func (vv *ValidationVisitor) child(parent string, expr Expr) {
	if expr == nil {
		vv.addError("%s: missing operand", parent)
		return
	}
	expr.Accept(vv)
}

var binaryOperators = map[mdwtoken.TokenType]bool{
	mdwtoken.BangEqual:    true,
	mdwtoken.EqualEqual:   true,
	mdwtoken.Greater:      true,
	mdwtoken.GreaterEqual: true,
	mdwtoken.Less:         true,
	mdwtoken.LessEqual:    true,
	mdwtoken.Minus:        true,
	mdwtoken.Plus:         true,
	mdwtoken.Slash:        true,
	mdwtoken.Star:         true,
}

func (vv *ValidationVisitor) VisitBinaryExpr(expr *Binary) interface{} {
	if !binaryOperators[expr.Operator.Type] {
		vv.addError("line %d: %s is not a binary operator", expr.Operator.Line, expr.Operator.Type)
	}
	vv.child("binary", expr.Left)
	vv.child("binary", expr.Right)
	return nil
}

func (vv *ValidationVisitor) VisitGroupingExpr(expr *Grouping) interface{} {
	vv.child("grouping", expr.Expression)
	return nil
}

func (vv *ValidationVisitor) VisitLiteralExpr(expr *Literal) interface{} {
	switch expr.Value.(type) {
	case nil, bool, float64, string:
	default:
		vv.addError("line %d: unsupported literal type %T", expr.SourceLine, expr.Value)
	}
	return nil
}

func (vv *ValidationVisitor) VisitUnaryExpr(expr *Unary) interface{} {
	if expr.Operator.Type != mdwtoken.Bang && expr.Operator.Type != mdwtoken.Minus {
		vv.addError("line %d: %s is not a unary operator", expr.Operator.Line, expr.Operator.Type)
	}
	vv.child("unary", expr.Right)
	return nil
}

func (vv *ValidationVisitor) VisitVariableExpr(expr *Variable) interface{} {
	if expr.Name.Type != mdwtoken.Identifier {
		vv.addError("line %d: variable name is %s, not IDENTIFIER", expr.Name.Line, expr.Name.Type)
	}
	return nil
}

// Validate checks a tree and returns an INTERNAL error listing every
// problem, or nil. Trees built by the parser always pass.
func Validate(expr Expr) error {
	if expr == nil {
		return mdwerror.New("empty expression").WithCode(mdwerror.CodeInternal)
	}

	vv := NewValidationVisitor()
	expr.Accept(vv)
	if !vv.HasErrors() {
		return nil
	}

	msgs := make([]string, len(vv.errors))
	for i, err := range vv.errors {
		msgs[i] = err.Error()
	}
	return mdwerror.New("invalid expression tree: "+strings.Join(msgs, "; ")).
		WithCode(mdwerror.CodeInternal).
		WithDetail("problems", len(msgs))
}

// Summary describes the shape of a tree
type Summary struct {
	Nodes     int            `json:"nodes" yaml:"nodes"`
	Depth     int            `json:"depth" yaml:"depth"`
	Operators map[string]int `json:"operators,omitempty" yaml:"operators,omitempty"`
	Variables []string       `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Summarize counts nodes, maximum depth, operators and distinct variable names
func Summarize(expr Expr) Summary {
	s := Summary{Operators: make(map[string]int)}
	seen := make(map[string]bool)

	Walk(expr, func(e Expr, depth int) {
		s.Nodes++
		if depth > s.Depth {
			s.Depth = depth
		}
		switch n := e.(type) {
		case *Binary:
			s.Operators[n.Operator.Lexeme]++
		case *Unary:
			s.Operators[n.Operator.Lexeme]++
		case *Variable:
			if !seen[n.Name.Lexeme] {
				seen[n.Name.Lexeme] = true
				s.Variables = append(s.Variables, n.Name.Lexeme)
			}
		}
	})

	sort.Strings(s.Variables)
	return s
}

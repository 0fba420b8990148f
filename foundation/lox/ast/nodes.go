// File: nodes.go
// Title: Lox Expression Nodes
// Description: The closed set of expression node types produced by the
//              parser. Each node owns its children; trees are never shared.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial node definitions

package ast

import (
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

// Expr is implemented only by the node types in this package
type Expr interface {
	// Accept dispatches to the matching Visitor method
	Accept(visitor Visitor) interface{}

	// Line returns the 1-based source line the node starts on
	Line() int

	exprNode()
}

// Binary is a two-operand operation such as 1 + 2
type Binary struct {
	Left     Expr
	Operator mdwtoken.Token
	Right    Expr
}

// Grouping is a parenthesized expression. It is kept as its own node so
// (1 + 2) stays distinguishable from 1 + 2.
type Grouping struct {
	Expression Expr
}

// Literal is a constant: float64, string, bool or nil
type Literal struct {
	Value      interface{}
	SourceLine int
}

// Unary is a prefix operation: !x or -x
type Unary struct {
	Operator mdwtoken.Token
	Right    Expr
}

// Variable is a reference to a name
type Variable struct {
	Name mdwtoken.Token
}

func (e *Binary) Accept(v Visitor) interface{}   { return v.VisitBinaryExpr(e) }
func (e *Grouping) Accept(v Visitor) interface{} { return v.VisitGroupingExpr(e) }
func (e *Literal) Accept(v Visitor) interface{}  { return v.VisitLiteralExpr(e) }
func (e *Unary) Accept(v Visitor) interface{}    { return v.VisitUnaryExpr(e) }
func (e *Variable) Accept(v Visitor) interface{} { return v.VisitVariableExpr(e) }

func (e *Binary) Line() int { return e.Operator.Line }

func (e *Grouping) Line() int {
	if e.Expression == nil {
		return 0
	}
	return e.Expression.Line()
}

func (e *Literal) Line() int  { return e.SourceLine }
func (e *Unary) Line() int    { return e.Operator.Line }
func (e *Variable) Line() int { return e.Name.Line }

func (*Binary) exprNode()   {}
func (*Grouping) exprNode() {}
func (*Literal) exprNode()  {}
func (*Unary) exprNode()    {}
func (*Variable) exprNode() {}

// NewBinary creates a binary node
func NewBinary(left Expr, operator mdwtoken.Token, right Expr) *Binary {
	return &Binary{Left: left, Operator: operator, Right: right}
}

// NewGrouping creates a grouping node
func NewGrouping(inner Expr) *Grouping {
	return &Grouping{Expression: inner}
}

// NewLiteral creates a literal node
func NewLiteral(value interface{}, line int) *Literal {
	return &Literal{Value: value, SourceLine: line}
}

// NewUnary creates a unary node
func NewUnary(operator mdwtoken.Token, right Expr) *Unary {
	return &Unary{Operator: operator, Right: right}
}

// NewVariable creates a variable reference
func NewVariable(name mdwtoken.Token) *Variable {
	return &Variable{Name: name}
}

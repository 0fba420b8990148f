// File: printer.go
// Title: Lox AST Printers
// Description: Renders trees as parenthesized prefix text and as an
//              indented multi-line dump.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial printers

package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer renders an expression in prefix form: (+ 1 (* 2 3))
type Printer struct{}

// NewPrinter creates a prefix printer
func NewPrinter() *Printer {
	return &Printer{}
}

// Print renders expr
func (p *Printer) Print(expr Expr) string {
	if expr == nil {
		return ""
	}
	return expr.Accept(p).(string)
}

func (p *Printer) VisitBinaryExpr(expr *Binary) interface{} {
	return p.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right)
}

func (p *Printer) VisitGroupingExpr(expr *Grouping) interface{} {
	return p.parenthesize("group", expr.Expression)
}

func (p *Printer) VisitLiteralExpr(expr *Literal) interface{} {
	return FormatValue(expr.Value)
}

func (p *Printer) VisitUnaryExpr(expr *Unary) interface{} {
	return p.parenthesize(expr.Operator.Lexeme, expr.Right)
}

func (p *Printer) VisitVariableExpr(expr *Variable) interface{} {
	return expr.Name.Lexeme
}

func (p *Printer) parenthesize(name string, exprs ...Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteString(" ")
		b.WriteString(p.Print(e))
	}
	b.WriteString(")")
	return b.String()
}

// Print renders expr in prefix form
func Print(expr Expr) string {
	return NewPrinter().Print(expr)
}

// FormatValue renders a literal value as source-like text. Integral
// numbers drop the fraction, strings are quoted.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// TreePrinter renders one node per line, children indented under parents
type TreePrinter struct {
	Indent string

	buf   strings.Builder
	level int
}

// NewTreePrinter creates a tree printer with two-space indentation
func NewTreePrinter() *TreePrinter {
	return &TreePrinter{Indent: "  "}
}

// Print renders expr; the result ends with a newline
func (tp *TreePrinter) Print(expr Expr) string {
	tp.buf.Reset()
	tp.level = 0
	if expr != nil {
		expr.Accept(tp)
	}
	return tp.buf.String()
}

func (tp *TreePrinter) line(format string, args ...interface{}) {
	tp.buf.WriteString(strings.Repeat(tp.Indent, tp.level))
	fmt.Fprintf(&tp.buf, format, args...)
	tp.buf.WriteString("\n")
}

func (tp *TreePrinter) children(exprs ...Expr) {
	tp.level++
	for _, e := range exprs {
		if e != nil {
			e.Accept(tp)
		}
	}
	tp.level--
}

func (tp *TreePrinter) VisitBinaryExpr(expr *Binary) interface{} {
	tp.line("Binary %s [line %d]", expr.Operator.Lexeme, expr.Line())
	tp.children(expr.Left, expr.Right)
	return nil
}

func (tp *TreePrinter) VisitGroupingExpr(expr *Grouping) interface{} {
	tp.line("Grouping")
	tp.children(expr.Expression)
	return nil
}

func (tp *TreePrinter) VisitLiteralExpr(expr *Literal) interface{} {
	tp.line("Literal %s", FormatValue(expr.Value))
	return nil
}

func (tp *TreePrinter) VisitUnaryExpr(expr *Unary) interface{} {
	tp.line("Unary %s [line %d]", expr.Operator.Lexeme, expr.Line())
	tp.children(expr.Right)
	return nil
}

func (tp *TreePrinter) VisitVariableExpr(expr *Variable) interface{} {
	tp.line("Variable %s [line %d]", expr.Name.Lexeme, expr.Line())
	return nil
}

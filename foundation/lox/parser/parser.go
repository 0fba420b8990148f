// File: parser.go
// Title: Lox Expression Parser
// Description: Recursive-descent parser for Lox expressions. Each grammar
//              level is one method; binary levels fold left-associative
//              chains. The first syntax error aborts the parse with exactly
//              one reported diagnostic.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial parser implementation
//
// Grammar:
//
//	expression → equality
//	equality   → comparison ( ( "!=" | "==" ) comparison )*
//	comparison → term ( ( ">" | ">=" | "<" | "<=" ) term )*
//	term       → factor ( ( "-" | "+" ) factor )*
//	factor     → unary ( ( "/" | "*" ) unary )*
//	unary      → ( "!" | "-" ) unary | primary
//	primary    → NUMBER | STRING | "true" | "false" | "nil"
//	           | IDENTIFIER | "(" expression ")"

package parser

import (
	"fmt"

	mdwlog "github.com/msto63/lox/foundation/core/log"
	mdwast "github.com/msto63/lox/foundation/lox/ast"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

const (
	// DefaultMaxDepth bounds nesting of groupings and unary operators
	DefaultMaxDepth = 256

	msgExpectExpression = "Expect expression."
	msgExpectParen      = "Expect ')' after expression."
	msgExpectEnd        = "Expect end of expression."
	msgTooDeep          = "Expression nesting too deep."
)

// Options configures parser behavior
type Options struct {
	Logger   *mdwlog.Logger
	Reporter mdwdiag.Reporter
	MaxDepth int
}

// Parser consumes a token sequence left to right with one token of lookahead
type Parser struct {
	tokens   []mdwtoken.Token
	current  int
	depth    int
	logger   *mdwlog.Logger
	reporter mdwdiag.Reporter
	options  Options
}

// ParseError is the outcome of a failed parse. The matching diagnostic has
// already been reported when the error is returned.
type ParseError struct {
	Token   mdwtoken.Token
	Message string
}

// Diagnostic converts the error into its reported form
func (pe *ParseError) Diagnostic() mdwdiag.Diagnostic {
	where := fmt.Sprintf(" at '%s'", pe.Token.Lexeme)
	if pe.Token.Type == mdwtoken.EOF {
		where = " at end"
	}
	return mdwdiag.Diagnostic{
		Phase:   mdwdiag.PhaseParse,
		Line:    pe.Token.Line,
		Where:   where,
		Message: pe.Message,
	}
}

func (pe *ParseError) Error() string {
	return pe.Diagnostic().String()
}

// New creates a parser over tokens. A sequence without a trailing EOF
// token gets one appended; the caller's slice is never modified.
func New(tokens []mdwtoken.Token, opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	owned := make([]mdwtoken.Token, len(tokens), len(tokens)+1)
	copy(owned, tokens)
	if len(owned) == 0 || owned[len(owned)-1].Type != mdwtoken.EOF {
		line := 1
		if len(owned) > 0 {
			line = owned[len(owned)-1].Line
		}
		owned = append(owned, mdwtoken.New(mdwtoken.EOF, "", nil, line))
	}

	return &Parser{
		tokens:   owned,
		logger:   opts.Logger.WithField("component", "parser"),
		reporter: mdwdiag.OrDiscard(opts.Reporter),
		options:  opts,
	}
}

// ParseTokens parses tokens with default options
func ParseTokens(tokens []mdwtoken.Token, reporter mdwdiag.Reporter) (mdwast.Expr, error) {
	return New(tokens, Options{Reporter: reporter}).Parse()
}

// Parse parses one expression that must span the whole token sequence.
// On failure it returns a *ParseError and no tree.
func (p *Parser) Parse() (mdwast.Expr, error) {
	p.logger.Trace("parse started", mdwlog.Fields{"tokens": len(p.tokens)})

	expr, err := p.expression()
	if err == nil && !p.isAtEnd() {
		err = p.errorAt(p.peek(), msgExpectEnd)
	}
	if err != nil {
		p.logger.Debug("parse failed", mdwlog.Fields{"error": err.Error()})
		return nil, err
	}

	p.logger.Trace("parse completed", mdwlog.Fields{"consumed": p.current})
	return expr, nil
}

func (p *Parser) expression() (mdwast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.equality()
}

func (p *Parser) equality() (mdwast.Expr, error) {
	return p.binary(p.comparison, mdwtoken.BangEqual, mdwtoken.EqualEqual)
}

func (p *Parser) comparison() (mdwast.Expr, error) {
	return p.binary(p.term, mdwtoken.Greater, mdwtoken.GreaterEqual, mdwtoken.Less, mdwtoken.LessEqual)
}

func (p *Parser) term() (mdwast.Expr, error) {
	return p.binary(p.factor, mdwtoken.Minus, mdwtoken.Plus)
}

func (p *Parser) factor() (mdwast.Expr, error) {
	return p.binary(p.unary, mdwtoken.Slash, mdwtoken.Star)
}

// binary folds operand (op operand)* into a left-associative chain
func (p *Parser) binary(operand func() (mdwast.Expr, error), operators ...mdwtoken.TokenType) (mdwast.Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}

	for p.match(operators...) {
		operator := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = mdwast.NewBinary(expr, operator, right)
	}

	return expr, nil
}

func (p *Parser) unary() (mdwast.Expr, error) {
	if !p.match(mdwtoken.Bang, mdwtoken.Minus) {
		return p.primary()
	}

	operator := p.previous()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	right, err := p.unary()
	if err != nil {
		return nil, err
	}
	return mdwast.NewUnary(operator, right), nil
}

func (p *Parser) primary() (mdwast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case mdwtoken.False:
		p.advance()
		return mdwast.NewLiteral(false, tok.Line), nil
	case mdwtoken.True:
		p.advance()
		return mdwast.NewLiteral(true, tok.Line), nil
	case mdwtoken.Nil:
		p.advance()
		return mdwast.NewLiteral(nil, tok.Line), nil
	case mdwtoken.Number, mdwtoken.String:
		p.advance()
		return mdwast.NewLiteral(tok.Literal, tok.Line), nil
	case mdwtoken.Identifier:
		p.advance()
		return mdwast.NewVariable(tok), nil
	case mdwtoken.LeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(mdwtoken.RightParen, msgExpectParen); err != nil {
			return nil, err
		}
		return mdwast.NewGrouping(expr), nil
	default:
		return nil, p.errorAt(tok, msgExpectExpression)
	}
}

// Synchronize discards tokens until just after a ';' or just before a
// statement keyword. Hosts that parse several expressions from one token
// sequence call it after a failure to resume at the next statement.
func (p *Parser) Synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Type == mdwtoken.Semicolon {
			return
		}

		switch p.peek().Type {
		case mdwtoken.Class, mdwtoken.Fun, mdwtoken.Var, mdwtoken.For,
			mdwtoken.If, mdwtoken.While, mdwtoken.Print, mdwtoken.Return:
			return
		}

		p.advance()
	}
}

// Position returns the index of the next unconsumed token
func (p *Parser) Position() int {
	return p.current
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.options.MaxDepth {
		return p.errorAt(p.peek(), msgTooDeep)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) consume(tt mdwtoken.TokenType, message string) (mdwtoken.Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return mdwtoken.Token{}, p.errorAt(p.peek(), message)
}

func (p *Parser) match(types ...mdwtoken.TokenType) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(tt mdwtoken.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tt
}

func (p *Parser) advance() mdwtoken.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == mdwtoken.EOF
}

func (p *Parser) peek() mdwtoken.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() mdwtoken.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) errorAt(tok mdwtoken.Token, message string) *ParseError {
	err := &ParseError{Token: tok, Message: message}
	p.reporter.Report(err.Diagnostic())
	return err
}

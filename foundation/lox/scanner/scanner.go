// File: scanner.go
// Title: Lox Lexical Scanner
// Description: Converts Lox source text into a token sequence in one
//              left-to-right maximal-munch pass. Malformed lexemes are
//              reported and skipped; scanning always runs to end of input
//              and ends with exactly one EOF token.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial scanner implementation

package scanner

import (
	"strconv"

	mdwlog "github.com/msto63/lox/foundation/core/log"
	mdwdiag "github.com/msto63/lox/foundation/lox/diag"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
)

const (
	msgUnexpectedCharacter = "Unexpected character."
	msgUnterminatedString  = "Unterminated string."
)

// Scanner holds the cursor state for one scan of one source text
type Scanner struct {
	source   string
	tokens   []mdwtoken.Token
	reporter mdwdiag.Reporter
	logger   *mdwlog.Logger

	start   int // first byte of the lexeme being scanned
	current int // byte under examination
	line    int

	done bool
}

// New creates a scanner for source. A nil reporter discards diagnostics.
func New(source string, reporter mdwdiag.Reporter) *Scanner {
	return &Scanner{
		source:   source,
		reporter: mdwdiag.OrDiscard(reporter),
		line:     1,
	}
}

// WithLogger enables trace logging of each emitted token
func (s *Scanner) WithLogger(logger *mdwlog.Logger) *Scanner {
	if logger != nil {
		s.logger = logger.WithField("component", "scanner")
	}
	return s
}

// Scan is shorthand for New(source, reporter).ScanTokens()
func Scan(source string, reporter mdwdiag.Reporter) []mdwtoken.Token {
	return New(source, reporter).ScanTokens()
}

// ScanTokens runs the scan and returns the token sequence. The scan runs
// once; later calls return the same slice.
func (s *Scanner) ScanTokens() []mdwtoken.Token {
	if s.done {
		return s.tokens
	}

	for !s.isAtEnd() {
		s.start = s.current
		s.scanToken()
	}

	s.tokens = append(s.tokens, mdwtoken.New(mdwtoken.EOF, "", nil, s.line))
	s.done = true
	return s.tokens
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(mdwtoken.LeftParen)
	case ')':
		s.addToken(mdwtoken.RightParen)
	case '{':
		s.addToken(mdwtoken.LeftBrace)
	case '}':
		s.addToken(mdwtoken.RightBrace)
	case ',':
		s.addToken(mdwtoken.Comma)
	case '.':
		s.addToken(mdwtoken.Dot)
	case '-':
		s.addToken(mdwtoken.Minus)
	case '+':
		s.addToken(mdwtoken.Plus)
	case ';':
		s.addToken(mdwtoken.Semicolon)
	case '*':
		s.addToken(mdwtoken.Star)
	case '!':
		s.addToken(s.either('=', mdwtoken.BangEqual, mdwtoken.Bang))
	case '=':
		s.addToken(s.either('=', mdwtoken.EqualEqual, mdwtoken.Equal))
	case '<':
		s.addToken(s.either('=', mdwtoken.LessEqual, mdwtoken.Less))
	case '>':
		s.addToken(s.either('=', mdwtoken.GreaterEqual, mdwtoken.Greater))
	case '/':
		if s.match('/') {
			// Comment runs to end of line; the newline is left for the next step.
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(mdwtoken.Slash)
		}
	case ' ', '\r', '\t':
	case '\n':
		s.line++
	case '"':
		s.scanString()
	default:
		switch {
		case isDigit(c):
			s.scanNumber()
		case isAlpha(c):
			s.scanIdentifier()
		default:
			s.error(msgUnexpectedCharacter)
		}
	}
}

func (s *Scanner) scanIdentifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	s.addToken(mdwtoken.Lookup(s.source[s.start:s.current]))
}

func (s *Scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}

	// A fractional part needs at least one digit after the dot.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	// The lexeme is always well formed; runs beyond float64 range decode to +Inf.
	value, _ := strconv.ParseFloat(s.source[s.start:s.current], 64)
	s.addLiteral(mdwtoken.Number, value)
}

func (s *Scanner) scanString() {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}

	if s.isAtEnd() {
		s.error(msgUnterminatedString)
		return
	}

	s.advance() // closing quote
	s.addLiteral(mdwtoken.String, s.source[s.start+1:s.current-1])
}

func (s *Scanner) either(next byte, matched, otherwise mdwtoken.TokenType) mdwtoken.TokenType {
	if s.match(next) {
		return matched
	}
	return otherwise
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) addToken(tt mdwtoken.TokenType) {
	s.addLiteral(tt, nil)
}

func (s *Scanner) addLiteral(tt mdwtoken.TokenType, literal interface{}) {
	tok := mdwtoken.New(tt, s.source[s.start:s.current], literal, s.line)
	s.tokens = append(s.tokens, tok)

	if s.logger != nil {
		s.logger.Trace("token", mdwlog.Fields{
			"type":   tt.String(),
			"lexeme": tok.Lexeme,
			"line":   tok.Line,
		})
	}
}

func (s *Scanner) error(message string) {
	s.reporter.Report(mdwdiag.Diagnostic{
		Phase:   mdwdiag.PhaseScan,
		Line:    s.line,
		Message: message,
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

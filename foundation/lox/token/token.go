// File: token.go
// Title: Lox Token Model
// Description: Token kinds, the immutable Token record produced by the
//              scanner and the reserved-word table.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial token model

package token

import (
	"fmt"
	"strconv"
)

// TokenType represents the lexical category of a token
type TokenType int

const (
	// Single-character tokens
	LeftParen TokenType = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One or two character tokens
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals
	Identifier
	String
	Number

	// Keywords
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	EOF

	typeCount
)

var typeNames = [typeCount]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Dot:          "DOT",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Semicolon:    "SEMICOLON",
	Slash:        "SLASH",
	Star:         "STAR",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Identifier:   "IDENTIFIER",
	String:       "STRING",
	Number:       "NUMBER",
	And:          "AND",
	Class:        "CLASS",
	Else:         "ELSE",
	False:        "FALSE",
	Fun:          "FUN",
	For:          "FOR",
	If:           "IF",
	Nil:          "NIL",
	Or:           "OR",
	Print:        "PRINT",
	Return:       "RETURN",
	Super:        "SUPER",
	This:         "THIS",
	True:         "TRUE",
	Var:          "VAR",
	While:        "WHILE",
	EOF:          "EOF",
}

// String returns the upper-snake name of the token type
func (tt TokenType) String() string {
	if tt < 0 || tt >= typeCount {
		return "UNKNOWN"
	}
	return typeNames[tt]
}

// IsKeyword reports whether tt is a reserved word
func (tt TokenType) IsKeyword() bool {
	return tt >= And && tt <= While
}

// IsLiteral reports whether tokens of this type carry a decoded literal
func (tt TokenType) IsLiteral() bool {
	return tt == String || tt == Number
}

// ParseType returns the token type for an upper-snake name
func ParseType(name string) (TokenType, bool) {
	for i, n := range typeNames {
		if n == name {
			return TokenType(i), true
		}
	}
	return EOF, false
}

// AllTypes returns every token type in declaration order
func AllTypes() []TokenType {
	types := make([]TokenType, 0, typeCount)
	for tt := TokenType(0); tt < typeCount; tt++ {
		types = append(types, tt)
	}
	return types
}

// Token is a single lexeme classified by the scanner.
// Literal is float64 for NUMBER, string for STRING and nil otherwise.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
}

// New creates a token
func New(tt TokenType, lexeme string, literal interface{}, line int) Token {
	return Token{Type: tt, Lexeme: lexeme, Literal: literal, Line: line}
}

// String renders "TYPE lexeme literal", with null for a missing literal
func (t Token) String() string {
	return fmt.Sprintf("%s %s %s", t.Type, t.Lexeme, FormatLiteral(t.Literal))
}

// Equal compares two tokens by type, lexeme, literal and line
func (t Token) Equal(other Token) bool {
	return t.Type == other.Type &&
		t.Lexeme == other.Lexeme &&
		t.Literal == other.Literal &&
		t.Line == other.Line
}

// FormatLiteral renders a literal value. Numbers use the shortest
// representation that keeps one fractional digit, matching 123.0 and 1.5.
func FormatLiteral(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		for _, c := range s {
			if c == '.' || c == 'e' || c == 'I' || c == 'N' {
				return s
			}
		}
		return s + ".0"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

package token

import (
	"testing"
)

func TestEveryTypeHasName(t *testing.T) {
	seen := make(map[string]TokenType)
	for _, tt := range AllTypes() {
		name := tt.String()
		if name == "" || name == "UNKNOWN" {
			t.Errorf("Token type %d has no name", int(tt))
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("Name %s used by %d and %d", name, int(prev), int(tt))
		}
		seen[name] = tt

		back, ok := ParseType(name)
		if !ok || back != tt {
			t.Errorf("ParseType(%s) = %v, %v", name, back, ok)
		}
	}
	if TokenType(-1).String() != "UNKNOWN" {
		t.Error("Expected UNKNOWN for out-of-range type")
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		text     string
		expected TokenType
	}{
		{"class", Class},
		{"classroom", Identifier},
		{"Class", Identifier},
		{"nil", Nil},
		{"or", Or},
		{"orchid", Identifier},
		{"_while", Identifier},
		{"while", While},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Lookup(tt.text); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestKeywordTableMatchesKeywordTypes(t *testing.T) {
	table := Keywords()
	count := 0
	for _, tt := range AllTypes() {
		if tt.IsKeyword() {
			count++
		}
	}
	if len(table) != count {
		t.Errorf("Expected %d keywords, got %d", count, len(table))
	}
	for text, tt := range table {
		if !tt.IsKeyword() {
			t.Errorf("%q maps to non-keyword %s", text, tt)
		}
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok      Token
		expected string
	}{
		{New(Number, "123", 123.0, 1), "NUMBER 123 123.0"},
		{New(Number, "1.5", 1.5, 1), "NUMBER 1.5 1.5"},
		{New(String, `"hi"`, "hi", 2), `STRING "hi" hi`},
		{New(LeftParen, "(", nil, 1), "LEFT_PAREN ( null"},
		{New(EOF, "", nil, 3), "EOF  null"},
	}

	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestTokenEqual(t *testing.T) {
	a := New(Number, "1", 1.0, 1)
	if !a.Equal(New(Number, "1", 1.0, 1)) {
		t.Error("Expected equal tokens")
	}
	if a.Equal(New(Number, "1", 1.0, 2)) {
		t.Error("Expected tokens on different lines to differ")
	}
}

package token

var keywords = map[string]TokenType{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
}

// LookupKeyword returns the keyword type for text. The match is exact and
// case-sensitive: "Class" and "classroom" are not keywords.
func LookupKeyword(text string) (TokenType, bool) {
	tt, ok := keywords[text]
	return tt, ok
}

// Lookup returns the keyword type for text, or Identifier
func Lookup(text string) TokenType {
	if tt, ok := keywords[text]; ok {
		return tt
	}
	return Identifier
}

// Keywords returns a copy of the reserved-word table
func Keywords() map[string]TokenType {
	out := make(map[string]TokenType, len(keywords))
	for k, v := range keywords {
		out[k] = v
	}
	return out
}

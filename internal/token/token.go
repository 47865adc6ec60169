package token

import "fmt"

// TokenType is the terminal class of a token. Values are dense so that
// per-kind tables can be plain arrays indexed by TokenType.
type TokenType uint8

const (
	// Single-character tokens
	LPAREN TokenType = iota
	RPAREN
	LBRACE
	RBRACE
	COMMA
	DOT
	MINUS
	PLUS
	SEMICOLON
	SLASH
	ASTERISK

	// One or two character tokens
	BANG
	NOT_EQ
	ASSIGN
	EQ
	GT
	GTE
	LT
	LTE

	// Literals
	IDENT
	STRING
	NUMBER

	// Keywords
	AND
	CLASS
	ELSE
	FALSE
	FOR
	FUN
	IF
	NIL
	OR
	PRINT
	RETURN
	SUPER
	THIS
	TRUE
	VAR
	WHILE

	// ERROR carries a lexer message in its Lexeme.
	ERROR
	EOF

	// COUNT is the number of token types.
	COUNT
)

var names = [COUNT]string{
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	DOT:       ".",
	MINUS:     "-",
	PLUS:      "+",
	SEMICOLON: ";",
	SLASH:     "/",
	ASTERISK:  "*",
	BANG:      "!",
	NOT_EQ:    "!=",
	ASSIGN:    "=",
	EQ:        "==",
	GT:        ">",
	GTE:       ">=",
	LT:        "<",
	LTE:       "<=",
	IDENT:     "IDENT",
	STRING:    "STRING",
	NUMBER:    "NUMBER",
	AND:       "and",
	CLASS:     "class",
	ELSE:      "else",
	FALSE:     "false",
	FOR:       "for",
	FUN:       "fun",
	IF:        "if",
	NIL:       "nil",
	OR:        "or",
	PRINT:     "print",
	RETURN:    "return",
	SUPER:     "super",
	THIS:      "this",
	TRUE:      "true",
	VAR:       "var",
	WHILE:     "while",
	ERROR:     "ERROR",
	EOF:       "EOF",
}

func (t TokenType) String() string {
	if t < COUNT {
		return names[t]
	}
	return fmt.Sprintf("TokenType(%d)", uint8(t))
}

// Keywords maps reserved words to their token types.
var Keywords = map[string]TokenType{
	"and":    AND,
	"class":  CLASS,
	"else":   ELSE,
	"false":  FALSE,
	"for":    FOR,
	"fun":    FUN,
	"if":     IF,
	"nil":    NIL,
	"or":     OR,
	"print":  PRINT,
	"return": RETURN,
	"super":  SUPER,
	"this":   THIS,
	"true":   TRUE,
	"var":    VAR,
	"while":  WHILE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := Keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Token is a single lexeme. Lexeme is a substring of the source it was
// scanned from, except for ERROR tokens where it holds the message.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s'", t.Type, t.Lexeme)
}

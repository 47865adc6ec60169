package lexer

import (
	"testing"

	"github.com/funvibe/loxide/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `var answer = (1 + 2.5) * 3;
print answer >= 10 != !true; // trailing comment
"multi
line" _x1 <= < > == = / - nil and or`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
		expectedLine   int
	}{
		{token.VAR, "var", 1},
		{token.IDENT, "answer", 1},
		{token.ASSIGN, "=", 1},
		{token.LPAREN, "(", 1},
		{token.NUMBER, "1", 1},
		{token.PLUS, "+", 1},
		{token.NUMBER, "2.5", 1},
		{token.RPAREN, ")", 1},
		{token.ASTERISK, "*", 1},
		{token.NUMBER, "3", 1},
		{token.SEMICOLON, ";", 1},
		{token.PRINT, "print", 2},
		{token.IDENT, "answer", 2},
		{token.GTE, ">=", 2},
		{token.NUMBER, "10", 2},
		{token.NOT_EQ, "!=", 2},
		{token.BANG, "!", 2},
		{token.TRUE, "true", 2},
		{token.SEMICOLON, ";", 2},
		{token.STRING, "\"multi\nline\"", 3},
		{token.IDENT, "_x1", 4},
		{token.LTE, "<=", 4},
		{token.LT, "<", 4},
		{token.GT, ">", 4},
		{token.EQ, "==", 4},
		{token.ASSIGN, "=", 4},
		{token.SLASH, "/", 4},
		{token.MINUS, "-", 4},
		{token.NIL, "nil", 4},
		{token.AND, "and", 4},
		{token.OR, "or", 4},
		{token.EOF, "", 4},
		{token.EOF, "", 4},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}
		if tok.Line != tt.expectedLine {
			t.Fatalf("tests[%d] - line wrong. expected=%d, got=%d",
				i, tt.expectedLine, tok.Line)
		}
	}
}

func TestNextToken_NumberEdges(t *testing.T) {
	// "1." is a number followed by a dot; ".5" is a dot followed by a number.
	l := New("1. .5")
	want := []token.TokenType{token.NUMBER, token.DOT, token.DOT, token.NUMBER, token.EOF}
	for i, tt := range want {
		if tok := l.NextToken(); tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unexpected character", "@", "Unexpected character."},
		{"unterminated string", "\"abc", "Unterminated string."},
		{"unterminated empty string", "\"", "Unterminated string."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != token.ERROR {
				t.Fatalf("expected ERROR token, got %s", tok.Type)
			}
			if tok.Lexeme != tt.message {
				t.Errorf("message = %q, want %q", tok.Lexeme, tt.message)
			}
		})
	}
}

func TestNextToken_LexemesBorrowSource(t *testing.T) {
	src := "print hello;"
	l := New(src)
	l.NextToken()
	tok := l.NextToken()
	if tok.Lexeme != src[6:11] {
		t.Fatalf("lexeme = %q", tok.Lexeme)
	}
}

func TestNextToken_RecoversAfterError(t *testing.T) {
	l := New("# 1")
	if tok := l.NextToken(); tok.Type != token.ERROR {
		t.Fatalf("expected ERROR, got %s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != token.NUMBER || tok.Lexeme != "1" {
		t.Fatalf("expected NUMBER 1, got %s %q", tok.Type, tok.Lexeme)
	}
}

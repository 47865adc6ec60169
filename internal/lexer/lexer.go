package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/loxide/internal/token"
)

// Lexer produces tokens on demand. Lexemes are slices of the input, so
// tokens stay valid for as long as the caller keeps the source alive.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number

	start     int // start of the token being scanned
	startLine int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

// NextToken scans the next token. Once the input is exhausted it keeps
// returning EOF. Lexical errors are returned as token.ERROR with the
// message in Lexeme.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	l.start = l.position
	l.startLine = l.line

	if l.atEnd() {
		return token.Token{Type: token.EOF, Line: l.line}
	}

	var tok token.Token

	switch l.ch {
	case '(':
		tok = l.newToken(token.LPAREN)
	case ')':
		tok = l.newToken(token.RPAREN)
	case '{':
		tok = l.newToken(token.LBRACE)
	case '}':
		tok = l.newToken(token.RBRACE)
	case ',':
		tok = l.newToken(token.COMMA)
	case '.':
		tok = l.newToken(token.DOT)
	case '-':
		tok = l.newToken(token.MINUS)
	case '+':
		tok = l.newToken(token.PLUS)
	case ';':
		tok = l.newToken(token.SEMICOLON)
	case '/':
		tok = l.newToken(token.SLASH)
	case '*':
		tok = l.newToken(token.ASTERISK)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.NOT_EQ)
		} else {
			tok = l.newToken(token.BANG)
		}
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.EQ)
		} else {
			tok = l.newToken(token.ASSIGN)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.LTE)
		} else {
			tok = l.newToken(token.LT)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.newToken(token.GTE)
		} else {
			tok = l.newToken(token.GT)
		}
	case '"':
		return l.readString()
	default:
		if isLetter(l.ch) {
			return l.readIdentifier()
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = l.errorToken("Unexpected character.")
	}

	l.readChar()
	return tok
}

// newToken builds a token spanning from l.start through the current char.
func (l *Lexer) newToken(tokenType token.TokenType) token.Token {
	return token.Token{Type: tokenType, Lexeme: l.input[l.start:l.readPosition], Line: l.startLine}
}

func (l *Lexer) errorToken(message string) token.Token {
	return token.Token{Type: token.ERROR, Lexeme: message, Line: l.line}
}

// readString scans a string literal. The lexeme keeps both quotes.
// Strings may span lines; the token carries the line it started on.
func (l *Lexer) readString() token.Token {
	for {
		l.readChar()
		if l.atEnd() {
			return l.errorToken("Unterminated string.")
		}
		if l.ch == '"' {
			break
		}
	}

	tok := l.newToken(token.STRING)
	l.readChar()
	return tok
}

func (l *Lexer) readIdentifier() token.Token {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	ident := l.input[l.start:l.position]
	return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Line: l.startLine}
}

func (l *Lexer) readNumber() token.Token {
	for isDigit(l.ch) {
		l.readChar()
	}

	// A fractional part needs at least one digit after the dot.
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return token.Token{Type: token.NUMBER, Lexeme: l.input[l.start:l.position], Line: l.startLine}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && !l.atEnd() {
				l.readChar()
			}
			continue
		}
		break
	}
}

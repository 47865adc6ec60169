package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/loxide/internal/token"
)

func TestDiagnostic_Format(t *testing.T) {
	tests := []struct {
		name string
		tok  token.Token
		msg  string
		want string
	}{
		{
			name: "at lexeme",
			tok:  token.Token{Type: token.ASSIGN, Lexeme: "=", Line: 3},
			msg:  "Invalid assignment target.",
			want: "[line 3] Error at '=': Invalid assignment target.",
		},
		{
			name: "at end",
			tok:  token.Token{Type: token.EOF, Line: 7},
			msg:  "Expect expression.",
			want: "[line 7] Error at end: Expect expression.",
		},
		{
			name: "lexer error",
			tok:  token.Token{Type: token.ERROR, Lexeme: "Unexpected character.", Line: 1},
			msg:  "Unexpected character.",
			want: "[line 1] Error: Unexpected character.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewError(tt.tok, tt.msg).Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSink_Report(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, false)
	sink.Report(&Diagnostic{Line: 2, Where: " at ';'", Message: "Expect expression."})
	sink.Report(&Diagnostic{Line: 4, Where: " at end", Message: "Expect ';' after value."})

	want := "[line 2] Error at ';': Expect expression.\n[line 4] Error at end: Expect ';' after value.\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSink_Color(t *testing.T) {
	var buf bytes.Buffer
	NewSink(&buf, true).Report(&Diagnostic{Line: 1, Message: "boom"})
	if !strings.Contains(buf.String(), ansiRed+"Error"+ansiReset) {
		t.Errorf("expected coloured output, got %q", buf.String())
	}
}

func TestColorEnabled(t *testing.T) {
	if !ColorEnabled("always", nil) {
		t.Error("always should enable colour")
	}
	if ColorEnabled("never", nil) {
		t.Error("never should disable colour")
	}
	if ColorEnabled("auto", nil) {
		t.Error("auto without a file should disable colour")
	}
}

func TestNewSink_NilWriter(t *testing.T) {
	// Must not panic.
	NewSink(nil, false).Report(&Diagnostic{Line: 1, Message: "ignored"})
}

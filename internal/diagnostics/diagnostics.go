package diagnostics

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/loxide/internal/token"
)

// Diagnostic is a single compile error. Its Error() text is the line the
// compiler writes to the diagnostics sink.
type Diagnostic struct {
	Line    int
	Where   string // " at end", " at 'x'" or empty for lexer errors
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// NewError builds the diagnostic for msg reported at tok.
func NewError(tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Line: tok.Line, Where: Where(tok), Message: msg}
}

// Where renders the location context of a token.
func Where(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return " at end"
	case token.ERROR:
		// The message already describes the offending input.
		return ""
	default:
		return fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
}

const (
	ansiRed   = "\x1b[31;1m"
	ansiReset = "\x1b[0m"
)

// Sink writes diagnostics, one per line.
type Sink struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewSink returns a sink writing to w. A nil writer discards output.
func NewSink(w io.Writer, color bool) *Sink {
	if w == nil {
		w = io.Discard
	}
	return &Sink{w: w, color: color}
}

// Report writes d as one line.
func (s *Sink) Report(d *Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.color {
		fmt.Fprintf(s.w, "[line %d] %sError%s%s: %s\n", d.Line, ansiRed, ansiReset, d.Where, d.Message)
		return
	}
	fmt.Fprintln(s.w, d.Error())
}

// ColorEnabled resolves a diagnostics.color setting for f.
// "auto" colours only when f is a terminal.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"github.com/funvibe/loxide/internal/config"
)

// scriptedPrompt returns the given lines in order, then io.EOF.
func scriptedPrompt(lines ...string) func() (string, error) {
	return func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		if line == "^C" {
			return "", liner.ErrPromptAborted
		}
		return line, nil
	}
}

func newTestApp() (*app, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr, cfg: config.Default()}
	a.cfg.Diagnostics.Color = "never"
	a.setupLogging()
	return a, &stdout, &stderr
}

func TestReplLoop_GlobalsPersist(t *testing.T) {
	a, stdout, stderr := newTestApp()

	code := a.replLoop(scriptedPrompt(
		"var a = 1;",
		"",
		"^C",
		"print a + 1;",
		"a = \"x\";",
		"print a;",
	))
	if code != 0 {
		t.Errorf("exit code %d", code)
	}
	if stdout.String() != "2\n\"x\"\n\n" {
		t.Errorf("stdout %q", stdout.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr %q", stderr.String())
	}
}

func TestReplLoop_ErrorsDoNotEndSession(t *testing.T) {
	a, stdout, stderr := newTestApp()

	code := a.replLoop(scriptedPrompt(
		"print ;",
		"print -nil;",
		"print 3;",
		":quit",
		"print 4;",
	))
	if code != 0 {
		t.Errorf("exit code %d", code)
	}
	if stdout.String() != "3\n" {
		t.Errorf("stdout %q", stdout.String())
	}
	want := "[line 1] Error at ';': Expect expression.\n" +
		"Operand must be a number.\n[line 1] in script\n"
	if stderr.String() != want {
		t.Errorf("stderr %q, want %q", stderr.String(), want)
	}
}

func TestReplLoop_ReadError(t *testing.T) {
	a, _, stderr := newTestApp()
	code := a.replLoop(func() (string, error) { return "", io.ErrClosedPipe })
	if code != config.ExitIOError {
		t.Errorf("exit code %d", code)
	}
	if !strings.Contains(stderr.String(), "Error reading line") {
		t.Errorf("stderr %q", stderr.String())
	}
}

func TestHistoryPath(t *testing.T) {
	a, _, _ := newTestApp()
	a.cfg.Repl.HistoryFile = "/tmp/loxide_history"
	if got := a.historyPath(); got != "/tmp/loxide_history" {
		t.Errorf("absolute history path rewritten to %q", got)
	}
}

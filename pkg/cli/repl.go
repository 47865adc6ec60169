package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/loxide/internal/config"
	"github.com/funvibe/loxide/internal/vm"
)

const (
	promptMain = "> "
	quitCmd    = ":quit"
)

func (a *app) historyPath() string {
	path := a.cfg.Repl.HistoryFile
	if filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path)
}

func (a *app) repl() int {
	histPath := a.historyPath()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(a.stdout, "loxide %s. Ctrl+D or %s exits.\n", config.Version, quitCmd)

	prompt := func() (string, error) {
		line, err := ln.Prompt(promptMain)
		if err == nil && strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		return line, err
	}
	return a.replLoop(prompt)
}

// replLoop runs every line through one VM, so globals persist between
// lines. Errors are reported and the loop continues.
func (a *app) replLoop(prompt func() (string, error)) int {
	machine := a.newVM(a.newHeap())
	defer machine.Close()

	for {
		line, err := prompt()
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.stdout)
			return 0
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "Error reading line: %s\n", err)
			return config.ExitIOError
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == quitCmd {
			return 0
		}

		if err := machine.Interpret(line); err != nil && errors.Is(err, vm.ErrRuntime) {
			// Compile diagnostics were already written by the compiler.
			fmt.Fprintln(a.stderr, err)
		}
	}
}

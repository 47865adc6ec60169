package main

import (
	"fmt"
	"os"

	"github.com/funvibe/loxide/pkg/cli"
)

func main() {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		// LOXIDE_DEBUG=1 keeps the Go stack trace.
		if os.Getenv("LOXIDE_DEBUG") == "1" {
			panic(r)
		}
		fmt.Fprintf(os.Stderr, "loxide: internal error: %v\n", r)
		fmt.Fprintln(os.Stderr, "This is a bug in loxide; rerun with LOXIDE_DEBUG=1 for a stack trace.")
		os.Exit(1)
	}()

	cli.Run()
}

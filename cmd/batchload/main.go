package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/datatools-io/batchload/internal/cli"
	"github.com/datatools-io/batchload/pkg/batchload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(batchload.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(batchload.ExitCodeForError(err))
	}
}

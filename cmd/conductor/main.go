// File: cmd/conductor/main.go
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/xkilldash9x/conductor/cmd"
	"github.com/xkilldash9x/conductor/internal/observability"
)

const panicLogFile = "panic.log"

func main() {
	defer handlePanic()
	cmd.Execute()
}

// handlePanic writes a crash report to panic.log so an unattended service
// failure leaves something to diagnose.
func handlePanic() {
	if r := recover(); r != nil {
		observability.Sync()

		stackTrace := debug.Stack()
		panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, stackTrace)

		if err := os.WriteFile(panicLogFile, []byte(panicMessage), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
			fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "CRASH DETECTED. Details logged to %s\n", panicLogFile)
		os.Exit(1)
	}
}

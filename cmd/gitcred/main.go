package main

import (
	"os"
	"strings"

	"github.com/flarebyte/gitcred/cmd/gitcred/root"
	"github.com/flarebyte/gitcred/internal/dispatch"
)

type exitCoder interface {
	ExitCode() int
}

func main() {
	err := dispatch.Dispatch(os.Args, root.Run, func() {
		root.WriteUsage(os.Stderr)
	})
	if err != nil {
		// Print a short, single-line error to stderr on failures.
		// Do not print usage or stack traces.
		_, _ = os.Stderr.WriteString(errorLine(err) + "\n")
		os.Exit(exitCode(err))
	}
}

func errorLine(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if msg == "" {
		return "error"
	}
	return msg
}

// exitCode is the error's ExitCode when it has a non-zero one, else 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if ec, ok := err.(exitCoder); ok {
		if c := ec.ExitCode(); c != 0 {
			return c
		}
	}
	return 1
}

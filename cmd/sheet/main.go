package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries the process exit code for an error
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// main is the entrypoint for the sheet CLI.
func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run builds the command tree and executes args. kept separate from main
// so tests can drive the CLI with their own streams.
func run(inR io.Reader, outW, errW io.Writer, args []string) error {
	root := newRootCmd(inR, outW, errW)
	root.SetArgs(args)
	return root.Execute()
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"sweeper/internal/exitcodes"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitcodes.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "%s %v\n", color.RedString("error:"), ee.err)
		}
		return ee.code
	}
	// cobra usage errors: unknown flags, bad arguments
	fmt.Fprintf(stderr, "%s %v\n", color.RedString("error:"), err)
	return exitcodes.InvalidConfig
}

// exitError carries the exit code for a failed command. A nil err exits
// quietly; the command has already printed what went wrong.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

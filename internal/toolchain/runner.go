// Package toolchain runs the external programs a build needs: the C
// compiler, the assembler driver, llc and ar. Every invocation goes through
// a Runner so tests can record command lines instead of executing them.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes argv and reports its exit status and standard error. err
// is non-nil only when the program could not be started at all.
type Runner interface {
	Run(ctx context.Context, argv []string) (exit int, stderr string, err error)
}

// ExternalToolError is a program that ran and failed.
type ExternalToolError struct {
	Argv   []string
	Exit   int
	Stderr string
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("command failed with exit status %d: %s", e.Exit, strings.Join(e.Argv, " "))
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer // program output; discarded when nil
	Echo   io.Writer // when set, every command line is printed here first
}

func (r ExecRunner) Run(ctx context.Context, argv []string) (int, string, error) {
	if len(argv) == 0 {
		return 0, "", errors.New("toolchain: empty command")
	}
	if r.Echo != nil {
		if _, err := fmt.Fprintln(r.Echo, strings.Join(argv, " ")); err != nil {
			return 0, "", fmt.Errorf("failed to print command: %w", err)
		}
	}
	// #nosec G204 -- argv is assembled from configuration, not user input
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = r.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stderr.String(), nil
	}
	if err != nil {
		return -1, stderr.String(), fmt.Errorf("%s: %w", argv[0], err)
	}
	return 0, stderr.String(), nil
}

// Run executes argv with r and turns a nonzero exit into an
// *ExternalToolError.
func Run(ctx context.Context, r Runner, argv []string) error {
	exit, stderr, err := r.Run(ctx, argv)
	if err != nil {
		return err
	}
	if exit != 0 {
		return &ExternalToolError{Argv: argv, Exit: exit, Stderr: stderr}
	}
	return nil
}

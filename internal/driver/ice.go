package driver

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"viper/internal/ir"
	"viper/internal/passes"
	"viper/internal/trace"
)

// ICEBanner opens every internal compiler error report.
const ICEBanner = "Internal Compiler Error: Unhandled exception"

// ICE is an internal compiler error: a verifier rejection or a panic inside
// a stage. It is a compiler bug, never a user error.
type ICE struct {
	Err   error
	Stack []uintptr
}

func (e *ICE) Error() string { return e.Err.Error() }
func (e *ICE) Unwrap() error { return e.Err }

// Kind names the failure the way the report's last line does.
func (e *ICE) Kind() string {
	var (
		verr *ir.VerifyError
		perr *passes.PassError
		rerr runtime.Error
	)
	switch {
	case errors.As(e.Err, &perr):
		return "PassError"
	case errors.As(e.Err, &verr):
		return "VerificationError"
	case errors.As(e.Err, &rerr):
		return "RuntimeError"
	}
	return "InternalError"
}

// newICE captures the caller's stack. skip counts frames above newICE.
func newICE(err error, skip int) *ICE {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	return &ICE{Err: err, Stack: pcs[:n]}
}

// panicError turns a recovered value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// ICEOptions controls WriteICE.
type ICEOptions struct {
	NoBanner   bool
	Symbolize  bool
	Ring       *trace.RingTracer
	RingFormat trace.Format
}

// WriteICE prints the report: the banner, the frames (innermost last),
// then "Kind: message". The trace ring, if it holds anything, follows.
func WriteICE(w io.Writer, ice *ICE, opts ICEOptions) {
	if !opts.NoBanner {
		fmt.Fprintln(w, ICEBanner)
	}
	fmt.Fprintln(w, "Traceback (most recent call last):")
	frames := runtime.CallersFrames(ice.Stack)
	var lines []string
	for {
		f, more := frames.Next()
		if opts.Symbolize && f.Function != "" {
			lines = append(lines, fmt.Sprintf("  File %q, line %d, in %s", f.File, f.Line, f.Function))
		} else {
			lines = append(lines, fmt.Sprintf("  Binary file, local address: %#x", f.PC))
		}
		if !more {
			break
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		fmt.Fprintln(w, lines[i])
	}
	fmt.Fprintf(w, "%s: %v\n", ice.Kind(), ice.Err)

	if opts.Ring != nil && opts.Ring.Len() > 0 {
		fmt.Fprintln(w, "\nlast trace events:")
		if err := opts.Ring.Dump(w, opts.RingFormat); err != nil {
			fmt.Fprintf(w, "trace: dump failed: %v\n", err)
		}
	}
}

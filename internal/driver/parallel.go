package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"viper/internal/config"
	"viper/internal/trace"
)

// EntryPoint is the common shape of the per-file entry points.
type EntryPoint func(ctx context.Context, env *Env, path string, opts config.Options, out *bytes.Buffer) ExitCode

// Entry adapts one of EmitTokens, EmitAST, ... for CompileAll.
func Entry(fn func(context.Context, *Env, string, config.Options, io.Writer) ExitCode) EntryPoint {
	return func(ctx context.Context, env *Env, path string, opts config.Options, out *bytes.Buffer) ExitCode {
		return fn(ctx, env, path, opts, out)
	}
}

// UnitOutput is what one unit produced.
type UnitOutput struct {
	Path   string
	Stdout bytes.Buffer
	Stderr bytes.Buffer
	Exit   ExitCode
}

// CompileAll runs entry for every path. With opts.Jobs != 1 units run
// concurrently (Jobs <= 0 means one per CPU); every unit writes into its own
// buffers, which are copied to env.Stdout and env.Stderr in input order, so
// the output does not depend on scheduling. The result is the first
// non-zero status in input order.
func CompileAll(ctx context.Context, env *Env, paths []string, opts config.Options, entry EntryPoint) ExitCode {
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitConfig
	}
	ctx = env.attach(ctx)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "compile-all")
	outs := make([]*UnitOutput, len(paths))
	for i, p := range paths {
		outs[i] = &UnitOutput{Path: p}
		env.emit(Event{File: p, State: StateInit, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range paths {
		o := outs[i]
		g.Go(func() error {
			// каждый юнит пишет только в свои буферы
			unitEnv := env.withStreams(&o.Stdout, &o.Stderr)
			o.Exit = entry(gctx, unitEnv, o.Path, opts, &o.Stdout)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // units report through their ExitCode

	code := ExitOK
	for _, o := range outs {
		_, _ = env.Stdout.Write(o.Stdout.Bytes()) //nolint:errcheck
		_, _ = env.Stderr.Write(o.Stderr.Bytes()) //nolint:errcheck
		if code == ExitOK && o.Exit != ExitOK {
			code = o.Exit
		}
	}
	span.End(code.String())
	return code
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"viper/internal/backend"
	"viper/internal/config"
	"viper/internal/driver"
	"viper/internal/ui"
)

// stage is what one invocation produces.
type stage int

const (
	stageLink stage = iota
	stageTokens
	stageAST
	stageIR
	stageSource
	stageC
	stageLLVM
	stageShowAsm
	stageAsmFile
	stageObject
)

var stageFlags = []struct {
	name  string
	stage stage
}{
	{"show-tokens", stageTokens},
	{"show-ast", stageAST},
	{"show-ir", stageIR},
	{"show-source", stageSource},
	{"show-c", stageC},
	{"show-llvm", stageLLVM},
	{"show-asm", stageShowAsm},
	{"asm", stageAsmFile},
	{"compile", stageObject},
}

func selectStage(cmd *cobra.Command) (stage, error) {
	st := stageLink
	var set []string
	for _, f := range stageFlags {
		if on, _ := cmd.Flags().GetBool(f.name); on {
			st = f.stage
			set = append(set, "--"+f.name)
		}
	}
	if len(set) > 1 {
		return st, fmt.Errorf("only one of %s may be given", strings.Join(set, ", "))
	}
	return st, nil
}

// invocation is a parsed command line, shared by the root command and watch.
type invocation struct {
	env    *driver.Env
	opts   config.Options
	stage  stage
	inputs []string
	ui     progressMode
}

func newInvocation(cmd *cobra.Command, args []string) (*invocation, error) {
	env := driver.NewEnv()
	opts, err := loadOptions(cmd, env)
	if err != nil {
		return nil, err
	}
	st, err := selectStage(cmd)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("no input files")
	}
	if opts.Output != "" && len(args) > 1 && (st == stageObject || st == stageAsmFile) {
		return nil, errors.New("-o cannot be used with several inputs when writing one file per input")
	}
	switch st {
	case stageC:
		opts.Backend = "c"
	case stageLLVM:
		opts.Backend = "native"
	}
	return &invocation{env: env, opts: opts, stage: st, inputs: args, ui: progressModeOf(cmd.Flags())}, nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	if on, _ := cmd.Flags().GetBool("print-targets"); on {
		for _, t := range backend.Targets() {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	inv, err := newInvocation(cmd, args)
	if err != nil {
		return err
	}
	if code := inv.run(cmd.Context()); code != driver.ExitOK {
		return exitError{code}
	}
	return nil
}

func (inv *invocation) run(ctx context.Context) driver.ExitCode {
	env, opts := inv.env, inv.opts
	switch inv.stage {
	case stageLink:
		return inv.withProgress("build", func(env *driver.Env) driver.ExitCode {
			return driver.BuildExecutable(ctx, env, inv.inputs, opts, nil)
		})
	case stageObject:
		return inv.withProgress("compile", func(env *driver.Env) driver.ExitCode {
			return driver.CompileAll(ctx, env, inv.inputs, opts, driver.Entry(driver.CompileToObject))
		})
	case stageAsmFile:
		return driver.CompileAll(ctx, env, inv.inputs, opts, asmToFile)
	}

	var entry func(context.Context, *driver.Env, string, config.Options, io.Writer) driver.ExitCode
	switch inv.stage {
	case stageTokens:
		entry = driver.EmitTokens
	case stageAST:
		entry = driver.EmitAST
	case stageIR:
		entry = driver.EmitIR
	case stageShowAsm:
		entry = driver.EmitAsm
	default:
		entry = driver.EmitBackendSource
	}
	if opts.Output == "" || opts.SymtabOnly {
		return driver.CompileAll(ctx, env, inv.inputs, opts, driver.Entry(entry))
	}
	// nothing is created unless a unit actually writes
	out := &lazyFile{path: opts.Output}
	fileEnv := *env
	fileEnv.Stdout = out
	code := driver.CompileAll(ctx, &fileEnv, inv.inputs, opts, driver.Entry(entry))
	if err := out.Close(); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		if code == driver.ExitOK {
			code = driver.ExitIO
		}
	}
	return code
}

// asmToFile writes base.s (or -o) for one input.
func asmToFile(ctx context.Context, env *driver.Env, path string, opts config.Options, _ *bytes.Buffer) driver.ExitCode {
	out := &lazyFile{path: driver.OutputName(path, opts, ".s")}
	code := driver.EmitAsm(ctx, env, path, opts, out)
	if err := out.Close(); err != nil && code == driver.ExitOK {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		code = driver.ExitIO
	}
	return code
}

// withProgress runs work with the progress view when it is enabled. The
// view owns the terminal meanwhile, so diagnostics are held back and
// printed after it quits.
func (inv *invocation) withProgress(title string, work func(*driver.Env) driver.ExitCode) driver.ExitCode {
	var sources []string
	for _, in := range inv.inputs {
		if strings.EqualFold(filepath.Ext(in), driver.SourceExt) {
			sources = append(sources, in)
		}
	}
	if !inv.ui.draws(len(sources)) {
		return work(inv.env)
	}
	var held bytes.Buffer
	env := *inv.env
	env.Stderr = &held
	code, err := ui.RunWithProgress(os.Stdout, title, sources, func(sink driver.ProgressSink) driver.ExitCode {
		env.Progress = sink
		return work(&env)
	})
	if err != nil {
		fmt.Fprintf(inv.env.Stderr, "ui: %v\n", err)
	}
	_, _ = inv.env.Stderr.Write(held.Bytes()) //nolint:errcheck
	return code
}

// lazyFile creates path on the first Write.
type lazyFile struct {
	path string
	f    *os.File
	err  error
}

func (l *lazyFile) Write(p []byte) (int, error) {
	if l.f == nil && l.err == nil {
		l.f, l.err = os.Create(l.path)
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.f.Write(p)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return l.err
	}
	return l.f.Close()
}

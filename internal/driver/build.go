package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"viper/internal/backend"
	"viper/internal/config"
	"viper/internal/toolchain"
	"viper/internal/trace"
)

// DefaultExecutable is the link output when no -o is given.
const DefaultExecutable = "a.out"

// SourceExt marks inputs that are compiled; anything else given to
// BuildExecutable goes to the linker untouched.
const SourceExt = ".py"

// OutputName returns opts.Output, or base(path)+ext in the working directory.
func OutputName(path string, opts config.Options, ext string) string {
	if opts.Output != "" {
		return opts.Output
	}
	return moduleName(path) + ext
}

// CompileToObject compiles path into an object file named by OutputName.
// The generated text goes through a temporary file: LLVM IR to llc (or
// clang), C and assembly to the C compiler. out is unused; it is part of the
// common entry point signature.
func CompileToObject(ctx context.Context, env *Env, path string, opts config.Options, _ io.Writer) ExitCode {
	ctx, u, span, code := begin(ctx, env, path, opts, "object")
	if u == nil {
		return code
	}
	if u.generate(ctx, opts.Backend) {
		u.compileObject(ctx, OutputName(path, opts, ".o"))
	}
	return end(ctx, u, span)
}

// compileObject writes the artifact to a scratch file and assembles obj.
func (u *CompileUnit) compileObject(ctx context.Context, obj string) bool {
	return u.stage(ctx, "assemble", func(ctx context.Context) bool {
		if u.Artifact.Kind == backend.ArtifactObject {
			return u.writeOut(os.WriteFile(obj, u.Artifact.Bytes, 0o644))
		}
		dir, err := os.MkdirTemp("", "viper-*")
		if err != nil {
			return u.writeOut(err)
		}
		defer os.RemoveAll(dir)
		src := filepath.Join(dir, moduleName(u.Path)+u.Artifact.Ext)
		if err := os.WriteFile(src, []byte(u.Artifact.Text), 0o644); err != nil {
			return u.writeOut(err)
		}
		r := u.env.Runner
		if u.Artifact.Ext == ".ll" {
			err = toolchain.CompileIR(ctx, r, src, obj, u.target(), u.Opts.Fast)
		} else {
			err = toolchain.CompileSource(ctx, r, u.env.cc(u.Opts.CC), src, obj, u.Opts.Fast)
		}
		if err != nil {
			return u.toolFailed(err)
		}
		return true
	})
}

// toolFailed records a failing external program. A program that could not
// be started at all is reported the same way.
func (u *CompileUnit) toolFailed(err error) bool {
	u.ToolErr = err
	var tool *toolchain.ExternalToolError
	if !errors.As(err, &tool) {
		u.ToolErr = fmt.Errorf("external tool: %w", err)
	}
	return u.fail(ExitExternalTool, "toolchain")
}

// BuildExecutable compiles every .py input to an object, builds the runtime
// archive if needed and links everything into one executable. Other inputs
// (objects, archives, C files) are handed to the linker as they are.
func BuildExecutable(ctx context.Context, env *Env, inputs []string, opts config.Options, _ io.Writer) ExitCode {
	if len(inputs) == 0 {
		fmt.Fprintln(env.Stderr, "error: no input files")
		return ExitConfig
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitConfig
	}
	ctx = env.attach(ctx)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "build "+strings.Join(inputs, " "))
	defer span.End("")

	exe := opts.Output
	if exe == "" {
		exe = DefaultExecutable
	}
	scratch, err := os.MkdirTemp("", "viper-build-*")
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitIO
	}
	defer os.RemoveAll(scratch)

	objOpts := opts
	var objects []string
	for i, in := range inputs {
		if !strings.EqualFold(filepath.Ext(in), SourceExt) {
			objects = append(objects, in)
			continue
		}
		objOpts.Output = filepath.Join(scratch, fmt.Sprintf("%d_%s.o", i, moduleName(in)))
		if code := CompileToObject(ctx, env, in, objOpts, nil); code != ExitOK {
			return code
		}
		objects = append(objects, objOpts.Output)
	}

	u := NewUnit(env, exe, opts)
	u.State = StateGenerated
	u.stage(ctx, "link", func(ctx context.Context) bool {
		rtdir := env.runtimeDir(opts.RuntimeDir)
		cc := env.cc(opts.CC)
		if err := os.MkdirAll(rtdir, 0o755); err != nil {
			return u.writeOut(err)
		}
		if _, err := toolchain.EnsureRuntime(ctx, env.Runner, rtdir, cc, opts.Static); err != nil {
			return u.toolFailed(err)
		}
		err := toolchain.Link(ctx, env.Runner, toolchain.LinkConfig{
			CC:         cc,
			Output:     exe,
			Objects:    objects,
			RuntimeDir: rtdir,
			Static:     opts.Static,
			OpenMP:     opts.OpenMP,
		})
		if err != nil {
			return u.toolFailed(err)
		}
		u.advance(ctx, StateLinked, exe)
		return true
	})
	return u.Finish(ctx)
}

package driver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"viper/internal/backend"
	"viper/internal/config"
	"viper/internal/diag"
	"viper/internal/diagfmt"
	"viper/internal/modfile"
	"viper/internal/source"
	"viper/internal/trace"
	"viper/internal/version"
)

// begin validates opts and opens the driver span. A nil unit means the
// options were rejected and the returned code should be used as is.
func begin(ctx context.Context, env *Env, path string, opts config.Options, entry string) (context.Context, *CompileUnit, *trace.Span, ExitCode) {
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ctx, nil, nil, ExitConfig
	}
	ctx = env.attach(ctx)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, entry+" "+path)
	env.emit(Event{File: path, State: StateInit, Status: StatusWorking})
	return ctx, NewUnit(env, path, opts), span, ExitOK
}

// attach adds the env's ring to the tracer carried by ctx.
func (env *Env) attach(ctx context.Context) context.Context {
	if env.Ring == nil {
		return ctx
	}
	cur := trace.FromContext(ctx)
	if trace.RingOf(cur) == env.Ring {
		return ctx
	}
	if !cur.Enabled() {
		return trace.WithTracer(ctx, env.Ring)
	}
	level := max(cur.Level(), env.Ring.Level())
	return trace.WithTracer(ctx, trace.NewMultiTracer(level, cur, env.Ring))
}

func end(ctx context.Context, u *CompileUnit, span *trace.Span) ExitCode {
	code := u.Finish(ctx)
	span.End(code.String())
	return code
}

func renderBag(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts config.Options) {
	if opts.JSON {
		_ = diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			PathMode:         diagfmt.PathModeAuto,
			Max:              opts.MaxDiagnostics,
		})
		return
	}
	diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
		Color:     opts.Color,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
}

func pickleOpts(opts config.Options) diagfmt.PickleOpts {
	po := diagfmt.PickleOpts{Style: diagfmt.PickleFlat, Color: opts.Color}
	switch {
	case opts.Tree:
		po.Style = diagfmt.PickleTree
	case opts.Indent:
		po.Style = diagfmt.PickleIndent
	}
	return po
}

// writeOut reports a failed write to out as an I/O failure of the unit.
func (u *CompileUnit) writeOut(err error) bool {
	if err == nil {
		return true
	}
	diag.ReportError(u.reporter(), diag.IOLoadFileError, source.Span{}, "cannot write output: "+err.Error()).Emit()
	return u.fail(ExitIO, "write")
}

// EmitTokens prints the token stream, one token per line (a JSON array with
// opts.JSON). Tokens up to a lexical error are printed as well.
func EmitTokens(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer) ExitCode {
	ctx, u, span, code := begin(ctx, env, path, opts, "tokens")
	if u == nil {
		return code
	}
	if u.Load(ctx, nil) {
		u.Tokenize(ctx)
		if opts.JSON {
			u.writeOut(diagfmt.FormatTokensJSON(out, u.Tokens))
		} else {
			u.writeOut(diagfmt.FormatTokens(out, u.Tokens, diagfmt.TokenOpts{
				Offsets: opts.ShowLineNumbers,
				Color:   opts.Color,
			}))
		}
	}
	return end(ctx, u, span)
}

// EmitAST prints the syntax tree.
func EmitAST(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer) ExitCode {
	ctx, u, span, code := begin(ctx, env, path, opts, "ast")
	if u == nil {
		return code
	}
	if u.Load(ctx, nil) && u.Parse(ctx) {
		u.writeOut(diagfmt.Pickle(out, diagfmt.ASTNode(u.Builder, u.AST), pickleOpts(opts)))
	}
	return end(ctx, u, span)
}

// EmitIR prints the IR after the requested passes: opts.Pass alone in
// single-pass mode, opts.Passes otherwise. With SymtabOnly the interface
// file is written next to the source (or to opts.Output when it ends in
// .vmod) as well.
func EmitIR(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer) ExitCode {
	ctx, u, span, code := begin(ctx, env, path, opts, "ir")
	if u == nil {
		return code
	}
	names := opts.Passes
	if opts.Pass != "" {
		names = []string{opts.Pass}
	}
	if u.Load(ctx, nil) && u.Parse(ctx) && u.Lower(ctx) && u.RunPasses(ctx, names, false) {
		if u.writeOut(diagfmt.Pickle(out, diagfmt.IRNode(u.Module), pickleOpts(opts))) && opts.SymtabOnly {
			u.saveInterface(ctx)
		}
	}
	return end(ctx, u, span)
}

func (u *CompileUnit) saveInterface(ctx context.Context) bool {
	return u.stage(ctx, "interface", func(context.Context) bool {
		dst := modfile.PathFor(u.Path)
		if strings.HasSuffix(u.Opts.Output, modfile.Ext) {
			dst = u.Opts.Output
		}
		return u.writeOut(modfile.Save(dst, modfile.FromModule(u.Module, version.Version)))
	})
}

// EmitBackendSource prints what the selected backend generates: C source,
// LLVM IR text or assembly.
func EmitBackendSource(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer) ExitCode {
	return emitGenerated(ctx, env, path, opts, out, opts.Backend, "source")
}

// EmitAsm prints x86-64 assembly from the direct backend, whatever
// --backend says.
func EmitAsm(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer) ExitCode {
	return emitGenerated(ctx, env, path, opts, out, "x86", "asm")
}

func emitGenerated(ctx context.Context, env *Env, path string, opts config.Options, out io.Writer, selector, entry string) ExitCode {
	ctx, u, span, code := begin(ctx, env, path, opts, entry)
	if u == nil {
		return code
	}
	if u.generate(ctx, selector) {
		u.writeOut(writeArtifact(out, u.Artifact))
	}
	return end(ctx, u, span)
}

// generate runs every stage up to code generation.
func (u *CompileUnit) generate(ctx context.Context, selector string) bool {
	b, err := backend.Select(selector)
	if err != nil {
		u.ConfigErr = err
		return u.fail(ExitConfig, "backend")
	}
	return u.Load(ctx, nil) && u.Parse(ctx) && u.Lower(ctx) &&
		u.RunPasses(ctx, u.Opts.Passes, false) && u.Generate(ctx, b)
}

func writeArtifact(w io.Writer, a backend.Artifact) error {
	var err error
	if a.Kind == backend.ArtifactObject {
		_, err = w.Write(a.Bytes)
	} else {
		_, err = io.WriteString(w, a.Text)
	}
	return err
}

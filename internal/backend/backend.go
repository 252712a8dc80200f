// Package backend selects a code generator for a verified IR module.
//
// Every generator consumes the low-level subset of the IR: no for loops,
// comprehensions, displays, constructor calls, sections, element-wise array
// arithmetic or array prints. Lowering lists the passes that bring a module
// into that subset; the driver runs them after the passes the user asked for.
package backend

import (
	"context"
	"fmt"
	"slices"

	"viper/internal/backend/c"
	"viper/internal/backend/llvm"
	"viper/internal/backend/x86"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/passes"
	"viper/internal/trace"
)

// ArtifactKind distinguishes printable output from binary output.
type ArtifactKind uint8

const (
	ArtifactText ArtifactKind = iota
	ArtifactObject
)

// Artifact is what a backend produced for one module.
type Artifact struct {
	Kind  ArtifactKind
	Text  string
	Bytes []byte
	Ext   string // file extension including the dot
}

// Target describes the machine a module is compiled for.
type Target struct {
	Triple string
	Fast   bool
}

// DefaultTriple is used when no --target is given.
const DefaultTriple = "x86_64-pc-linux-gnu"

// targets is what --print-targets lists. Only the native backend honours a
// triple; the others always produce code for the host.
var targets = []string{
	"aarch64-apple-darwin",
	"aarch64-unknown-linux-gnu",
	"riscv64-unknown-linux-gnu",
	"x86_64-apple-darwin",
	"x86_64-pc-linux-gnu",
	"x86_64-pc-windows-msvc",
}

// Targets lists the accepted --target triples, sorted.
func Targets() []string { return slices.Clone(targets) }

// Backend turns a lowered module into an artifact. Unsupported constructs
// are reported through rep as GEN5xxx diagnostics and make the Result fail;
// the error return is reserved for internal failures.
type Backend interface {
	Name() string
	Lowering() []string
	Generate(ctx context.Context, m *ir.Module, t Target, rep diag.Reporter) (diag.Result[Artifact], error)
}

// lowering is shared by all generators; order matters, see passes.
var lowering = []string{
	passes.ImpliedLoops,
	passes.ClassConstructor,
	passes.ArraySlice,
	passes.ArrayOp,
	passes.PrintArr,
	passes.LoopLowering,
	passes.GlobalStmts,
}

var selectors = map[string]func() Backend{
	"native": newNative,
	"llvm":   newNative,
	"c":      newSource,
	"cpp":    newSource,
	"source": newSource,
	"x86":    newX86,
	"asm":    newX86,
}

// Names lists the accepted backend selectors, sorted.
func Names() []string {
	out := make([]string, 0, len(selectors))
	for name := range selectors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Select maps a selector to a backend. An unknown name is a
// *diag.ConfigError.
func Select(name string) (Backend, error) {
	mk, ok := selectors[name]
	if !ok {
		return nil, &diag.ConfigError{Option: "backend", Value: name, Valid: Names()}
	}
	return mk(), nil
}

// generate wraps an emitter with tracing and error counting.
func generate(ctx context.Context, name string, m *ir.Module, rep diag.Reporter, ext string,
	emit func(rep diag.Reporter) (string, error)) (diag.Result[Artifact], error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "codegen "+name, trace.CurrentSpan(ctx).SpanID)
	counter := &diag.CountingReporter{Next: rep}
	text, err := emit(counter)
	if err != nil {
		span.End("failed")
		return diag.Result[Artifact]{}, fmt.Errorf("%s backend: %w", name, err)
	}
	span.End(fmt.Sprintf("bytes=%d", len(text)))
	return diag.FromCounter(counter, Artifact{Kind: ArtifactText, Text: text, Ext: ext}), nil
}

type native struct{}

func newNative() Backend { return native{} }

func (native) Name() string       { return "llvm" }
func (native) Lowering() []string { return slices.Clone(lowering) }

func (native) Generate(ctx context.Context, m *ir.Module, t Target, rep diag.Reporter) (diag.Result[Artifact], error) {
	return generate(ctx, "llvm", m, rep, ".ll", func(rep diag.Reporter) (string, error) {
		return llvm.EmitModule(ctx, m, llvm.Options{Triple: t.Triple, Reporter: rep})
	})
}

type csource struct{}

func newSource() Backend { return csource{} }

func (csource) Name() string       { return "c" }
func (csource) Lowering() []string { return slices.Clone(lowering) }

func (csource) Generate(ctx context.Context, m *ir.Module, _ Target, rep diag.Reporter) (diag.Result[Artifact], error) {
	return generate(ctx, "c", m, rep, ".c", func(rep diag.Reporter) (string, error) {
		return c.EmitModule(ctx, m, rep)
	})
}

type asm struct{}

func newX86() Backend { return asm{} }

func (asm) Name() string       { return "x86" }
func (asm) Lowering() []string { return slices.Clone(lowering) }

func (asm) Generate(ctx context.Context, m *ir.Module, _ Target, rep diag.Reporter) (diag.Result[Artifact], error) {
	return generate(ctx, "x86", m, rep, ".s", func(rep diag.Reporter) (string, error) {
		return x86.EmitModule(ctx, m, rep)
	})
}

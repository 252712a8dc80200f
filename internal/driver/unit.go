package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"

	"viper/internal/ast"
	"viper/internal/backend"
	"viper/internal/config"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/lexer"
	"viper/internal/observ"
	"viper/internal/parser"
	"viper/internal/passes"
	"viper/internal/sema"
	"viper/internal/source"
	"viper/internal/token"
	"viper/internal/trace"
)

// CompileUnit ties one source file to everything derived from it. All AST
// and IR nodes live in arenas owned by Builder and Module and are released
// with the unit.
type CompileUnit struct {
	Path    string
	Opts    config.Options
	FileSet *source.FileSet
	File    *source.File
	Bag     *diag.Bag

	Tokens   []token.Token
	Builder  *ast.Builder
	AST      ast.FileID
	Module   *ir.Module
	Artifact backend.Artifact

	State   State
	History []Transition
	Timer   *observ.Timer

	ICE       *ICE
	ConfigErr error
	ToolErr   error
	exit      ExitCode
	env       *Env
	started   time.Time
}

// NewUnit creates a unit in StateInit.
func NewUnit(env *Env, path string, opts config.Options) *CompileUnit {
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = config.Default().MaxDiagnostics
	}
	return &CompileUnit{
		Path:    path,
		Opts:    opts,
		FileSet: source.NewFileSet(),
		Bag:     diag.NewBag(maxDiag),
		Timer:   observ.NewTimer(),
		env:     env,
		started: time.Now(),
	}
}

func (u *CompileUnit) reporter() diag.Reporter { return diag.BagReporter{Bag: u.Bag} }

// Failed reports whether the unit is in the absorbing Failed state.
func (u *CompileUnit) Failed() bool { return u.State == StateFailed }

// Exit is the unit's status: ExitOK unless a stage failed.
func (u *CompileUnit) Exit() ExitCode { return u.exit }

func (u *CompileUnit) advance(ctx context.Context, to State, note string) {
	if !canMove(u.State, to) {
		u.ice(fmt.Errorf("illegal driver transition %s -> %s", u.State, to), 1)
		return
	}
	u.History = append(u.History, Transition{From: u.State, To: to, At: time.Now(), Note: note})
	trace.Point(ctx, trace.ScopeModule, "state "+to.String(), u.Path)
	u.State = to
	status := StatusWorking
	if to == StateDone {
		status = StatusDone
	}
	u.env.emit(Event{File: u.Path, State: to, Status: status, Elapsed: time.Since(u.started)})
}

// fail moves the unit to Failed with status code. The first failure wins.
func (u *CompileUnit) fail(code ExitCode, note string) bool {
	if u.State == StateFailed {
		return false
	}
	u.History = append(u.History, Transition{From: u.State, To: StateFailed, At: time.Now(), Note: note})
	u.State = StateFailed
	u.exit = code
	u.env.emit(Event{File: u.Path, State: StateFailed, Status: StatusError, Exit: code, Elapsed: time.Since(u.started)})
	return false
}

// check fails the unit when the bag holds an error; the status follows the
// first error's category.
func (u *CompileUnit) check(note string) bool {
	if code := exitForBag(u.Bag); code != ExitOK {
		return u.fail(code, note)
	}
	return true
}

// ice records an internal compiler error and fails the unit.
func (u *CompileUnit) ice(err error, skip int) bool {
	if u.ICE == nil {
		u.ICE = newICE(err, skip+1)
	}
	code := ExitICE
	var perr *passes.PassError
	if errors.As(err, &perr) {
		code = ExitPass
	}
	return u.fail(code, err.Error())
}

// stage runs fn under a trace span and a timer phase, turning a panic into
// an ICE.
func (u *CompileUnit) stage(ctx context.Context, name string, fn func(ctx context.Context) bool) (ok bool) {
	if u.Failed() {
		return false
	}
	if err := ctx.Err(); err != nil {
		return u.ice(err, 1)
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, name)
	idx := u.Timer.Begin(name)
	defer func() {
		if r := recover(); r != nil {
			// the panicking frames are still on the stack here
			ok = u.ice(panicError(r), 2)
		}
		note := "ok"
		if !ok {
			note = "failed"
		}
		u.Timer.End(idx, note)
		span.End(note)
	}()
	return fn(ctx)
}

// Load reads the file, or takes text when it is non-nil (editor buffers).
func (u *CompileUnit) Load(ctx context.Context, text []byte) bool {
	return u.stage(ctx, "load", func(context.Context) bool {
		var id source.FileID
		if text != nil {
			id = u.FileSet.AddVirtual(u.Path, text)
		} else {
			var err error
			if id, err = u.FileSet.Load(u.Path); err != nil {
				diag.ReportError(u.reporter(), diag.IOLoadFileError, source.Span{},
					fmt.Sprintf("cannot read %s: %v", u.Path, err)).Emit()
				return u.fail(ExitIO, "load")
			}
		}
		u.File = u.FileSet.Get(id)
		return true
	})
}

// Tokenize scans the whole file into Tokens. The slice is kept even when a
// LexError was reported.
func (u *CompileUnit) Tokenize(ctx context.Context) bool {
	return u.stage(ctx, "tokenize", func(context.Context) bool {
		res := lexer.Tokenize(u.File, u.Bag)
		u.Tokens = res.Value
		if !res.OK {
			return u.fail(ExitLex, "tokenize")
		}
		u.advance(ctx, StateTokenized, fmt.Sprintf("tokens=%d", len(u.Tokens)))
		return true
	})
}

// Parse lexes and parses the file. The parser pulls tokens on demand, so a
// unit goes through Tokenized and Parsed in one stage.
func (u *CompileUnit) Parse(ctx context.Context) bool {
	return u.stage(ctx, "parse", func(ctx context.Context) bool {
		maxErrors, err := safecast.Conv[uint](u.Opts.MaxDiagnostics)
		if err != nil {
			maxErrors = 0
		}
		rep := u.reporter()
		lx := lexer.New(u.File, lexer.Options{Reporter: rep})
		u.Builder = ast.NewBuilder(ast.Hints{}, nil)
		res := parser.ParseFile(ctx, u.FileSet, lx, u.Builder, parser.Options{Reporter: rep, MaxErrors: maxErrors})
		u.AST = res.File
		if !u.check("parse") {
			return false
		}
		if !res.OK() {
			// errors past MaxErrors are counted but not reported
			return u.fail(ExitParse, "parse")
		}
		if u.State == StateInit {
			u.advance(ctx, StateTokenized, "")
		}
		u.advance(ctx, StateParsed, "")
		return true
	})
}

// Lower builds the IR module and verifies it. A verifier rejection is an ICE.
func (u *CompileUnit) Lower(ctx context.Context) bool {
	if !u.stage(ctx, "lower", func(ctx context.Context) bool {
		res := sema.Lower(ctx, u.AST, u.Builder, sema.Options{
			Reporter:   u.reporter(),
			Strict:     u.Opts.Strict,
			SymtabOnly: u.Opts.SymtabOnly,
			Name:       moduleName(u.Path),
			Path:       u.Path,
		})
		u.Module = res.Value
		if !res.OK {
			return u.check("lower") || u.fail(ExitSemantic, "lower")
		}
		u.advance(ctx, StateLowered, fmt.Sprintf("funcs=%d", len(u.Module.Funcs)))
		return true
	}) {
		return false
	}
	return u.stage(ctx, "verify", func(ctx context.Context) bool {
		if err := ir.Verify(u.Module); err != nil {
			return u.ice(err, 1)
		}
		u.advance(ctx, StateVerified, "")
		return true
	})
}

// RunPasses applies names in order. skipApplied is set for a backend's
// prerequisites so passes the user already ran are not repeated.
func (u *CompileUnit) RunPasses(ctx context.Context, names []string, skipApplied bool) bool {
	if len(names) == 0 {
		return !u.Failed()
	}
	return u.stage(ctx, "passes", func(ctx context.Context) bool {
		mgr, err := passes.NewManager(names, passes.Options{Reporter: u.reporter(), SkipApplied: skipApplied})
		if err != nil {
			u.ConfigErr = err
			return u.fail(ExitConfig, "passes")
		}
		res, err := mgr.Run(ctx, u.Module)
		if err != nil {
			return u.ice(err, 1)
		}
		if !res.OK {
			return u.check("passes") || u.fail(ExitPass, "passes")
		}
		u.advance(ctx, StatePassed, strings.Join(mgr.Names(), ","))
		return true
	})
}

// Generate lowers the module to the backend's subset and runs it.
func (u *CompileUnit) Generate(ctx context.Context, b backend.Backend) bool {
	if !u.RunPasses(ctx, b.Lowering(), true) {
		return false
	}
	return u.stage(ctx, "codegen", func(ctx context.Context) bool {
		res, err := b.Generate(ctx, u.Module, backend.Target{Triple: u.target(), Fast: u.Opts.Fast}, u.reporter())
		if err != nil {
			return u.ice(err, 1)
		}
		u.Artifact = res.Value
		if !res.OK {
			return u.check("codegen") || u.fail(ExitBackend, "codegen")
		}
		u.advance(ctx, StateGenerated, b.Name())
		return true
	})
}

func (u *CompileUnit) target() string {
	if u.Opts.Target != "" {
		return u.Opts.Target
	}
	if u.env != nil && u.env.DefaultTarget != "" {
		return u.env.DefaultTarget
	}
	return backend.DefaultTriple
}

// Finish renders what the unit accumulated to env.Stderr and returns its
// status. A unit that did not fail moves to Done.
func (u *CompileUnit) Finish(ctx context.Context) ExitCode {
	if !u.Failed() && u.State != StateDone {
		u.advance(ctx, StateDone, "")
	}
	w := u.env.Stderr
	if u.Opts.NoWarnings {
		u.Bag.DropWarnings()
	}
	if u.Bag.Len() > 0 {
		renderBag(w, u.Bag, u.FileSet, u.Opts)
	}
	switch {
	case u.ConfigErr != nil:
		fmt.Fprintf(w, "error: %v\n", u.ConfigErr)
	case u.ToolErr != nil:
		fmt.Fprintf(w, "error: %v\n", u.ToolErr)
	case u.ICE != nil:
		WriteICE(w, u.ICE, ICEOptions{
			NoBanner:   u.Opts.NoErrorBanner,
			Symbolize:  u.Opts.ShowStacktrace,
			Ring:       u.env.Ring,
			RingFormat: trace.FormatText,
		})
	}
	if u.Opts.TimeReport {
		fmt.Fprint(w, u.Timer.Summary())
	}
	return u.exit
}

// moduleName derives the IR module name from a path: dir/geo.py -> geo.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

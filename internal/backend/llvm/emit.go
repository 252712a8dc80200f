// Package llvm lowers viper IR to LLVM IR with github.com/llir/llvm.
//
// Every variable lives in an alloca (or a global) and is accessed through
// loads and stores; arrays and classes are first-class aggregate values, so
// whole-value copies are a single load and store.
package llvm

import (
	"context"
	"fmt"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Options configures EmitModule.
type Options struct {
	Triple   string
	Reporter diag.Reporter
}

type Emitter struct {
	m   *ir.Module
	tys *types.Interner
	tbl *symbols.Table
	rep diag.Reporter

	mod        *llir.Module
	runtimeFns map[string]*llir.Func
	funcs      map[symbols.SymbolID]*llir.Func
	globals    map[symbols.SymbolID]*llir.Global
	strs       map[string]*llir.Global
	typeCache  map[types.TypeID]lltypes.Type
}

type loopTargets struct {
	cond *llir.Block
	exit *llir.Block
}

type funcEmitter struct {
	emitter *Emitter
	fn      *ir.Func // nil for the generated main
	f       *llir.Func
	entry   *llir.Block
	cur     *llir.Block
	locals  map[symbols.SymbolID]value.Value
	loops   []loopTargets
	labels  int
}

// EmitModule renders m as LLVM IR text.
func EmitModule(ctx context.Context, m *ir.Module, opts Options) (string, error) {
	e := &Emitter{
		m:          m,
		tys:        m.Types,
		tbl:        m.Symbols,
		rep:        opts.Reporter,
		mod:        llir.NewModule(),
		runtimeFns: make(map[string]*llir.Func),
		funcs:      make(map[symbols.SymbolID]*llir.Func),
		globals:    make(map[symbols.SymbolID]*llir.Global),
		strs:       make(map[string]*llir.Global),
		typeCache:  make(map[types.TypeID]lltypes.Type),
	}
	e.mod.SourceFilename = m.Path
	e.mod.TargetTriple = opts.Triple

	e.prepareGlobals()
	e.prepareFunctions()
	for _, f := range m.Funcs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := e.emitFunction(f); err != nil {
			return "", err
		}
	}
	if e.wantsMain() {
		if err := e.emitMain(); err != nil {
			return "", err
		}
	}
	return e.mod.String(), nil
}

func (e *Emitter) prepareGlobals() {
	for _, sym := range e.m.Globals {
		ty := e.llType(e.symType(sym))
		g := e.mod.NewGlobalDef("g."+e.tbl.Name(sym), e.zeroValue(ty))
		g.Linkage = enum.LinkageInternal
		e.globals[sym] = g
	}
}

func (e *Emitter) prepareFunctions() {
	for _, f := range e.m.Funcs {
		params := make([]*llir.Param, len(f.Params))
		for i, p := range f.Params {
			params[i] = llir.NewParam("p."+e.tbl.Name(p), e.llType(e.symType(p)))
		}
		name := "f." + f.Name
		if f.Flags.HasFlag(ir.FuncCCallable) {
			name = f.Name
		}
		fn := e.mod.NewFunc(name, e.llType(f.Result), params...)
		if !f.Flags.HasFlag(ir.FuncCCallable) {
			fn.Linkage = enum.LinkageInternal
		}
		e.funcs[f.Sym] = fn
	}
}

func (e *Emitter) wantsMain() bool {
	for _, f := range e.m.Funcs {
		if f.Flags.HasFlag(ir.FuncCCallable) && f.Name == "main" {
			return false
		}
	}
	return true
}

func (e *Emitter) newFuncEmitter(fn *ir.Func, f *llir.Func) *funcEmitter {
	fe := &funcEmitter{
		emitter: e,
		fn:      fn,
		f:       f,
		locals:  make(map[symbols.SymbolID]value.Value),
	}
	fe.entry = f.NewBlock("entry")
	fe.cur = fe.entry
	return fe
}

func (e *Emitter) emitFunction(fn *ir.Func) error {
	f := e.funcs[fn.Sym]
	if f == nil {
		return fmt.Errorf("function %s was not declared", fn.Name)
	}
	fe := e.newFuncEmitter(fn, f)
	for i, p := range fn.Params {
		slot := fe.entry.NewAlloca(f.Params[i].Typ)
		slot.SetName("v." + e.tbl.Name(p))
		fe.entry.NewStore(f.Params[i], slot)
		fe.locals[p] = slot
	}
	for _, local := range fn.Locals {
		ty := e.llType(e.symType(local))
		slot := fe.entry.NewAlloca(ty)
		slot.SetName("v." + e.tbl.Name(local))
		fe.entry.NewStore(e.zeroValue(ty), slot)
		fe.locals[local] = slot
	}
	fe.block(fn.Body)
	fe.finish(e.llType(fn.Result))
	return nil
}

// emitMain runs module-level code, then the entry function.
func (e *Emitter) emitMain() error {
	f := e.mod.NewFunc("main", lltypes.I32)
	fe := e.newFuncEmitter(nil, f)
	fe.block(e.m.Body)
	if e.m.Entry.IsValid() {
		entry := e.funcs[e.m.Entry]
		if entry == nil {
			return fmt.Errorf("entry symbol %d has no function", e.m.Entry)
		}
		fe.cur.NewCall(entry)
	}
	if fe.cur.Term == nil {
		fe.cur.NewRet(constant.NewInt(lltypes.I32, 0))
	}
	return nil
}

// finish terminates the last block; falling off the end returns zero.
func (fe *funcEmitter) finish(ret lltypes.Type) {
	if fe.cur.Term != nil {
		return
	}
	if ret.Equal(lltypes.Void) {
		fe.cur.NewRet(nil)
		return
	}
	fe.cur.NewRet(fe.emitter.zeroValue(ret))
}

func (fe *funcEmitter) newBlock(prefix string) *llir.Block {
	fe.labels++
	return fe.f.NewBlock(fmt.Sprintf("%s.%d", prefix, fe.labels))
}

func (e *Emitter) symType(sym symbols.SymbolID) types.TypeID {
	if s := e.tbl.Symbols.Get(sym); s != nil {
		return s.Type
	}
	return types.NoTypeID
}

// str returns an i8* to a NUL-terminated private copy of s.
func (e *Emitter) str(s string) constant.Constant {
	g, ok := e.strs[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = e.mod.NewGlobalDef(fmt.Sprintf("str.%d", len(e.strs)), data)
		g.Immutable = true
		g.Linkage = enum.LinkagePrivate
		e.strs[s] = g
	}
	zero := constant.NewInt(lltypes.I64, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}

func (e *Emitter) report(code diag.Code, id ir.ExprID, msg string) {
	diag.ReportError(e.rep, code, e.m.Expr(id).Span, "LLVM backend: "+msg).Emit()
}

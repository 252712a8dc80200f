package ir

import (
	"fmt"
	"strings"

	"viper/internal/ast"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// Violation is one broken structural invariant.
type Violation struct {
	Span source.Span
	Msg  string
}

// VerifyError lists every violation found in a module. It signals a compiler
// bug, never a user error.
type VerifyError struct {
	Module     string
	Violations []Violation
}

func (e *VerifyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ir verification failed for module %q: %d violation(s)", e.Module, len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&sb, "\n  at %d:%d: %s", v.Span.Start, v.Span.End, v.Msg)
	}
	return sb.String()
}

// Verify checks the structural invariants of m: handles in range, name
// references resolvable through their scope chain, no references into dead
// scopes, expression types consistent with the typing rules, and loop/return
// context. It returns nil or a *VerifyError.
func Verify(m *Module) error {
	v := verifier{m: m, tys: m.Types}
	v.module()
	if err := m.Symbols.Validate(); err != nil {
		v.add(source.Span{}, "symbol table: %v", err)
	}
	if len(v.errs) == 0 {
		return nil
	}
	return &VerifyError{Module: m.Name, Violations: v.errs}
}

type verifier struct {
	m     *Module
	tys   *types.Interner
	errs  []Violation
	fn    *Func
	loops int
}

func (v *verifier) add(sp source.Span, format string, args ...any) {
	v.errs = append(v.errs, Violation{Span: sp, Msg: fmt.Sprintf(format, args...)})
}

func (v *verifier) module() {
	m := v.m
	if m.Symbols.IsDead(m.Scope) {
		v.add(source.Span{}, "module scope is dead")
	}
	for _, g := range m.Globals {
		v.symbolLive(g, source.Span{}, "global")
	}
	for _, f := range m.Funcs {
		v.function(f)
	}
	for _, c := range m.Classes {
		if m.Symbols.IsDead(c.Scope) {
			v.add(c.Span, "class %s has a dead scope", c.Name)
		}
		if info, ok := v.tys.ClassInfo(c.Type); !ok || len(info.Fields) != len(c.Fields) {
			v.add(c.Span, "class %s fields disagree with its type", c.Name)
		}
	}
	if m.Entry.IsValid() && m.Func(m.Entry) == nil {
		v.add(source.Span{}, "entry symbol %d has no function", m.Entry)
	}
	v.fn = nil
	v.block(m.Body, m.Scope)
}

func (v *verifier) function(f *Func) {
	tbl := v.m.Symbols
	if tbl.IsDead(f.Scope) {
		v.add(f.Span, "function %s has a dead scope", f.Name)
		return
	}
	sym := tbl.Symbols.Get(f.Sym)
	if sym == nil || sym.Kind != symbols.SymbolFunction {
		v.add(f.Span, "function %s has no function symbol", f.Name)
		return
	}
	if sym.Owns != f.Scope {
		v.add(f.Span, "function %s: symbol owns scope %d, body uses %d", f.Name, sym.Owns, f.Scope)
	}
	if len(f.Defaults) != 0 && len(f.Defaults) != len(f.Params) {
		v.add(f.Span, "function %s: %d defaults for %d params", f.Name, len(f.Defaults), len(f.Params))
	}
	for _, p := range append(append([]symbols.SymbolID(nil), f.Params...), f.Locals...) {
		ps := tbl.Symbols.Get(p)
		if ps == nil {
			v.add(f.Span, "function %s: missing local symbol %d", f.Name, p)
			continue
		}
		if !tbl.OnChain(ps.Scope, f.Scope) {
			v.add(ps.Span, "local %s is not declared under function %s", tbl.Name(p), f.Name)
		}
	}
	v.fn = f
	v.loops = 0
	v.block(f.Body, f.Scope)
}

func (v *verifier) block(body []StmtID, scope symbols.ScopeID) {
	for _, id := range body {
		v.stmt(id, scope)
	}
}

func (v *verifier) symbolLive(id symbols.SymbolID, sp source.Span, what string) *symbols.Symbol {
	sym := v.m.Symbols.Symbols.Get(id)
	if sym == nil {
		v.add(sp, "%s refers to unknown symbol %d", what, id)
		return nil
	}
	if v.m.Symbols.IsDead(sym.Scope) {
		v.add(sp, "%s refers to %s in a dead scope", what, v.m.Symbols.Name(id))
	}
	return sym
}

func (v *verifier) stmt(id StmtID, scope symbols.ScopeID) {
	s := v.m.Stmt(id)
	if s == nil {
		v.add(source.Span{}, "statement handle %d out of range", id)
		return
	}
	switch d := s.Data.(type) {
	case AssignData:
		v.expr(d.Target, scope)
		v.expr(d.Value, scope)
		v.assignTarget(s.Span, d.Target)
		v.sameType(s.Span, v.typeOf(d.Target), v.typeOf(d.Value), "assignment")
	case ExprStmtData:
		v.expr(d.Value, scope)
	case IfData:
		v.cond(d.Cond, scope)
		v.block(d.Then, scope)
		v.block(d.Else, scope)
	case WhileData:
		v.cond(d.Cond, scope)
		v.loops++
		v.block(d.Body, scope)
		v.loops--
	case ForData:
		v.forLoop(s.Span, d, scope)
	case ReturnData:
		v.ret(s.Span, d, scope)
	case PrintData:
		for _, a := range d.Args {
			v.expr(a, scope)
		}
		for _, opt := range []ExprID{d.Sep, d.End} {
			if opt.IsValid() {
				v.expr(opt, scope)
				v.sameType(s.Span, v.tys.Builtins().String, v.typeOf(opt), "print separator")
			}
		}
	case nil:
		if s.Kind != StmtBreak && s.Kind != StmtContinue {
			v.add(s.Span, "%s statement without payload", s.Kind)
		} else if v.loops == 0 {
			v.add(s.Span, "%s outside loop", s.Kind)
		}
	default:
		v.add(s.Span, "unknown statement payload %T", d)
	}
}

func (v *verifier) assignTarget(sp source.Span, target ExprID) {
	e := v.m.Expr(target)
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprName, ExprIndex, ExprField, ExprSection:
	default:
		v.add(sp, "cannot assign to %s", e.Kind)
	}
}

func (v *verifier) forLoop(sp source.Span, d ForData, scope symbols.ScopeID) {
	if d.Scope != scope {
		v.add(sp, "for loop scope %d differs from block scope %d", d.Scope, scope)
	}
	sym := v.symbolLive(d.Var, sp, "loop variable")
	if sym != nil && !v.m.Symbols.OnChain(scope, sym.Scope) {
		v.add(sp, "loop variable %s is not visible here", v.m.Symbols.Name(d.Var))
	}
	switch {
	case d.Iter.IsValid():
		v.expr(d.Iter, scope)
		it := v.typeOf(d.Iter)
		if !types.IsInvalid(it) && !v.tys.IsArray(it) {
			v.add(sp, "for loop iterates over non-array %s", v.tys.String(it))
		}
		if sym != nil && !types.IsInvalid(it) {
			v.sameType(sp, sym.Type, v.tys.Elem(it), "loop variable")
		}
	default:
		v.rangeExprs(sp, d.Range, scope, sym)
	}
	v.loops++
	v.block(d.Body, scope)
	v.loops--
}

func (v *verifier) rangeExprs(sp source.Span, r Range, scope symbols.ScopeID, counter *symbols.Symbol) {
	if !r.Stop.IsValid() {
		v.add(sp, "range without stop")
	}
	for _, b := range []ExprID{r.Start, r.Stop, r.Step} {
		if !b.IsValid() {
			continue
		}
		v.expr(b, scope)
		if counter != nil {
			v.sameType(sp, counter.Type, v.typeOf(b), "range bound")
		}
	}
}

func (v *verifier) ret(sp source.Span, d ReturnData, scope symbols.ScopeID) {
	if v.fn == nil {
		v.add(sp, "return outside function")
		return
	}
	if !d.Value.IsValid() {
		if v.fn.Result != v.tys.Builtins().None {
			v.add(sp, "bare return in %s returning %s", v.fn.Name, v.tys.String(v.fn.Result))
		}
		return
	}
	v.expr(d.Value, scope)
	v.sameType(sp, v.fn.Result, v.typeOf(d.Value), "return value")
}

func (v *verifier) cond(id ExprID, scope symbols.ScopeID) {
	v.expr(id, scope)
	if e := v.m.Expr(id); e != nil {
		v.sameType(e.Span, v.tys.Builtins().Bool, e.Type, "condition")
	}
}

func (v *verifier) typeOf(id ExprID) types.TypeID {
	if e := v.m.Expr(id); e != nil {
		return e.Type
	}
	return types.NoTypeID
}

func (v *verifier) sameType(sp source.Span, want, got types.TypeID, what string) {
	if types.IsInvalid(want) || types.IsInvalid(got) || want == got {
		return
	}
	v.add(sp, "%s: want %s, got %s", what, v.tys.String(want), v.tys.String(got))
}

func (v *verifier) expr(id ExprID, scope symbols.ScopeID) {
	e := v.m.Expr(id)
	if e == nil {
		v.add(source.Span{}, "expression handle %d out of range", id)
		return
	}
	inner := scope
	if d, ok := e.Data.(CompData); ok {
		inner = d.Scope
	}
	for _, c := range ExprChildren(e) {
		if d, ok := e.Data.(CompData); ok && c != d.Elt {
			v.expr(c, scope)
			continue
		}
		v.expr(c, inner)
	}
	v.exprType(e, scope)
}

//nolint:gocyclo // one case per expression kind
func (v *verifier) exprType(e *Expr, scope symbols.ScopeID) {
	tys, tbl := v.tys, v.m.Symbols
	switch d := e.Data.(type) {
	case nil:
		if e.Kind != ExprError || !types.IsInvalid(e.Type) {
			v.add(e.Span, "%s expression without payload", e.Kind)
		}
	case ConstData:
		ok := false
		switch d.Kind {
		case ConstInt:
			ok = tys.IsInt(e.Type)
		case ConstFloat:
			ok = tys.IsFloat(e.Type)
		case ConstBool:
			ok = e.Type == tys.Builtins().Bool
		case ConstStr:
			ok = e.Type == tys.Builtins().String
		case ConstNone:
			ok = e.Type == tys.Builtins().None
		}
		if !ok {
			v.add(e.Span, "constant typed %s", tys.String(e.Type))
		}
	case NameData:
		sym := v.symbolLive(d.Sym, e.Span, "name")
		if sym == nil {
			return
		}
		if d.Scope != scope {
			v.add(e.Span, "name %s records scope %d but occurs in %d", tbl.Name(d.Sym), d.Scope, scope)
		}
		if tbl.IsDead(d.Scope) {
			v.add(e.Span, "name %s occurs in a dead scope", tbl.Name(d.Sym))
		}
		if !tbl.OnChain(d.Scope, sym.Scope) {
			v.add(e.Span, "name %s is not visible from scope %d", tbl.Name(d.Sym), d.Scope)
		}
		v.sameType(e.Span, sym.Type, e.Type, "name "+tbl.Name(d.Sym))
	case UnaryData:
		want, ok := tys.UnaryResult(d.Op, v.typeOf(d.Operand))
		v.derived(e, want, ok)
	case BinaryData:
		want, ok := tys.BinaryResult(d.Op, v.typeOf(d.Left), v.typeOf(d.Right))
		v.derived(e, want, ok)
	case CompareData:
		if !tys.Comparable(d.Op, v.typeOf(d.Left), v.typeOf(d.Right)) {
			v.add(e.Span, "%s and %s are not comparable", tys.String(v.typeOf(d.Left)), tys.String(v.typeOf(d.Right)))
		}
		v.sameType(e.Span, tys.Builtins().Bool, e.Type, "comparison")
	case BoolOpData:
		for _, x := range []ExprID{d.Left, d.Right} {
			v.sameType(e.Span, tys.Builtins().Bool, v.typeOf(x), "boolean operand")
		}
		v.sameType(e.Span, tys.Builtins().Bool, e.Type, "boolean operation")
	case CallData:
		v.call(e, d)
	case CastData:
		if !tys.CastAllowed(e.Type, v.typeOf(d.Value)) {
			v.add(e.Span, "cannot convert %s to %s", tys.String(v.typeOf(d.Value)), tys.String(e.Type))
		}
	case IndexData:
		base := v.typeOf(d.Value)
		if !types.IsInvalid(base) && !tys.IsArray(base) {
			v.add(e.Span, "indexing non-array %s", tys.String(base))
			return
		}
		if it := v.typeOf(d.Index); !types.IsInvalid(it) && !tys.IsInt(it) {
			v.add(e.Span, "index typed %s", tys.String(it))
		}
		if !types.IsInvalid(base) {
			v.sameType(e.Span, tys.Elem(base), e.Type, "element")
		}
	case SectionData:
		base := v.typeOf(d.Value)
		if types.IsInvalid(base) {
			return
		}
		if !tys.IsArray(base) || !tys.IsArray(e.Type) || tys.Elem(base) != tys.Elem(e.Type) {
			v.add(e.Span, "section of %s typed %s", tys.String(base), tys.String(e.Type))
			return
		}
		if d.Step == 0 {
			v.add(e.Span, "section with zero step")
		} else if n := SectionLen(d.Lower, d.Upper, d.Step); n != int64(tys.ArrayLen(e.Type)) {
			v.add(e.Span, "section selects %d elements, typed %s", n, tys.String(e.Type))
		}
	case FieldData:
		base := v.typeOf(d.Value)
		if types.IsInvalid(base) {
			return
		}
		info, ok := tys.ClassInfo(base)
		if !ok || d.Field < 0 || d.Field >= len(info.Fields) {
			v.add(e.Span, "field %d of %s", d.Field, tys.String(base))
			return
		}
		v.sameType(e.Span, info.Fields[d.Field].Type, e.Type, "field "+info.Fields[d.Field].Name)
	case ArrayData:
		if !tys.IsArray(e.Type) || int(tys.ArrayLen(e.Type)) != len(d.Elems) {
			v.add(e.Span, "array display of %d elements typed %s", len(d.Elems), tys.String(e.Type))
			return
		}
		for _, el := range d.Elems {
			v.sameType(e.Span, tys.Elem(e.Type), v.typeOf(el), "array element")
		}
	case CompData:
		v.comp(e, d, scope)
	case ConstructData:
		info, ok := tys.ClassInfo(e.Type)
		if !ok || len(info.Fields) != len(d.Args) {
			v.add(e.Span, "constructor of %s with %d values", tys.String(e.Type), len(d.Args))
			return
		}
		for i, a := range d.Args {
			v.sameType(e.Span, info.Fields[i].Type, v.typeOf(a), "field "+info.Fields[i].Name)
		}
	default:
		v.add(e.Span, "unknown expression payload %T", d)
	}
}

func (v *verifier) derived(e *Expr, want types.TypeID, ok bool) {
	if !ok {
		v.add(e.Span, "%s operands do not type-check", e.Kind)
		return
	}
	v.sameType(e.Span, want, e.Type, e.Kind.String())
}

func (v *verifier) call(e *Expr, d CallData) {
	tbl := v.m.Symbols
	sym := v.symbolLive(d.Callee, e.Span, "call")
	if sym == nil {
		return
	}
	if sym.Kind != symbols.SymbolFunction {
		v.add(e.Span, "call of non-function %s", tbl.Name(d.Callee))
		return
	}
	if tbl.IsDead(sym.Owns) {
		v.add(e.Span, "call of removed function %s", tbl.Name(d.Callee))
	}
	info, ok := v.tys.FnInfo(sym.Type)
	if !ok {
		v.add(e.Span, "function %s has no signature", tbl.Name(d.Callee))
		return
	}
	if len(info.Params) != len(d.Args) {
		v.add(e.Span, "call of %s with %d args, want %d", tbl.Name(d.Callee), len(d.Args), len(info.Params))
		return
	}
	for i, a := range d.Args {
		v.sameType(e.Span, info.Params[i], v.typeOf(a), "argument")
	}
	v.sameType(e.Span, info.Result, e.Type, "call result")
}

func (v *verifier) comp(e *Expr, d CompData, scope symbols.ScopeID) {
	if !d.Range.Stop.IsValid() {
		v.add(e.Span, "range without stop")
	}
	tbl := v.m.Symbols
	sc := tbl.Scopes.Get(d.Scope)
	if sc == nil || sc.Kind != symbols.ScopeComprehension {
		v.add(e.Span, "comprehension without its own scope")
		return
	}
	if sc.Parent != scope {
		v.add(e.Span, "comprehension scope %d is not nested in %d", d.Scope, scope)
	}
	counter := v.symbolLive(d.Var, e.Span, "comprehension variable")
	if counter != nil && counter.Scope != d.Scope {
		v.add(e.Span, "comprehension variable declared outside its scope")
	}
	for _, b := range []ExprID{d.Range.Start, d.Range.Stop, d.Range.Step} {
		if t := v.typeOf(b); b.IsValid() && !types.IsInvalid(t) && !v.tys.IsInt(t) {
			v.add(e.Span, "range bound typed %s", v.tys.String(t))
		}
	}
	if counter != nil && d.Range.Stop.IsValid() {
		v.sameType(e.Span, counter.Type, v.typeOf(d.Range.Stop), "comprehension counter")
	}
	if !v.tys.IsArray(e.Type) {
		v.add(e.Span, "comprehension typed %s", v.tys.String(e.Type))
		return
	}
	v.sameType(e.Span, v.tys.Elem(e.Type), v.typeOf(d.Elt), "comprehension element")
	if n, ok := ConstRangeLen(v.m, d.Range); ok && n != int64(v.tys.ArrayLen(e.Type)) {
		v.add(e.Span, "comprehension yields %d elements, typed %s", n, v.tys.String(e.Type))
	}
}

// SectionLen returns how many elements lo:hi:step selects.
func SectionLen(lo, hi, step int64) int64 {
	switch {
	case step > 0 && hi > lo:
		return (hi - lo + step - 1) / step
	case step < 0 && lo > hi:
		return (lo - hi - step - 1) / -step
	}
	return 0
}

// ConstRangeLen returns the trip count of a range whose bounds are all
// integer constants.
func ConstRangeLen(m *Module, r Range) (int64, bool) {
	start, step := int64(0), int64(1)
	if r.Start.IsValid() {
		v, ok := ConstIntValue(m, r.Start)
		if !ok {
			return 0, false
		}
		start = v
	}
	if r.Step.IsValid() {
		v, ok := ConstIntValue(m, r.Step)
		if !ok || v == 0 {
			return 0, false
		}
		step = v
	}
	stop, ok := ConstIntValue(m, r.Stop)
	if !ok {
		return 0, false
	}
	return SectionLen(start, stop, step), true
}

// ConstIntValue folds an integer constant, allowing a leading minus.
func ConstIntValue(m *Module, id ExprID) (int64, bool) {
	e := m.Expr(id)
	if e == nil {
		return 0, false
	}
	switch d := e.Data.(type) {
	case ConstData:
		if d.Kind == ConstInt {
			return d.Int, true
		}
	case UnaryData:
		if x, ok := ConstIntValue(m, d.Operand); ok && d.Op == ast.OpNeg {
			return -x, true
		}
	case CastData:
		return ConstIntValue(m, d.Value)
	}
	return 0, false
}

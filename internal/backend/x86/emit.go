// Package x86 emits GNU assembler (AT&T syntax) for x86-64 System V.
//
// Only the integer subset is supported: every value is a 64-bit quantity
// in %rax, narrower integers are kept sign-extended, and expressions are
// evaluated as a push/pop stack machine. Every variable owns an 8-byte
// slot, on the stack for locals and in .bss for globals.
package x86

import (
	"context"
	"fmt"
	"strings"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// argRegs are the System V integer argument registers.
var argRegs = [...]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

type loopLabels struct {
	cond string
	exit string
}

type failKey struct {
	code diag.Code
	sp   source.Span
}

type emitter struct {
	m   *ir.Module
	tys *types.Interner
	tbl *symbols.Table
	rep diag.Reporter

	text   strings.Builder
	rodata strings.Builder
	strs   map[string]string
	labels int
	failed map[failKey]bool

	// per function
	body   strings.Builder
	slots  map[symbols.SymbolID]int
	frame  int
	depth  int
	loops  []loopLabels
	retLbl string
}

// EmitModule renders m as an assembly source file.
func EmitModule(ctx context.Context, m *ir.Module, rep diag.Reporter) (string, error) {
	e := &emitter{
		m:      m,
		tys:    m.Types,
		tbl:    m.Symbols,
		rep:    rep,
		strs:   make(map[string]string),
		failed: make(map[failKey]bool),
	}
	for _, f := range m.Funcs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		e.function(f)
	}
	if e.wantsMain() {
		e.mainFunc()
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# Generated by viper from %s.\n", m.Path)
	if len(m.Globals) > 0 {
		out.WriteString("\t.bss\n\t.align 8\n")
		for _, sym := range m.Globals {
			e.checkType(e.symType(sym), e.symSpan(sym), "global "+e.tbl.Name(sym))
			fmt.Fprintf(&out, "%s:\n\t.zero 8\n", e.globalName(sym))
		}
	}
	if e.rodata.Len() > 0 {
		out.WriteString("\t.section .rodata\n")
		out.WriteString(e.rodata.String())
	}
	out.WriteString("\t.text\n")
	out.WriteString(e.text.String())
	out.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")
	return out.String(), nil
}

func (e *emitter) wantsMain() bool {
	for _, f := range e.m.Funcs {
		if f.Flags.HasFlag(ir.FuncCCallable) && f.Name == "main" {
			return false
		}
	}
	return true
}

func (e *emitter) function(f *ir.Func) {
	e.begin()
	if len(f.Params) > len(argRegs) {
		e.fail(diag.GenTooManyArgs, f.Span,
			fmt.Sprintf("x86 backend: function %s takes %d parameters, at most %d are supported", f.Name, len(f.Params), len(argRegs)))
		return
	}
	if f.Result != e.tys.Builtins().None {
		e.checkType(f.Result, f.Span, "result of "+f.Name)
	}
	for i, p := range f.Params {
		ty := e.symType(p)
		e.checkType(ty, e.symSpan(p), "parameter "+e.tbl.Name(p))
		off := e.slot(p)
		e.ins("mov %s, %%rax", argRegs[i])
		e.narrow(ty)
		e.ins("mov %%rax, %d(%%rbp)", off)
	}
	for _, local := range f.Locals {
		e.checkType(e.symType(local), e.symSpan(local), "variable "+e.tbl.Name(local))
		e.ins("movq $0, %d(%%rbp)", e.slot(local))
	}
	e.block(f.Body)

	name := e.funcName(f.Sym)
	if f.Flags.HasFlag(ir.FuncCCallable) {
		fmt.Fprintf(&e.text, "\t.globl %s\n", name)
	}
	fmt.Fprintf(&e.text, "\t.type %s, @function\n", name)
	e.finish(name)
}

func (e *emitter) mainFunc() {
	e.begin()
	e.block(e.m.Body)
	if e.m.Entry.IsValid() {
		e.call(e.funcName(e.m.Entry))
	}
	e.text.WriteString("\t.globl main\n\t.type main, @function\n")
	e.finish("main")
}

func (e *emitter) begin() {
	e.body.Reset()
	e.slots = make(map[symbols.SymbolID]int)
	e.frame = 0
	e.depth = 0
	e.loops = nil
	e.retLbl = e.label("ret")
}

// finish wraps the buffered body in a prologue and an epilogue. Falling
// off the end returns zero.
func (e *emitter) finish(name string) {
	frame := (e.frame + 15) &^ 15
	fmt.Fprintf(&e.text, "%s:\n", name)
	e.text.WriteString("\tpush %rbp\n\tmov %rsp, %rbp\n")
	if frame > 0 {
		fmt.Fprintf(&e.text, "\tsub $%d, %%rsp\n", frame)
	}
	e.text.WriteString(e.body.String())
	e.text.WriteString("\txor %eax, %eax\n")
	fmt.Fprintf(&e.text, "%s:\n", e.retLbl)
	e.text.WriteString("\tleave\n\tret\n")
	fmt.Fprintf(&e.text, "\t.size %s, .-%s\n", name, name)
}

func (e *emitter) ins(format string, args ...any) {
	e.body.WriteByte('\t')
	fmt.Fprintf(&e.body, format, args...)
	e.body.WriteByte('\n')
}

func (e *emitter) place(label string) {
	fmt.Fprintf(&e.body, "%s:\n", label)
}

func (e *emitter) label(prefix string) string {
	e.labels++
	return fmt.Sprintf(".L%s%d", prefix, e.labels)
}

func (e *emitter) push() {
	e.ins("push %%rax")
	e.depth++
}

func (e *emitter) pop(reg string) {
	e.ins("pop %s", reg)
	e.depth--
}

// call keeps %rsp 16-byte aligned at the call instruction. Runtime
// functions go through the PLT.
func (e *emitter) call(name string) {
	if strings.HasPrefix(name, "viper_") {
		name += "@PLT"
	}
	if e.depth%2 == 1 {
		e.ins("sub $8, %%rsp")
		e.ins("call %s", name)
		e.ins("add $8, %%rsp")
		return
	}
	e.ins("call %s", name)
}

// slot returns the frame offset of sym, allocating it on first use.
func (e *emitter) slot(sym symbols.SymbolID) int {
	if off, ok := e.slots[sym]; ok {
		return off
	}
	e.frame += 8
	e.slots[sym] = -e.frame
	return -e.frame
}

// temp allocates an anonymous frame slot.
func (e *emitter) temp() int {
	e.frame += 8
	return -e.frame
}

// operand is the memory operand holding a variable.
func (e *emitter) operand(sym symbols.SymbolID) string {
	if off, ok := e.slots[sym]; ok {
		return fmt.Sprintf("%d(%%rbp)", off)
	}
	return e.globalName(sym) + "(%rip)"
}

func (e *emitter) globalName(sym symbols.SymbolID) string {
	return "g_" + mangle(e.tbl.Name(sym))
}

func (e *emitter) funcName(sym symbols.SymbolID) string {
	if f := e.m.Func(sym); f != nil && f.Flags.HasFlag(ir.FuncCCallable) {
		return f.Name
	}
	return "f_" + mangle(e.tbl.Name(sym))
}

func (e *emitter) symType(sym symbols.SymbolID) types.TypeID {
	if s := e.tbl.Symbols.Get(sym); s != nil {
		return s.Type
	}
	return types.NoTypeID
}

func (e *emitter) symSpan(sym symbols.SymbolID) source.Span {
	if s := e.tbl.Symbols.Get(sym); s != nil {
		return s.Span
	}
	return source.Span{}
}

// scalar reports whether ty fits the integer subset.
func (e *emitter) scalar(ty types.TypeID) bool {
	return e.tys.IsInt(ty) || ty == e.tys.Builtins().Bool
}

func (e *emitter) checkType(ty types.TypeID, sp source.Span, what string) {
	if !e.scalar(ty) {
		e.fail(diag.GenBadType, sp,
			fmt.Sprintf("x86 backend supports only integers and bools, %s has type %s", what, e.tys.String(ty)))
	}
}

// narrow re-sign-extends %rax after an operation of type ty.
func (e *emitter) narrow(ty types.TypeID) {
	tt, ok := e.tys.Lookup(ty)
	if !ok || tt.Kind != types.KindInt {
		return
	}
	switch tt.Width {
	case types.Width8:
		e.ins("movsbq %%al, %%rax")
	case types.Width16:
		e.ins("movswq %%ax, %%rax")
	case types.Width32:
		e.ins("movslq %%eax, %%rax")
	}
}

// str interns a constant string in .rodata.
func (e *emitter) str(s string) string {
	if l, ok := e.strs[s]; ok {
		return l
	}
	l := fmt.Sprintf(".Lstr%d", len(e.strs))
	e.strs[s] = l
	fmt.Fprintf(&e.rodata, "%s:\n\t.asciz %s\n", l, gasQuote(s))
	return l
}

// gasQuote spells s as a GNU as string literal.
func gasQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func mangle(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			fmt.Fprintf(&sb, "_u%04X", r)
		}
	}
	return sb.String()
}

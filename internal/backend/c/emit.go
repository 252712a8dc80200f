// Package c emits a self-contained C11 translation unit for a lowered module.
//
// Arrays are wrapped in structs so they copy, pass and return by value the
// way the source language assigns them. Names are prefixed by kind (g_ for
// globals, v_ for locals, f_ for functions) so no source name can collide
// with C keywords or the runtime; @ccallable functions keep their own name.
package c

import (
	"context"
	"fmt"
	"strings"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/symbols"
	"viper/internal/types"
)

const runtimeDecls = `void viper_print_i64(int64_t x);
void viper_print_f64(double x);
void viper_print_str(const char *s);
void viper_print_bool(int b);
const char *viper_str_concat(const char *a, const char *b);
int viper_str_cmp(const char *a, const char *b);
int64_t viper_ipow(int64_t a, int64_t b);
int64_t viper_ifloordiv(int64_t a, int64_t b);
int64_t viper_imod(int64_t a, int64_t b);
double viper_ffloordiv(double a, double b);
double viper_fmod(double a, double b);
`

type emitter struct {
	m   *ir.Module
	tys *types.Interner
	tbl *symbols.Table
	rep diag.Reporter

	typedefs  strings.Builder
	typeNames map[types.TypeID]string

	buf    strings.Builder
	indent int
	fn     *ir.Func
	tmp    int
}

// EmitModule renders m as C source. Constructs outside the low-level IR
// subset are reported as GenUnsupported.
func EmitModule(ctx context.Context, m *ir.Module, rep diag.Reporter) (string, error) {
	e := &emitter{
		m:         m,
		tys:       m.Types,
		tbl:       m.Symbols,
		rep:       rep,
		typeNames: make(map[types.TypeID]string),
	}
	var protos, globals, bodies strings.Builder

	for _, sym := range m.Globals {
		fmt.Fprintf(&globals, "static %s;\n", e.decl(e.symType(sym), e.varName(sym)))
	}
	for _, f := range m.Funcs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		protos.WriteString(e.signature(f))
		protos.WriteString(";\n")
		e.function(f)
		bodies.WriteString(e.buf.String())
		e.buf.Reset()
	}
	if e.wantsMain() {
		e.mainFunc()
		bodies.WriteString(e.buf.String())
		e.buf.Reset()
	}

	var out strings.Builder
	fmt.Fprintf(&out, "/* Generated by viper from %s. */\n", m.Path)
	out.WriteString("#include <math.h>\n#include <stdbool.h>\n#include <stdint.h>\n\n")
	out.WriteString(runtimeDecls)
	if e.typedefs.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(e.typedefs.String())
	}
	if protos.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(protos.String())
	}
	if globals.Len() > 0 {
		out.WriteString("\n")
		out.WriteString(globals.String())
	}
	out.WriteString(bodies.String())
	return out.String(), nil
}

// wantsMain is false only when the program exports its own main.
func (e *emitter) wantsMain() bool {
	for _, f := range e.m.Funcs {
		if f.Flags.HasFlag(ir.FuncCCallable) && f.Name == "main" {
			return false
		}
	}
	return true
}

func (e *emitter) mainFunc() {
	e.buf.WriteString("\nint main(void) {\n")
	e.indent = 1
	e.fn = nil
	e.block(e.m.Body)
	if e.m.Entry.IsValid() {
		e.line("%s();", e.funcName(e.m.Entry))
	}
	e.line("return 0;")
	e.indent = 0
	e.buf.WriteString("}\n")
}

func (e *emitter) signature(f *ir.Func) string {
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, e.decl(e.symType(p), e.varName(p)))
	}
	list := "void"
	if len(params) > 0 {
		list = strings.Join(params, ", ")
	}
	storage := "static "
	if f.Flags.HasFlag(ir.FuncCCallable) {
		storage = ""
	}
	return storage + e.decl(f.Result, e.funcName(f.Sym)+"("+list+")")
}

func (e *emitter) function(f *ir.Func) {
	e.fn = f
	e.tmp = 0
	fmt.Fprintf(&e.buf, "\n%s {\n", e.signature(f))
	e.indent = 1
	for _, local := range f.Locals {
		ty := e.symType(local)
		e.line("%s = %s;", e.decl(ty, e.varName(local)), e.zero(ty))
	}
	e.block(f.Body)
	if f.Result != e.tys.Builtins().None && !endsInReturn(e.m, f.Body) {
		e.line("return (%s)%s;", e.ctype(f.Result), e.zero(f.Result))
	}
	e.indent = 0
	e.buf.WriteString("}\n")
	e.fn = nil
}

func endsInReturn(m *ir.Module, body []ir.StmtID) bool {
	if len(body) == 0 {
		return false
	}
	return m.Stmt(body[len(body)-1]).Kind == ir.StmtReturn
}

func (e *emitter) line(format string, args ...any) {
	e.buf.WriteString(strings.Repeat("    ", e.indent))
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *emitter) symType(sym symbols.SymbolID) types.TypeID {
	if s := e.tbl.Symbols.Get(sym); s != nil {
		return s.Type
	}
	return types.NoTypeID
}

// ctype spells a type; aggregate types are defined on first use.
func (e *emitter) ctype(id types.TypeID) string {
	b := e.tys.Builtins()
	switch id {
	case b.None:
		return "void"
	case b.Bool:
		return "bool"
	case b.I8:
		return "int8_t"
	case b.I16:
		return "int16_t"
	case b.I32:
		return "int32_t"
	case b.I64:
		return "int64_t"
	case b.F32:
		return "float"
	case b.F64:
		return "double"
	case b.String:
		return "const char *"
	}
	if name, ok := e.typeNames[id]; ok {
		return name
	}
	tt, ok := e.tys.Lookup(id)
	if !ok {
		return "int"
	}
	switch tt.Kind {
	case types.KindArray:
		elem := e.ctype(tt.Elem)
		name := fmt.Sprintf("viper_arr%d", id)
		fmt.Fprintf(&e.typedefs, "typedef struct { %s a[%d]; } %s;\n", elem, tt.Count, name)
		e.typeNames[id] = name
		return name
	case types.KindClass:
		info, _ := e.tys.ClassInfo(id)
		fields := make([]string, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = e.decl(f.Type, "f_"+mangle(f.Name)) + ";"
		}
		name := "C_" + mangle(info.Name)
		fmt.Fprintf(&e.typedefs, "typedef struct { %s } %s;\n", strings.Join(fields, " "), name)
		e.typeNames[id] = name
		return name
	}
	return "int"
}

func (e *emitter) decl(ty types.TypeID, name string) string {
	t := e.ctype(ty)
	if strings.HasSuffix(t, "*") {
		return t + name
	}
	return t + " " + name
}

// zero is an initializer for a variable of type ty.
func (e *emitter) zero(ty types.TypeID) string {
	if ty == e.tys.Builtins().String {
		return `""`
	}
	return "{0}"
}

func (e *emitter) varName(sym symbols.SymbolID) string {
	s := e.tbl.Symbols.Get(sym)
	if s != nil && s.Flags&symbols.SymbolFlagGlobal != 0 {
		return "g_" + mangle(e.tbl.Name(sym))
	}
	return "v_" + mangle(e.tbl.Name(sym))
}

func (e *emitter) funcName(sym symbols.SymbolID) string {
	if f := e.m.Func(sym); f != nil && f.Flags.HasFlag(ir.FuncCCallable) {
		return mangle(f.Name)
	}
	return "f_" + mangle(e.tbl.Name(sym))
}

// mangle keeps ASCII identifier characters and spells everything else as
// _uXXXX.
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

func (e *emitter) unsupported(id ir.ExprID, what string) string {
	sp := e.m.Expr(id).Span
	diag.ReportError(e.rep, diag.GenUnsupported, sp, "C backend cannot generate "+what).Emit()
	return "0"
}

package c

import (
	"fmt"
	"strings"

	"viper/internal/diag"
	"viper/internal/ir"
)

func (e *emitter) block(body []ir.StmtID) {
	for _, id := range body {
		e.stmt(id)
	}
}

func (e *emitter) stmt(id ir.StmtID) {
	s := e.m.Stmt(id)
	switch d := s.Data.(type) {
	case ir.AssignData:
		e.line("%s = %s;", e.expr(d.Target), e.expr(d.Value))
	case ir.ExprStmtData:
		if e.m.Expr(d.Value).Kind == ir.ExprCall {
			e.line("%s;", e.expr(d.Value))
		} else {
			e.line("(void)%s;", e.expr(d.Value))
		}
	case ir.IfData:
		e.line("if (%s) {", e.expr(d.Cond))
		e.nested(d.Then)
		if len(d.Else) > 0 {
			e.line("} else {")
			e.nested(d.Else)
		}
		e.line("}")
	case ir.WhileData:
		e.line("while (%s) {", e.expr(d.Cond))
		e.nested(d.Body)
		e.line("}")
	case ir.ReturnData:
		if !d.Value.IsValid() || e.m.Expr(d.Value).Type == e.tys.Builtins().None {
			e.line("return;")
			return
		}
		e.line("return %s;", e.expr(d.Value))
	case ir.PrintData:
		e.print(d)
	default:
		switch s.Kind {
		case ir.StmtBreak:
			e.line("break;")
		case ir.StmtContinue:
			e.line("continue;")
		default:
			diag.ReportError(e.rep, diag.GenUnsupported, s.Span,
				fmt.Sprintf("C backend cannot generate %s statements", s.Kind)).Emit()
		}
	}
}

func (e *emitter) nested(body []ir.StmtID) {
	e.indent++
	e.block(body)
	e.indent--
}

// print evaluates every argument before writing anything, then writes them
// separated by sep and followed by end.
func (e *emitter) print(d ir.PrintData) {
	e.line("{")
	e.indent++
	b := e.tys.Builtins()
	vals := make([]string, len(d.Args))
	for i, a := range d.Args {
		e.tmp++
		vals[i] = fmt.Sprintf("p%d", e.tmp)
		e.line("%s = %s;", e.decl(e.m.Expr(a).Type, vals[i]), e.expr(a))
	}
	sep, end := `" "`, `"\n"`
	if d.Sep.IsValid() {
		sep = e.expr(d.Sep)
	}
	if d.End.IsValid() {
		end = e.expr(d.End)
	}
	if len(d.Args) > 1 {
		e.line("const char *sep = %s;", sep)
		sep = "sep"
	}
	for i, a := range d.Args {
		if i > 0 {
			e.line("viper_print_str(%s);", sep)
		}
		ty := e.m.Expr(a).Type
		switch {
		case ty == b.Bool:
			e.line("viper_print_bool(%s);", vals[i])
		case ty == b.String:
			e.line("viper_print_str(%s);", vals[i])
		case e.tys.IsInt(ty):
			e.line("viper_print_i64((int64_t)%s);", vals[i])
		case e.tys.IsFloat(ty):
			e.line("viper_print_f64((double)%s);", vals[i])
		default:
			e.unsupported(a, "a print of "+e.tys.String(ty))
		}
	}
	e.line("viper_print_str(%s);", end)
	e.indent--
	e.line("}")
}

// cQuote renders s as a C string literal. Octal escapes are used for
// everything outside printable ASCII so a following digit is never absorbed.
func cQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '?':
			// без триграфов
			sb.WriteString(`\?`)
		default:
			if c < 0x20 || c >= 0x7f {
				fmt.Fprintf(&sb, `\%03o`, c)
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

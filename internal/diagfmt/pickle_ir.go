package diagfmt

import (
	"strconv"
	"strings"

	"viper/internal/ir"
	"viper/internal/symbols"
)

// IRNode converts a lowered module into a dump tree. Symbols print by name,
// types by their source spelling.
func IRNode(m *ir.Module) *Node {
	c := irConv{m: m}
	root := N("Module", m.Name)
	for _, imp := range m.Imports {
		root.Add(N("Import", m.Symbols.Name(imp)))
	}
	for _, cl := range m.Classes {
		fields := make([]*Node, 0, len(cl.Fields))
		for _, f := range cl.Fields {
			fields = append(fields, c.sym("Field", f))
		}
		root.Add(N("Class", cl.Name).Add(fields...))
	}
	for _, g := range m.Globals {
		root.Add(c.sym("Global", g))
	}
	for _, f := range m.Funcs {
		root.Add(c.fn(f))
	}
	root.Add(List("body", c.stmts(m.Body)))
	if m.Entry.IsValid() {
		root.Add(N("entry", m.Symbols.Name(m.Entry)))
	}
	if len(m.Applied) > 0 {
		root.Add(N("passes", m.Applied...))
	}
	return root
}

type irConv struct{ m *ir.Module }

func (c irConv) ty(sym symbols.SymbolID) string {
	s := c.m.Symbols.Symbols.Get(sym)
	if s == nil {
		return "<invalid>"
	}
	return c.m.Types.String(s.Type)
}

func (c irConv) sym(tag string, sym symbols.SymbolID) *Node {
	return N(tag, c.m.Symbols.Name(sym), c.ty(sym))
}

func (c irConv) fn(f *ir.Func) *Node {
	n := N("Function", f.Name)
	if flags := strings.TrimSpace(f.Flags.String()); flags != "" {
		n.Fields = append(n.Fields, strings.Fields(flags)...)
	}
	params := make([]*Node, 0, len(f.Params))
	for i, p := range f.Params {
		pn := c.sym("Param", p)
		if i < len(f.Defaults) && f.Defaults[i].IsValid() {
			pn.Add(c.expr(f.Defaults[i]))
		}
		params = append(params, pn)
	}
	locals := make([]*Node, 0, len(f.Locals))
	for _, l := range f.Locals {
		locals = append(locals, c.sym("Local", l))
	}
	return n.Add(
		List("params", params),
		N("result", c.m.Types.String(f.Result)),
		List("locals", locals),
		List("body", c.stmts(f.Body)),
	)
}

func (c irConv) stmts(ids []ir.StmtID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.stmt(id))
	}
	return out
}

func (c irConv) exprs(ids []ir.ExprID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.expr(id))
	}
	return out
}

func (c irConv) opt(id ir.ExprID) *Node {
	if !id.IsValid() {
		return none()
	}
	return c.expr(id)
}

func (c irConv) rng(r ir.Range) *Node {
	return N("range").Add(c.opt(r.Start), c.opt(r.Stop), c.opt(r.Step))
}

func (c irConv) stmt(id ir.StmtID) *Node {
	s := c.m.Stmt(id)
	if s == nil {
		return N("?")
	}
	switch d := s.Data.(type) {
	case ir.AssignData:
		return N("Assign").Add(c.expr(d.Target), c.expr(d.Value))
	case ir.ExprStmtData:
		return N("ExprStmt").Add(c.expr(d.Value))
	case ir.IfData:
		return N("If").Add(c.expr(d.Cond), List("then", c.stmts(d.Then)), List("else", c.stmts(d.Else)))
	case ir.WhileData:
		return N("While").Add(c.expr(d.Cond), List("body", c.stmts(d.Body)))
	case ir.ForData:
		n := N("For", c.m.Symbols.Name(d.Var))
		if d.Iter.IsValid() {
			n.Add(N("in").Add(c.expr(d.Iter)))
		} else {
			n.Add(c.rng(d.Range))
		}
		return n.Add(List("body", c.stmts(d.Body)))
	case ir.ReturnData:
		return N("Return").Add(c.opt(d.Value))
	case ir.PrintData:
		return N("Print").Add(List("args", c.exprs(d.Args)), c.opt(d.Sep), c.opt(d.End))
	default:
		return N(s.Kind.String())
	}
}

func (c irConv) expr(id ir.ExprID) *Node {
	e := c.m.Expr(id)
	if e == nil {
		return N("?")
	}
	ty := c.m.Types.String(e.Type)
	switch d := e.Data.(type) {
	case ir.ConstData:
		switch d.Kind {
		case ir.ConstInt:
			return N("Const", ty, strconv.FormatInt(d.Int, 10))
		case ir.ConstFloat:
			return N("Const", ty, strconv.FormatFloat(d.Float, 'g', -1, 64))
		case ir.ConstBool:
			return N("Const", ty, strconv.FormatBool(d.Bool))
		case ir.ConstStr:
			return N("Const", ty, strconv.Quote(d.Str))
		default:
			return N("Const", ty)
		}
	case ir.NameData:
		return N("Var", c.m.Symbols.Name(d.Sym), ty)
	case ir.UnaryData:
		return N("UnaryOp", d.Op.String(), ty).Add(c.expr(d.Operand))
	case ir.BinaryData:
		return N("BinOp", d.Op.String(), ty).Add(c.expr(d.Left), c.expr(d.Right))
	case ir.CompareData:
		return N("Compare", d.Op.String(), ty).Add(c.expr(d.Left), c.expr(d.Right))
	case ir.BoolOpData:
		return N("BoolOp", d.Op.String(), ty).Add(c.expr(d.Left), c.expr(d.Right))
	case ir.CallData:
		return N("Call", c.m.Symbols.Name(d.Callee), ty).Add(c.exprs(d.Args)...)
	case ir.CastData:
		return N("Cast", ty).Add(c.expr(d.Value))
	case ir.IndexData:
		return N("Index", ty).Add(c.expr(d.Value), c.expr(d.Index))
	case ir.SectionData:
		return N("Section", ty,
			strconv.FormatInt(d.Lower, 10), strconv.FormatInt(d.Upper, 10), strconv.FormatInt(d.Step, 10),
		).Add(c.expr(d.Value))
	case ir.FieldData:
		name := strconv.Itoa(d.Field)
		if base := c.m.Expr(d.Value); base != nil {
			if info, ok := c.m.Types.ClassInfo(base.Type); ok && d.Field < len(info.Fields) {
				name = info.Fields[d.Field].Name
			}
		}
		return N("Field", name, ty).Add(c.expr(d.Value))
	case ir.ArrayData:
		return N("Array", ty).Add(c.exprs(d.Elems)...)
	case ir.CompData:
		return N("Comp", ty, c.m.Symbols.Name(d.Var)).Add(c.rng(d.Range), c.expr(d.Elt))
	case ir.ConstructData:
		return N("Construct", ty).Add(c.exprs(d.Args)...)
	default:
		return N(e.Kind.String(), ty)
	}
}

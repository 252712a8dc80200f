package diagfmt

import (
	"strconv"

	"viper/internal/ast"
	"viper/internal/source"
)

// ASTNode converts a parsed file into a dump tree. Absent optional children
// print as `()`.
func ASTNode(b *ast.Builder, file ast.FileID) *Node {
	f := b.Files.Get(file)
	if f == nil {
		return N("Module")
	}
	c := astConv{b: b}
	return List("Module", c.stmts(f.Body))
}

type astConv struct{ b *ast.Builder }

func none() *Node { return &Node{Tag: ""} }

func (c astConv) stmts(ids []ast.StmtID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.stmt(id))
	}
	return out
}

func (c astConv) optExpr(id ast.ExprID) *Node {
	if !id.IsValid() {
		return none()
	}
	return c.expr(id)
}

func (c astConv) exprs(ids []ast.ExprID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.expr(id))
	}
	return out
}

func (c astConv) stmt(id ast.StmtID) *Node {
	stmts := c.b.Stmts
	s := stmts.Get(id)
	if s == nil {
		return N("?")
	}
	switch s.Kind {
	case ast.StmtExpr:
		return N("Expr").Add(c.expr(stmts.ExprStmt(id).Value))
	case ast.StmtAssign:
		d := stmts.Assign(id)
		return N("Assign").Add(c.expr(d.Target), c.expr(d.Value))
	case ast.StmtAnnAssign:
		d := stmts.AnnAssign(id)
		return N("AnnAssign").Add(c.expr(d.Target), c.expr(d.Annotation), c.optExpr(d.Value))
	case ast.StmtAugAssign:
		d := stmts.AugAssign(id)
		return N("AugAssign", d.Op.String()).Add(c.expr(d.Target), c.expr(d.Value))
	case ast.StmtIf:
		d := stmts.If(id)
		return N("If").Add(c.expr(d.Cond), List("body", c.stmts(d.Body)), List("orelse", c.stmts(d.Orelse)))
	case ast.StmtWhile:
		d := stmts.While(id)
		return N("While").Add(c.expr(d.Cond), List("body", c.stmts(d.Body)))
	case ast.StmtFor:
		d := stmts.For(id)
		return N("For").Add(c.expr(d.Target), c.expr(d.Iter), List("body", c.stmts(d.Body)))
	case ast.StmtReturn:
		return N("Return").Add(c.optExpr(stmts.Return(id).Value))
	case ast.StmtFunctionDef:
		d := stmts.FunctionDef(id)
		params := make([]*Node, 0, len(d.Params))
		for _, p := range d.Params {
			params = append(params, N(p.Kind.String(), c.b.Name(p.Name)).Add(c.optExpr(p.Annotation), c.optExpr(p.Default)))
		}
		return N("FunctionDef", c.b.Name(d.Name)).Add(
			List("args", params),
			List("body", c.stmts(d.Body)),
			List("decorators", c.exprs(d.Decorators)),
			c.optExpr(d.Returns),
		)
	case ast.StmtClassDef:
		d := stmts.ClassDef(id)
		return N("ClassDef", c.b.Name(d.Name)).Add(
			List("body", c.stmts(d.Body)),
			List("decorators", c.exprs(d.Decorators)),
		)
	case ast.StmtImport:
		return List("Import", c.aliases(stmts.Import(id).Names))
	case ast.StmtImportFrom:
		d := stmts.ImportFrom(id)
		return N("ImportFrom", c.b.Name(d.Module)).Add(c.aliases(d.Names)...)
	default:
		// Bad, Pass, Break, Continue
		return N(s.Kind.String())
	}
}

func (c astConv) aliases(names []ast.Alias) []*Node {
	out := make([]*Node, 0, len(names))
	for _, a := range names {
		n := N("alias", c.b.Name(a.Name))
		if a.AsName != source.NoStringID {
			n.Fields = append(n.Fields, c.b.Name(a.AsName))
		}
		out = append(out, n)
	}
	return out
}

func (c astConv) expr(id ast.ExprID) *Node {
	exprs := c.b.Exprs
	e := exprs.Get(id)
	if e == nil {
		return N("?")
	}
	switch e.Kind {
	case ast.ExprName:
		return N("Name", c.b.Name(exprs.Name(id).Name))
	case ast.ExprConst:
		d := exprs.Const(id)
		switch d.Kind {
		case ast.ConstStr:
			return N("ConstantStr", strconv.Quote(d.Str))
		case ast.ConstInt:
			return N("ConstantInt", d.Raw)
		case ast.ConstFloat:
			return N("ConstantFloat", d.Raw)
		case ast.ConstNone:
			return N("ConstantNone")
		default:
			return N("ConstantBool", d.Raw)
		}
	case ast.ExprBinary:
		d := exprs.Binary(id)
		return N("BinOp", d.Op.String()).Add(c.expr(d.Left), c.expr(d.Right))
	case ast.ExprBoolOp:
		d := exprs.BoolOpOf(id)
		return N("BoolOp", d.Op.String()).Add(c.expr(d.Left), c.expr(d.Right))
	case ast.ExprUnary:
		d := exprs.Unary(id)
		return N("UnaryOp", d.Op.String()).Add(c.expr(d.Operand))
	case ast.ExprCompare:
		d := exprs.Compare(id)
		n := N("Compare")
		for _, op := range d.Ops {
			n.Fields = append(n.Fields, op.String())
		}
		return n.Add(c.exprs(d.Operands)...)
	case ast.ExprCall:
		d := exprs.Call(id)
		args := make([]*Node, 0, len(d.Args))
		for _, a := range d.Args {
			switch a.Kind {
			case ast.ArgKeyword:
				args = append(args, N("keyword", c.b.Name(a.Name)).Add(c.expr(a.Value)))
			case ast.ArgStar:
				args = append(args, N("Starred").Add(c.expr(a.Value)))
			case ast.ArgDoubleStar:
				args = append(args, N("DoubleStarred").Add(c.expr(a.Value)))
			default:
				args = append(args, c.expr(a.Value))
			}
		}
		return N("Call").Add(c.expr(d.Func)).Add(args...)
	case ast.ExprAttribute:
		d := exprs.Attribute(id)
		return N("Attribute", c.b.Name(d.Attr)).Add(c.expr(d.Value))
	case ast.ExprSubscript:
		d := exprs.Subscript(id)
		return N("Subscript").Add(c.expr(d.Value), c.expr(d.Index))
	case ast.ExprSlice:
		d := exprs.Slice(id)
		return N("Slice").Add(c.optExpr(d.Lower), c.optExpr(d.Upper), c.optExpr(d.Step))
	case ast.ExprList:
		return List("List", c.exprs(exprs.List(id).Elts))
	case ast.ExprListComp:
		d := exprs.ListComp(id)
		return N("ListComp").Add(c.expr(d.Elt), c.expr(d.Target), c.expr(d.Iter))
	default:
		return N(e.Kind.String())
	}
}

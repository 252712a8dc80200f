package passes

import (
	"context"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/source"
	"viper/internal/symbols"
	"viper/internal/types"
)

// printArr rewrites a print of an array into prints of its elements. The
// output matches Python's list repr: `[1, 2, 3]`, strings quoted, nested
// arrays recursively. Scalar arguments next to an array keep one print.
type printArr struct{}

func (printArr) Name() string { return PrintArr }

func (printArr) Run(_ context.Context, m *ir.Module, _ diag.Reporter) error {
	eachBody(m, func(r *rewriter, body []ir.StmtID) []ir.StmtID {
		return ir.RewriteBlocks(m, body, func(id ir.StmtID) []ir.StmtID {
			s := *m.Stmt(id)
			d, ok := s.Data.(ir.PrintData)
			if !ok || !r.printsArray(d) {
				return []ir.StmtID{id}
			}
			return r.expandPrint(d, s.Span)
		})
	})
	return nil
}

func (r *rewriter) printsArray(d ir.PrintData) bool {
	for _, a := range d.Args {
		if r.m.Types.IsArray(r.typeOf(a)) {
			return true
		}
	}
	return false
}

func (r *rewriter) expandPrint(d ir.PrintData, sp source.Span) []ir.StmtID {
	var out []ir.StmtID
	// sep and end are read several times
	once := func(id ir.ExprID, def string) func() ir.ExprID {
		switch {
		case !id.IsValid():
			return func() ir.ExprID { return r.m.ConstStr(def, sp) }
		case r.stable(id):
			return func() ir.ExprID { return r.clone(id) }
		}
		t := r.temp("s", r.builtins().String, sp)
		out = append(out, r.m.Assign(r.name(t, sp), id, sp))
		return func() ir.ExprID { return r.name(t, sp) }
	}
	sep := once(d.Sep, " ")
	end := once(d.End, "\n")

	var group []ir.ExprID
	flush := func(last bool) {
		if len(group) == 0 {
			return
		}
		tail := sep
		if last {
			tail = end
		}
		out = append(out, r.print(group, sep(), tail(), sp))
		group = nil
	}
	for i, a := range d.Args {
		last := i == len(d.Args)-1
		ty := r.typeOf(a)
		if !r.m.Types.IsArray(ty) {
			group = append(group, a)
			if last {
				flush(true)
			}
			continue
		}
		flush(false)
		if !r.stable(a) {
			t := r.temp("arr", ty, sp)
			out = append(out, r.m.Assign(r.name(t, sp), a, sp))
			a = r.name(t, sp)
		}
		out = append(out, r.printArray(a, ty, sp)...)
		tail := sep
		if last {
			tail = end
		}
		out = append(out, r.print(nil, ir.NoExprID, tail(), sp))
	}
	return out
}

// print builds print(*args, sep=sep, end=end).
func (r *rewriter) print(args []ir.ExprID, sep, end ir.ExprID, sp source.Span) ir.StmtID {
	return r.m.NewStmt(ir.Stmt{Kind: ir.StmtPrint, Span: sp, Data: ir.PrintData{Args: args, Sep: sep, End: end}})
}

func (r *rewriter) text(s string, sp source.Span) ir.ExprID { return r.m.ConstStr(s, sp) }

// printArray prints `[e0, e1, ...]` without a trailing end. arr is a stable
// path and is cloned per use.
func (r *rewriter) printArray(arr ir.ExprID, ty types.TypeID, sp source.Span) []ir.StmtID {
	n := int64(r.m.Types.ArrayLen(ty))
	elemTy := r.m.Types.Elem(ty)
	i32 := r.builtins().I32
	at := func(idx ir.ExprID) ir.ExprID { return r.m.Index(elemTy, r.clone(arr), idx, sp) }

	out := []ir.StmtID{r.print(nil, ir.NoExprID, r.text("[", sp), sp)}
	if n > 1 {
		out = append(out, r.countedLoop(n-1, sp, func(k symbols.SymbolID) []ir.StmtID {
			return r.printElem(at(r.name(k, sp)), elemTy, ", ", sp)
		}))
	}
	out = append(out, r.printElem(at(r.intConst(i32, n-1, sp)), elemTy, "]", sp)...)
	return out
}

func (r *rewriter) printElem(elem ir.ExprID, ty types.TypeID, tail string, sp source.Span) []ir.StmtID {
	switch {
	case r.m.Types.IsArray(ty):
		out := r.printArray(elem, ty, sp)
		return append(out, r.print(nil, ir.NoExprID, r.text(tail, sp), sp))
	case ty == r.builtins().String:
		args := []ir.ExprID{r.text("'", sp), elem, r.text("'", sp)}
		return []ir.StmtID{r.print(args, r.text("", sp), r.text(tail, sp), sp)}
	}
	return []ir.StmtID{r.print([]ir.ExprID{elem}, ir.NoExprID, r.text(tail, sp), sp)}
}

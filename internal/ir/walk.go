package ir

// ExprChildren returns the operand handles of e in evaluation order.
func ExprChildren(e *Expr) []ExprID {
	switch d := e.Data.(type) {
	case UnaryData:
		return []ExprID{d.Operand}
	case BinaryData:
		return []ExprID{d.Left, d.Right}
	case CompareData:
		return []ExprID{d.Left, d.Right}
	case BoolOpData:
		return []ExprID{d.Left, d.Right}
	case CallData:
		return d.Args
	case CastData:
		return []ExprID{d.Value}
	case IndexData:
		return []ExprID{d.Value, d.Index}
	case SectionData:
		return []ExprID{d.Value}
	case FieldData:
		return []ExprID{d.Value}
	case ArrayData:
		return d.Elems
	case CompData:
		return nonEmpty(d.Range.Start, d.Range.Stop, d.Range.Step, d.Elt)
	case ConstructData:
		return d.Args
	}
	return nil
}

// StmtExprs returns the expressions owned directly by s (not by nested blocks).
func StmtExprs(s *Stmt) []ExprID {
	switch d := s.Data.(type) {
	case AssignData:
		return []ExprID{d.Target, d.Value}
	case ExprStmtData:
		return []ExprID{d.Value}
	case IfData:
		return []ExprID{d.Cond}
	case WhileData:
		return []ExprID{d.Cond}
	case ForData:
		return nonEmpty(d.Range.Start, d.Range.Stop, d.Range.Step, d.Iter)
	case ReturnData:
		return nonEmpty(d.Value)
	case PrintData:
		return append(nonEmpty(d.Sep, d.End), d.Args...)
	}
	return nil
}

// StmtBlocks returns the nested statement lists of s.
func StmtBlocks(s *Stmt) [][]StmtID {
	switch d := s.Data.(type) {
	case IfData:
		return [][]StmtID{d.Then, d.Else}
	case WhileData:
		return [][]StmtID{d.Body}
	case ForData:
		return [][]StmtID{d.Body}
	}
	return nil
}

func nonEmpty(ids ...ExprID) []ExprID {
	out := ids[:0:0]
	for _, id := range ids {
		if id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

// WalkExpr visits id and its operands in preorder. Returning false from fn
// skips the operands of that node. fn must not allocate IR nodes.
func WalkExpr(m *Module, id ExprID, fn func(ExprID, *Expr) bool) {
	e := m.Expr(id)
	if e == nil || !fn(id, e) {
		return
	}
	for _, child := range ExprChildren(e) {
		WalkExpr(m, child, fn)
	}
}

// WalkStmts visits every statement of body and of nested blocks in preorder.
// Returning false skips the nested blocks of that statement.
func WalkStmts(m *Module, body []StmtID, fn func(StmtID, *Stmt) bool) {
	for _, id := range body {
		s := m.Stmt(id)
		if s == nil || !fn(id, s) {
			continue
		}
		for _, block := range StmtBlocks(s) {
			WalkStmts(m, block, fn)
		}
	}
}

// WalkBodyExprs visits every expression reachable from body.
func WalkBodyExprs(m *Module, body []StmtID, fn func(ExprID, *Expr) bool) {
	WalkStmts(m, body, func(_ StmtID, s *Stmt) bool {
		for _, e := range StmtExprs(s) {
			WalkExpr(m, e, fn)
		}
		return true
	})
}

// setBlocks stores rewritten nested blocks back into s, in StmtBlocks order.
func setBlocks(s *Stmt, blocks [][]StmtID) {
	switch d := s.Data.(type) {
	case IfData:
		d.Then, d.Else = blocks[0], blocks[1]
		s.Data = d
	case WhileData:
		d.Body = blocks[0]
		s.Data = d
	case ForData:
		d.Body = blocks[0]
		s.Data = d
	}
}

// RewriteBlocks rewrites body bottom-up: nested blocks are rewritten first,
// then fn maps each statement of the current block to its replacement list.
// fn may allocate.
func RewriteBlocks(m *Module, body []StmtID, fn func(StmtID) []StmtID) []StmtID {
	out := make([]StmtID, 0, len(body))
	for _, id := range body {
		blocks := StmtBlocks(m.Stmt(id))
		if len(blocks) > 0 {
			rewritten := make([][]StmtID, len(blocks))
			for i, b := range blocks {
				rewritten[i] = RewriteBlocks(m, b, fn)
			}
			setBlocks(m.Stmt(id), rewritten)
		}
		out = append(out, fn(id)...)
	}
	return out
}

// MapExpr rewrites the tree rooted at id bottom-up: operands are mapped first
// and stored back, then fn decides the replacement of the node itself.
func MapExpr(m *Module, id ExprID, fn func(ExprID) ExprID) ExprID {
	e := m.Expr(id)
	if e == nil {
		return id
	}
	children := ExprChildren(e)
	if len(children) > 0 {
		mapped := make([]ExprID, len(children))
		for i, c := range children {
			mapped[i] = MapExpr(m, c, fn)
		}
		SetChildren(m.Expr(id), mapped)
	}
	return fn(id)
}

// SetChildren stores c back into the operand slots of e, in ExprChildren order.
func SetChildren(e *Expr, c []ExprID) {
	switch d := e.Data.(type) {
	case UnaryData:
		d.Operand = c[0]
		e.Data = d
	case BinaryData:
		d.Left, d.Right = c[0], c[1]
		e.Data = d
	case CompareData:
		d.Left, d.Right = c[0], c[1]
		e.Data = d
	case BoolOpData:
		d.Left, d.Right = c[0], c[1]
		e.Data = d
	case CallData:
		d.Args = c
		e.Data = d
	case CastData:
		d.Value = c[0]
		e.Data = d
	case IndexData:
		d.Value, d.Index = c[0], c[1]
		e.Data = d
	case SectionData:
		d.Value = c[0]
		e.Data = d
	case FieldData:
		d.Value = c[0]
		e.Data = d
	case ArrayData:
		d.Elems = c
		e.Data = d
	case CompData:
		i := 0
		for _, slot := range []*ExprID{&d.Range.Start, &d.Range.Stop, &d.Range.Step, &d.Elt} {
			if slot.IsValid() {
				*slot = c[i]
				i++
			}
		}
		e.Data = d
	case ConstructData:
		d.Args = c
		e.Data = d
	}
}

// MapStmtExprs applies MapExpr to every expression owned directly by s.
func MapStmtExprs(m *Module, id StmtID, fn func(ExprID) ExprID) {
	s := m.Stmt(id)
	switch d := s.Data.(type) {
	case AssignData:
		d.Target = MapExpr(m, d.Target, fn)
		d.Value = MapExpr(m, d.Value, fn)
		m.Stmt(id).Data = d
	case ExprStmtData:
		d.Value = MapExpr(m, d.Value, fn)
		m.Stmt(id).Data = d
	case IfData:
		d.Cond = MapExpr(m, d.Cond, fn)
		m.Stmt(id).Data = d
	case WhileData:
		d.Cond = MapExpr(m, d.Cond, fn)
		m.Stmt(id).Data = d
	case ForData:
		d.Range.Start = mapOpt(m, d.Range.Start, fn)
		d.Range.Stop = mapOpt(m, d.Range.Stop, fn)
		d.Range.Step = mapOpt(m, d.Range.Step, fn)
		d.Iter = mapOpt(m, d.Iter, fn)
		m.Stmt(id).Data = d
	case ReturnData:
		d.Value = mapOpt(m, d.Value, fn)
		m.Stmt(id).Data = d
	case PrintData:
		args := make([]ExprID, len(d.Args))
		for i, a := range d.Args {
			args[i] = MapExpr(m, a, fn)
		}
		d.Args = args
		d.Sep = mapOpt(m, d.Sep, fn)
		d.End = mapOpt(m, d.End, fn)
		m.Stmt(id).Data = d
	}
}

func mapOpt(m *Module, id ExprID, fn func(ExprID) ExprID) ExprID {
	if !id.IsValid() {
		return id
	}
	return MapExpr(m, id, fn)
}

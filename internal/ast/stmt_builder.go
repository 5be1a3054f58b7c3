package ast

import "quaintlang/internal/cst"

func (b *Builder) buildBlock(n *cst.Node) *Block {
	blk := &Block{stmtBase: stmtBase{Sp: n.Span()}}
	for _, c := range n.Children {
		blk.Stmts = append(blk.Stmts, b.buildStmt(c))
	}
	return blk
}

func (b *Builder) buildStmt(n *cst.Node) Stmt {
	switch n.Tag {
	case cst.TagBlock:
		return b.buildBlock(n)
	case cst.TagNointBlock:
		return &NointBlock{stmtBase: stmtBase{Sp: n.Span()}, Body: b.buildBlock(n.Children[0])}
	case cst.TagVarDecl:
		return b.buildVarDecl(n, false)
	case cst.TagIf:
		return b.buildIf(n)
	case cst.TagWhile:
		return &While{
			stmtBase: stmtBase{Sp: n.Span()},
			Cond:     b.buildExpr(n.Children[0]),
			Body:     b.buildBlock(n.Children[1]),
		}
	case cst.TagDoWhile:
		return &DoWhile{
			stmtBase: stmtBase{Sp: n.Span()},
			Body:     b.buildBlock(n.Children[0]),
			Cond:     b.buildExpr(n.Children[1]),
		}
	case cst.TagReturn:
		r := &Return{stmtBase: stmtBase{Sp: n.Span()}}
		if len(n.Children) > 0 {
			r.Value = b.buildExpr(n.Children[0])
		}
		return r
	case cst.TagWaitLabel:
		return &WaitLabelStmt{stmtBase: stmtBase{Sp: n.Span()}, Name: n.Children[0].Tok.Lexeme}
	case cst.TagWait:
		return b.buildWait(n)
	case cst.TagExprStmt:
		return &ExprStmt{stmtBase: stmtBase{Sp: n.Span()}, X: b.buildExpr(n.Children[0])}
	}
	b.bag.Error(n.Span(), "malformed statement")
	return &ExprStmt{stmtBase: stmtBase{Sp: n.Span()}}
}

func (b *Builder) buildIf(n *cst.Node) *If {
	stmt := &If{
		stmtBase: stmtBase{Sp: n.Span()},
		Cond:     b.buildExpr(n.Children[0]),
		Then:     b.buildBlock(n.Children[1]),
	}
	for _, c := range n.Children[2:] {
		switch c.Tag {
		case cst.TagElif:
			stmt.Elifs = append(stmt.Elifs, ElifClause{
				Cond: b.buildExpr(c.Children[0]),
				Body: b.buildBlock(c.Children[1]),
			})
		case cst.TagElse:
			stmt.Else = b.buildBlock(c.Children[0])
		}
	}
	return stmt
}

// buildWait converts both wait forms (spec.md §3/§4.4): `wait q until
// F::L [noblock];` and `wait q for N (msec|sec) [noblock];`.
func (b *Builder) buildWait(n *cst.Node) *WaitStmt {
	w := &WaitStmt{stmtBase: stmtBase{Sp: n.Span()}, Quaint: b.buildExpr(n.Children[0])}
	spec := n.Children[1]
	switch spec.Tag {
	case cst.TagWaitUntil:
		w.Kind = WaitUntilLabel
		w.UntilFunc = spec.Children[0].Tok.Lexeme
		w.UntilLabel = spec.Children[1].Tok.Lexeme
	case cst.TagWaitFor:
		w.Kind = WaitForTimeout
		w.TimeoutExpr = b.buildExpr(spec.Children[0])
		w.TimeUnit = spec.Tok.Lexeme
	}
	w.Noblock = spec.Op == "noblock"
	return w
}

package check

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/diag"
	"quaintlang/internal/types"
)

// checkBlock type-checks every statement in b against b's own scope
// (attached by internal/ast's scope builder), which already chains
// outward to the enclosing block/function/unit scope for lookup.
func (c *Checker) checkBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		c.checkStmt(s, b.Scope)
		if c.bag.Status() == diag.OutOfMemory {
			return
		}
	}
}

func (c *Checker) checkStmt(s ast.Stmt, scope *ast.Scope) {
	switch n := s.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(n, scope)
	case *ast.Block:
		c.checkBlock(n)
	case *ast.NointBlock:
		c.checkBlock(n.Body)
	case *ast.If:
		c.checkExprExpect(n.Cond, scope, "if condition")
		c.checkBlock(n.Then)
		for i := range n.Elifs {
			c.checkExprExpect(n.Elifs[i].Cond, scope, "elif condition")
			c.checkBlock(n.Elifs[i].Body)
		}
		if n.Else != nil {
			c.checkBlock(n.Else)
		}
	case *ast.While:
		c.checkExprExpect(n.Cond, scope, "while condition")
		c.checkBlock(n.Body)
	case *ast.DoWhile:
		c.checkBlock(n.Body)
		c.checkExprExpect(n.Cond, scope, "do-while condition")
	case *ast.Return:
		c.checkReturn(n, scope)
	case *ast.WaitLabelStmt:
		// pure landmark; nothing to type-check.
	case *ast.WaitStmt:
		c.checkWait(n, scope)
	case *ast.ExprStmt:
		c.checkExpr(n.X, scope)
	}
}

func (c *Checker) checkExprExpect(e ast.Expr, scope *ast.Scope, what string) *types.Descriptor {
	t := c.checkExpr(e, scope)
	if t == nil {
		return nil
	}
	if !types.IsInteger(t.Kind) && !types.IsPointerLike(t.Kind) {
		c.bag.Error(e.Span(), "%s must be a scalar integer, pointer, or quaint value", what)
	}
	return t
}

func (c *Checker) checkReturn(r *ast.Return, scope *ast.Scope) {
	fn := c.curFunc
	if fn.ReturnType == nil {
		if r.Value != nil {
			c.checkExpr(r.Value, scope)
			c.bag.Error(r.Span(), "void function %q must not return a value", fn.Name)
		}
		return
	}
	if r.Value == nil {
		c.bag.Error(r.Span(), "function %q must return a value of type %s", fn.Name, fn.ReturnType)
		return
	}
	vt := c.checkExpr(r.Value, scope)
	if vt != nil && !types.Equal(vt, fn.ReturnType) {
		c.bag.Error(r.Value.Span(), "returned value of type %s does not match function return type %s", vt, fn.ReturnType)
	}
}

func (c *Checker) checkWait(w *ast.WaitStmt, scope *ast.Scope) {
	qt := c.checkExpr(w.Quaint, scope)
	if qt != nil && qt.Kind != types.Quaint {
		c.bag.Error(w.Quaint.Span(), "wait requires a quaint operand, found %s", qt)
	}
	switch w.Kind {
	case ast.WaitUntilLabel:
		target, ok := c.funcs[w.UntilFunc]
		if !ok {
			c.bag.Error(w.Span(), "wait until: unknown function %q", w.UntilFunc)
			return
		}
		id := target.Labels.IDFor(w.UntilLabel)
		if id < 0 {
			c.bag.Error(w.Span(), "wait until: function %q has no label %q", w.UntilFunc, w.UntilLabel)
			return
		}
		w.FuncID = target.ID
		w.LabelID = id
	case ast.WaitForTimeout:
		tt := c.checkExpr(w.TimeoutExpr, scope)
		if tt != nil && !types.IsUnsigned(tt.Kind) {
			c.bag.Error(w.TimeoutExpr.Span(), "wait for: timeout must be an unsigned integer, found %s", tt)
		}
	}
}

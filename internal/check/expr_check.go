package check

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/types"
)

// checkExpr visits e, resolving names and attaching/quantifying e's type
// per every rule in spec.md §4.3. It always returns a non-nil descriptor
// (types.New(types.Void) on error) so callers can keep composing without
// nil-checking at every level; the diagnostic, not a nil return, is the
// error signal.
func (c *Checker) checkExpr(e ast.Expr, scope *ast.Scope) *types.Descriptor {
	t := c.checkExprInner(e, scope)
	if t == nil {
		t = types.New(types.Void)
	}
	if !c.quantify(t) {
		return t
	}
	e.SetType(t)
	return t
}

func (c *Checker) checkExprInner(e ast.Expr, scope *ast.Scope) *types.Descriptor {
	switch n := e.(type) {
	case *ast.NameExpr:
		return c.checkName(n, scope)
	case *ast.NumberExpr:
		return smallestUnsigned(n.Value)
	case *ast.StringExpr:
		return &types.Descriptor{Kind: types.Ptr, Count: 1, Subtype: types.New(types.U8)}
	case *ast.BinaryExpr:
		return c.checkBinary(n, scope)
	case *ast.UnaryExpr:
		return c.checkUnary(n, scope)
	case *ast.PostfixExpr:
		return c.checkPostfix(n, scope)
	case *ast.CallExpr:
		return c.checkCall(n, scope)
	case *ast.IndexExpr:
		return c.checkIndex(n, scope)
	case *ast.MemberExpr:
		return c.checkMember(n, scope)
	case *ast.TernaryExpr:
		return c.checkTernary(n, scope)
	case *ast.CastExpr:
		return c.checkCast(n, scope)
	case *ast.QuaintAtExpr:
		return c.checkAt(n, scope)
	case *ast.QuaintExpr:
		return c.checkQuaintExpr(n, scope)
	}
	return types.New(types.Void)
}

// smallestUnsigned picks the smallest unsigned type from spec.md §4.3 that
// contains v.
func smallestUnsigned(v uint64) *types.Descriptor {
	switch {
	case v <= 0xFF:
		return types.New(types.U8)
	case v <= 0xFFFF:
		return types.New(types.U16)
	case v <= 0xFFFFFFFF:
		return types.New(types.U32)
	default:
		return types.New(types.U64)
	}
}

func (c *Checker) checkName(n *ast.NameExpr, scope *ast.Scope) *types.Descriptor {
	obj := ast.FindObject(scope, n.Name, n.Sp.Begin.Pos)
	if obj == nil {
		c.bag.Error(n.Span(), "undefined name %q", n.Name)
		return types.New(types.Void)
	}
	n.Obj = obj
	switch obj.Kind {
	case ast.ObjBuiltinConst:
		return obj.Type
	case ast.ObjParam:
		return obj.Type
	case ast.ObjGlobalVar, ast.ObjAutoVar:
		vd, ok := obj.Decl.(*ast.VarDecl)
		if !ok {
			c.bag.Error(n.Span(), "%q does not name a variable", n.Name)
			return types.New(types.Void)
		}
		return vd.Type
	case ast.ObjFunction:
		fn, ok := obj.Decl.(*ast.FuncDecl)
		if !ok {
			c.bag.Error(n.Span(), "%q does not name a function", n.Name)
			return types.New(types.Void)
		}
		return fptrOf(fn)
	case ast.ObjBuiltinFunc:
		return builtinFptr(obj.BuiltinID)
	case ast.ObjDuplicate:
		return types.New(types.Void)
	}
	return types.New(types.Void)
}

func fptrOf(fn *ast.FuncDecl) *types.Descriptor {
	d := &types.Descriptor{Kind: types.FPtr, Count: 1, ReturnType: fn.ReturnType}
	for _, p := range fn.Params {
		d.Params = append(d.Params, types.Param{Name: p.Name, Type: p.Type})
	}
	return d
}

func builtinFptr(id int) *types.Descriptor {
	for _, bf := range ast.BuiltinFuncs() {
		if bf.ID == id {
			d := &types.Descriptor{Kind: types.FPtr, Count: 1, ReturnType: bf.ReturnType}
			for _, p := range bf.Params {
				d.Params = append(d.Params, types.Param{Type: p})
			}
			return d
		}
	}
	return types.New(types.Void)
}

var arithAssignOps = map[string]bool{"+=": true, "-=": true, "*=": true, "/=": true, "%=": true}
var bitwiseAssignOps = map[string]bool{"<<=": true, ">>=": true, "&=": true, "|=": true, "^=": true}
var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var bitwiseOps = map[string]bool{"<<": true, ">>": true, "&": true, "|": true, "^": true}
var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}
var logicalOps = map[string]bool{"&&": true, "||": true}

func (c *Checker) checkBinary(n *ast.BinaryExpr, scope *ast.Scope) *types.Descriptor {
	switch {
	case n.Op == "=":
		return c.checkAssign(n, scope)
	case arithAssignOps[n.Op]:
		return c.checkCompoundArith(n, scope, true)
	case bitwiseAssignOps[n.Op]:
		return c.checkCompoundArith(n, scope, false)
	case arithOps[n.Op]:
		return c.checkPlainArith(n, scope, true)
	case bitwiseOps[n.Op]:
		return c.checkPlainArith(n, scope, false)
	case comparisonOps[n.Op]:
		return c.checkComparison(n, scope)
	case logicalOps[n.Op]:
		c.checkExprExpect(n.Left, scope, "logical operand")
		c.checkExprExpect(n.Right, scope, "logical operand")
		return types.New(types.U8)
	}
	c.bag.Error(n.Span(), "unknown binary operator %q", n.Op)
	return types.New(types.Void)
}

func (c *Checker) checkAssign(n *ast.BinaryExpr, scope *ast.Scope) *types.Descriptor {
	lt := c.checkExpr(n.Left, scope)
	rt := c.checkExpr(n.Right, scope)
	if !isLValue(n.Left) {
		c.bag.Error(n.Left.Span(), "assignment target must be an l-value")
	}
	if !types.Equal(lt, rt) {
		c.bag.Error(n.Span(), "cannot assign %s to %s", rt, lt)
	}
	return lt
}

// checkCompoundArith handles +=/-=/*=//=/%=  (arithmetic group) when
// arithmeticGroup is true, and <<=/>>=/&=/|=/^= (bitwise/shift group) when
// false, per spec.md §4.3's "compound arithmetic assignments ... bitwise
// and shift forms additionally require unsigned operands".
func (c *Checker) checkCompoundArith(n *ast.BinaryExpr, scope *ast.Scope, arithmeticGroup bool) *types.Descriptor {
	lt := c.checkExpr(n.Left, scope)
	rt := c.checkExpr(n.Right, scope)
	if !isLValue(n.Left) {
		c.bag.Error(n.Left.Span(), "compound-assignment target must be an l-value")
	}
	pointerAllowed := arithmeticGroup && (n.Op == "+=" || n.Op == "-=")
	c.checkScalarPair(n, lt, rt, pointerAllowed, !arithmeticGroup)
	return lt
}

func (c *Checker) checkPlainArith(n *ast.BinaryExpr, scope *ast.Scope, arithmeticGroup bool) *types.Descriptor {
	lt := c.checkExpr(n.Left, scope)
	rt := c.checkExpr(n.Right, scope)
	pointerAllowed := arithmeticGroup && (n.Op == "+" || n.Op == "-")
	c.checkScalarPair(n, lt, rt, pointerAllowed, !arithmeticGroup)
	if pointerAllowed && lt.Kind == types.Ptr {
		return lt
	}
	if pointerAllowed && rt.Kind == types.Ptr {
		return rt
	}
	return lt
}

// checkScalarPair enforces "scalar integer (or pointer, for +=/-=)
// operands of equal size and signedness; pointer arithmetic forbidden on
// void- and function-pointers" plus the additional unsigned-only rule for
// bitwise/shift forms.
func (c *Checker) checkScalarPair(n *ast.BinaryExpr, lt, rt *types.Descriptor, pointerAllowed, requireUnsigned bool) {
	lOK := types.IsInteger(lt.Kind) || (pointerAllowed && lt.Kind == types.Ptr)
	rOK := types.IsInteger(rt.Kind) || (pointerAllowed && rt.Kind == types.Ptr)
	if !lOK || !rOK {
		c.bag.Error(n.Span(), "operator %q requires scalar integer operands, found %s and %s", n.Op, lt, rt)
		return
	}
	if requireUnsigned {
		if (types.IsInteger(lt.Kind) && !types.IsUnsigned(lt.Kind)) || (types.IsInteger(rt.Kind) && !types.IsUnsigned(rt.Kind)) {
			c.bag.Error(n.Span(), "operator %q requires unsigned operands", n.Op)
		}
	}
	if lt.Kind != types.Ptr && rt.Kind != types.Ptr {
		if lt.Size != rt.Size || (types.IsInteger(lt.Kind) && types.IsInteger(rt.Kind) && types.IsUnsigned(lt.Kind) != types.IsUnsigned(rt.Kind)) {
			c.bag.Error(n.Span(), "operator %q requires operands of equal size and signedness, found %s and %s", n.Op, lt, rt)
		}
	}
}

func (c *Checker) checkComparison(n *ast.BinaryExpr, scope *ast.Scope) *types.Descriptor {
	lt := c.checkExpr(n.Left, scope)
	rt := c.checkExpr(n.Right, scope)
	lInt, rInt := types.IsInteger(lt.Kind), types.IsInteger(rt.Kind)
	lPtr, rPtr := lt.Kind == types.Ptr || lt.Kind == types.VPtr, rt.Kind == types.Ptr || rt.Kind == types.VPtr
	ok := (lInt || lPtr) && (rInt || rPtr)
	if !ok {
		c.bag.Error(n.Span(), "comparison requires integer or pointer operands, found %s and %s", lt, rt)
	} else if lt.Size != rt.Size {
		c.bag.Error(n.Span(), "comparison operands must share size, found %s and %s", lt, rt)
	} else if lInt && rInt && types.IsUnsigned(lt.Kind) != types.IsUnsigned(rt.Kind) {
		c.bag.Error(n.Span(), "comparison operands must share signedness, found %s and %s", lt, rt)
	}
	return types.New(types.U8)
}

func (c *Checker) checkUnary(n *ast.UnaryExpr, scope *ast.Scope) *types.Descriptor {
	ot := c.checkExpr(n.Operand, scope)
	switch n.Op {
	case "-":
		if !types.IsInteger(ot.Kind) {
			c.bag.Error(n.Span(), "unary - requires an integer operand, found %s", ot)
		}
		return ot
	case "!":
		if !types.IsInteger(ot.Kind) && !types.IsPointerLike(ot.Kind) {
			c.bag.Error(n.Span(), "unary ! requires a scalar operand, found %s", ot)
		}
		return types.New(types.U8)
	case "^":
		if !types.IsInteger(ot.Kind) || !types.IsUnsigned(ot.Kind) {
			c.bag.Error(n.Span(), "unary ^ (bitwise not) requires an unsigned integer operand, found %s", ot)
		}
		return ot
	case "*":
		return c.checkDeref(n, ot)
	case "&":
		if !isLValue(n.Operand) {
			c.bag.Error(n.Operand.Span(), "unary & requires an l-value operand")
		}
		return &types.Descriptor{Kind: types.Ptr, Count: 1, Subtype: ot}
	case "++", "--":
		if !isLValue(n.Operand) {
			c.bag.Error(n.Operand.Span(), "prefix %s requires a scalar l-value operand", n.Op)
		}
		if !types.IsInteger(ot.Kind) && ot.Kind != types.Ptr {
			c.bag.Error(n.Span(), "prefix %s requires an integer or pointer operand, found %s", n.Op, ot)
		}
		return ot
	}
	c.bag.Error(n.Span(), "unknown unary operator %q", n.Op)
	return types.New(types.Void)
}

func (c *Checker) checkDeref(n *ast.UnaryExpr, ot *types.Descriptor) *types.Descriptor {
	switch ot.Kind {
	case types.Ptr:
		return ot.Subtype
	case types.VPtr, types.FPtr:
		c.bag.Error(n.Span(), "cannot dereference a %s", ot)
		return types.New(types.Void)
	case types.Quaint:
		return ot.Subtype
	}
	c.bag.Error(n.Span(), "unary * requires a pointer or quaint operand, found %s", ot)
	return types.New(types.Void)
}

func (c *Checker) checkPostfix(n *ast.PostfixExpr, scope *ast.Scope) *types.Descriptor {
	ot := c.checkExpr(n.Operand, scope)
	if !isLValue(n.Operand) {
		c.bag.Error(n.Operand.Span(), "postfix %s requires a scalar l-value operand", n.Op)
	}
	if !types.IsInteger(ot.Kind) && ot.Kind != types.Ptr {
		c.bag.Error(n.Span(), "postfix %s requires an integer or pointer operand, found %s", n.Op, ot)
	}
	return ot
}

func (c *Checker) checkCall(n *ast.CallExpr, scope *ast.Scope) *types.Descriptor {
	var params []types.Param
	var ret *types.Descriptor

	if callee, ok := n.Callee.(*ast.NameExpr); ok {
		obj := ast.FindObject(scope, callee.Name, callee.Sp.Begin.Pos)
		if obj == nil {
			c.bag.Error(callee.Span(), "undefined function %q", callee.Name)
			return types.New(types.Void)
		}
		callee.Obj = obj
		switch obj.Kind {
		case ast.ObjFunction:
			fn := obj.Decl.(*ast.FuncDecl)
			for _, p := range fn.Params {
				params = append(params, types.Param{Name: p.Name, Type: p.Type})
			}
			ret = fn.ReturnType
		case ast.ObjBuiltinFunc:
			for _, bf := range ast.BuiltinFuncs() {
				if bf.ID == obj.BuiltinID {
					for _, p := range bf.Params {
						params = append(params, types.Param{Type: p})
					}
					ret = bf.ReturnType
				}
			}
		default:
			c.bag.Error(callee.Span(), "%q is not callable", callee.Name)
			return types.New(types.Void)
		}
	} else {
		ct := c.checkExpr(n.Callee, scope)
		if ct.Kind != types.FPtr {
			c.bag.Error(n.Callee.Span(), "call target must be a function, found %s", ct)
			return types.New(types.Void)
		}
		params = ct.Params
		ret = ct.ReturnType
	}

	if len(n.Args) != len(params) {
		c.bag.Error(n.Span(), "call expects %d argument(s), found %d", len(params), len(n.Args))
	}
	for i, a := range n.Args {
		at := c.checkExpr(a, scope)
		if i < len(params) && !types.Equal(at, params[i].Type) {
			c.bag.Error(a.Span(), "argument %d has type %s, expected %s", i+1, at, params[i].Type)
		}
	}
	if ret == nil {
		return types.New(types.Void)
	}
	return ret
}

func (c *Checker) checkIndex(n *ast.IndexExpr, scope *ast.Scope) *types.Descriptor {
	bt := c.checkExpr(n.Base, scope)
	it := c.checkExpr(n.Index, scope)
	if !bt.IsArray() {
		c.bag.Error(n.Base.Span(), "subscript requires an array base, found %s", bt)
	}
	if !types.IsUnsigned(it.Kind) {
		c.bag.Error(n.Index.Span(), "subscript index must be an unsigned integer, found %s", it)
	}
	return bt.ElementType()
}

func (c *Checker) checkMember(n *ast.MemberExpr, scope *ast.Scope) *types.Descriptor {
	bt := c.checkExpr(n.Base, scope)
	var agg *types.Descriptor
	if n.Arrow {
		if bt.Kind != types.Ptr {
			c.bag.Error(n.Base.Span(), "-> requires a pointer-to-struct/union base, found %s", bt)
			return types.New(types.Void)
		}
		agg = bt.Subtype
	} else {
		if !isLValue(n.Base) {
			c.bag.Error(n.Base.Span(), ". requires an l-value struct/union base")
		}
		agg = bt
	}
	if agg == nil || (agg.Kind != types.Struct && agg.Kind != types.Union) {
		c.bag.Error(n.Base.Span(), "member access requires a struct/union, found %s", agg)
		return types.New(types.Void)
	}
	for i, m := range agg.Members {
		if m.Name == n.Member {
			n.MemberType = m.Type
			if i < len(agg.Offsets) {
				n.Offset = agg.Offsets[i]
			}
			return m.Type
		}
	}
	c.bag.Error(n.Span(), "%s has no member %q", agg, n.Member)
	return types.New(types.Void)
}

func (c *Checker) checkTernary(n *ast.TernaryExpr, scope *ast.Scope) *types.Descriptor {
	c.checkExprExpect(n.Cond, scope, "ternary condition")
	tt := c.checkExpr(n.Then, scope)
	et := c.checkExpr(n.Else, scope)
	if !types.Equal(tt, et) {
		c.bag.Error(n.Span(), "ternary branches must have structurally equal types, found %s and %s", tt, et)
	}
	return tt
}

func (c *Checker) checkCast(n *ast.CastExpr, scope *ast.Scope) *types.Descriptor {
	ot := c.checkExpr(n.Operand, scope)
	if ot.Kind == types.Void {
		c.bag.Error(n.Operand.Span(), "cannot cast a void value")
	}
	return n.Target
}

func (c *Checker) checkAt(n *ast.QuaintAtExpr, scope *ast.Scope) *types.Descriptor {
	qt := c.checkExpr(n.Quaint, scope)
	if qt.Kind != types.Quaint {
		c.bag.Error(n.Quaint.Span(), "@ requires a quaint operand, found %s", qt)
	}
	if n.Kind == ast.AtLabel {
		target, ok := c.funcs[n.FuncName]
		if !ok {
			c.bag.Error(n.Span(), "@ references unknown function %q", n.FuncName)
			return types.New(types.U8)
		}
		id := target.Labels.IDFor(n.LabelName)
		if id < 0 {
			c.bag.Error(n.Span(), "function %q has no label %q", n.FuncName, n.LabelName)
			return types.New(types.U8)
		}
		n.FuncID = target.ID
		n.LabelID = id
	}
	return types.New(types.U8)
}

func (c *Checker) checkQuaintExpr(n *ast.QuaintExpr, scope *ast.Scope) *types.Descriptor {
	if !n.IsCall {
		vt := c.checkExpr(n.Value, scope)
		return &types.Descriptor{Kind: types.Quaint, Count: 1, Subtype: vt}
	}
	callee, ok := n.Callee.(*ast.NameExpr)
	if !ok {
		c.bag.Error(n.Span(), "quaint construction requires a direct function call")
		return &types.Descriptor{Kind: types.Quaint, Count: 1, Subtype: types.New(types.Void)}
	}
	obj := ast.FindObject(scope, callee.Name, callee.Sp.Begin.Pos)
	if obj == nil || obj.Kind != ast.ObjFunction {
		c.bag.Error(callee.Span(), "%q is not a user-defined function", callee.Name)
		return &types.Descriptor{Kind: types.Quaint, Count: 1, Subtype: types.New(types.Void)}
	}
	callee.Obj = obj
	fn := obj.Decl.(*ast.FuncDecl)
	n.TargetFunc = fn
	if len(n.Args) != len(fn.Params) {
		c.bag.Error(n.Span(), "quaint call to %q expects %d argument(s), found %d", fn.Name, len(fn.Params), len(n.Args))
	}
	for i, a := range n.Args {
		at := c.checkExpr(a, scope)
		if i < len(fn.Params) && !types.Equal(at, fn.Params[i].Type) {
			c.bag.Error(a.Span(), "argument %d has type %s, expected %s", i+1, at, fn.Params[i].Type)
		}
	}
	ret := fn.ReturnType
	if ret == nil {
		ret = types.New(types.Void)
	}
	return &types.Descriptor{Kind: types.Quaint, Count: 1, Subtype: ret}
}

// isLValue reports whether e denotes an addressable storage location, per
// the l-value requirements scattered through spec.md §4.3.
func isLValue(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.NameExpr:
		if n.Obj == nil {
			return false
		}
		switch n.Obj.Kind {
		case ast.ObjGlobalVar, ast.ObjAutoVar, ast.ObjParam:
			return true
		}
		return false
	case *ast.MemberExpr:
		return true
	case *ast.IndexExpr:
		return true
	case *ast.UnaryExpr:
		return n.Op == "*"
	}
	return false
}

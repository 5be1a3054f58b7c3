// Lowering of internal/ast expressions to three-address ir.Instr sequences,
// per spec.md §4.4. Grounded on internal/compiler/compiler.go's single
// recursive expression-visitor habit, generalized from Sentra's implicit
// stack-machine operand passing to this package's explicit operand
// descriptors.
package codegen

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
	"quaintlang/internal/types"
)

func signedOf(d *types.Descriptor) bool {
	if d == nil {
		return false
	}
	return types.IsSigned(d.Kind)
}

// genExpr lowers e and returns the operand describing both e's value (for
// scalar expressions) and, for addressable expressions (names, member
// access, subscripts, dereferences), e's storage location — the same
// Operand serves as an assignment target per spec.md §9's tagged-operand
// model, so there is no separate l-value/r-value code path.
func (g *Generator) genExpr(e ast.Expr) ir.Operand {
	switch n := e.(type) {
	case *ast.NameExpr:
		return g.resolveNameOperand(n)
	case *ast.NumberExpr:
		return ir.ImmOperand(n.Value, n.Type().Size, false)
	case *ast.StringExpr:
		return g.genString(n)
	case *ast.BinaryExpr:
		return g.genBinary(n)
	case *ast.UnaryExpr:
		return g.genUnary(n)
	case *ast.PostfixExpr:
		return g.genPostfix(n)
	case *ast.CallExpr:
		return g.genCall(n)
	case *ast.IndexExpr:
		return g.genIndex(n)
	case *ast.MemberExpr:
		return g.genMember(n)
	case *ast.TernaryExpr:
		return g.genTernary(n)
	case *ast.CastExpr:
		return g.genCast(n)
	case *ast.QuaintAtExpr:
		return g.genAt(n)
	case *ast.QuaintExpr:
		return g.genQuaintExpr(n)
	}
	return ir.ImmOperand(0, 1, false)
}

// genString appends lit's decoded bytes (plus a NUL terminator) to the
// string segment on first visit and emits a `ref` materializing its
// absolute address, per spec.md §4.4/§6: "String literals are appended to
// a dedup-free string segment ... a ref-to-glob emits their absolute
// pointer" and "the string segment immediately follows [the data segment],
// NUL-terminated per literal."
func (g *Generator) genString(lit *ast.StringExpr) ir.Operand {
	off := len(g.prog.Strings)
	g.prog.Strings = append(g.prog.Strings, lit.Value...)
	g.prog.Strings = append(g.prog.Strings, 0)
	lit.Offset = off

	strOp := ir.GlobOperand(g.staticSize+off, len(lit.Value)+1, false)
	dst := g.allocTemp(8, false)
	g.emit(ir.Instr{Op: ir.OpRef, Dst: dst, A: strOp, Span: spanOf(lit)})
	return dst
}

// getValue8 returns an operand that, read directly (no further
// indirection), yields op's 8-byte scalar value — the pointer value a
// storage descriptor op denotes. If op already carries an indirect hop,
// that hop is materialized into a fresh temp first.
func (g *Generator) getValue8(op ir.Operand) ir.Operand {
	if !op.Indirect {
		return ir.Operand{Class: op.Class, Off: op.Off, Size: 8, Signed: false}
	}
	return g.materializeDirect(op, 8, false)
}

// materializeDirect copies the value op denotes (applying one indirect hop
// if present) into a fresh direct temp of the given size/signedness.
func (g *Generator) materializeDirect(op ir.Operand, size int, signed bool) ir.Operand {
	t := g.allocTemp(size, signed)
	src := op
	src.Size = size
	src.Signed = signed
	g.emit(ir.Instr{Op: ir.OpMov, Dst: t, A: src})
	return t
}

// getAddressOf returns a direct temp holding the runtime address op's
// storage lives at: a `ref` of a direct operand (op's (class,off) is
// itself the compile-time-known storage location), or the dereferenced
// pointer value of an indirect one (op's storage holds the address already).
func (g *Generator) getAddressOf(op ir.Operand) ir.Operand {
	if op.Indirect {
		return g.materializeDirect(op, 8, false)
	}
	t := g.allocTemp(8, false)
	direct := op
	direct.Indirect = false
	g.emit(ir.Instr{Op: ir.OpRef, Dst: t, A: direct})
	return t
}

func (g *Generator) genMember(n *ast.MemberExpr) ir.Operand {
	memberSize := n.MemberType.Size
	memberSigned := signedOf(n.MemberType)

	if n.Arrow {
		baseVal := g.genExpr(n.Base)
		ptrVal := g.getValue8(baseVal)
		t := g.allocTemp(8, false)
		g.emit(ir.Instr{Op: ir.OpMov, Dst: t, A: ptrVal})
		g.emit(ir.Instr{Op: ir.OpAdd, Dst: t, A: t, B: ir.ImmOperand(uint64(n.Offset), 8, false)})
		return ir.Operand{Class: t.Class, Off: t.Off, Size: memberSize, Signed: memberSigned, Indirect: true}
	}

	base := g.genExpr(n.Base)
	if !base.Indirect {
		return ir.Operand{Class: base.Class, Off: base.Off + n.Offset, Size: memberSize, Signed: memberSigned}
	}
	addr := g.getAddressOf(base)
	g.emit(ir.Instr{Op: ir.OpAdd, Dst: addr, A: addr, B: ir.ImmOperand(uint64(n.Offset), 8, false)})
	return ir.Operand{Class: addr.Class, Off: addr.Off, Size: memberSize, Signed: memberSigned, Indirect: true}
}

func (g *Generator) genIndex(n *ast.IndexExpr) ir.Operand {
	baseType := n.Base.Type()
	elem := baseType.ElementType()
	elemSize := elem.Size
	elemSigned := signedOf(elem)

	base := g.genExpr(n.Base)
	addr := g.getAddressOf(base)

	idx := g.genExpr(n.Index)
	if idx.Size != 8 {
		cast := g.allocTemp(8, false)
		g.emit(ir.Instr{Op: ir.OpCast, Dst: cast, A: idx, Size: 8})
		idx = cast
	}
	scaled := g.allocTemp(8, false)
	g.emit(ir.Instr{Op: ir.OpMul, Dst: scaled, A: idx, B: ir.ImmOperand(uint64(elemSize), 8, false)})
	g.emit(ir.Instr{Op: ir.OpAdd, Dst: addr, A: addr, B: scaled})
	return ir.Operand{Class: addr.Class, Off: addr.Off, Size: elemSize, Signed: elemSigned, Indirect: true}
}

func (g *Generator) genUnary(n *ast.UnaryExpr) ir.Operand {
	resultType := n.Type()
	switch n.Op {
	case "-":
		v := g.genExpr(n.Operand)
		dst := g.allocTemp(resultType.Size, signedOf(resultType))
		g.emit(ir.Instr{Op: ir.OpNeg, Dst: dst, A: v, Span: spanOf(n)})
		return dst
	case "!":
		v := g.genExpr(n.Operand)
		dst := g.allocTemp(1, false)
		g.emit(ir.Instr{Op: ir.OpNot, Dst: dst, A: v, Span: spanOf(n)})
		return dst
	case "^":
		v := g.genExpr(n.Operand)
		dst := g.allocTemp(resultType.Size, signedOf(resultType))
		g.emit(ir.Instr{Op: ir.OpBneg, Dst: dst, A: v, Span: spanOf(n)})
		return dst
	case "&":
		storage := g.genExpr(n.Operand)
		return g.getAddressOf(storage)
	case "*":
		return g.genDeref(n, resultType)
	case "++", "--":
		return g.genPrefixStep(n, resultType)
	}
	return ir.ImmOperand(0, 1, false)
}

// genDeref lowers `*p`: pointer dereference (the operand's underlying
// value is itself the address to read through) and quaint move-out (a
// suspension point handled via rte/rtev, per spec.md §4.4's "Quaint
// step/observation").
func (g *Generator) genDeref(n *ast.UnaryExpr, resultType *types.Descriptor) ir.Operand {
	operandType := n.Operand.Type()
	if operandType.Kind == types.Quaint {
		q := g.genExpr(n.Operand)
		if operandType.Subtype == nil || operandType.Subtype.Kind == types.Void {
			g.emit(ir.Instr{Op: ir.OpRte, A: q, Span: spanOf(n)})
			return ir.ImmOperand(0, 1, false)
		}
		dst := g.allocTemp(resultType.Size, signedOf(resultType))
		g.emit(ir.Instr{Op: ir.OpRtev, Dst: dst, A: q, Span: spanOf(n)})
		return dst
	}
	storage := g.genExpr(n.Operand)
	cell := g.getValue8(storage)
	return ir.Operand{Class: cell.Class, Off: cell.Off, Size: resultType.Size, Signed: signedOf(resultType), Indirect: true}
}

func stepSize(t *types.Descriptor) int {
	if t.Kind == types.Ptr {
		return t.Subtype.Size
	}
	return 1
}

func (g *Generator) genPrefixStep(n *ast.UnaryExpr, resultType *types.Descriptor) ir.Operand {
	lv := g.genExpr(n.Operand)
	op := ir.OpInc
	if n.Op == "--" {
		op = ir.OpDec
	}
	g.emit(ir.Instr{Op: op, Dst: lv, A: lv, Size: stepSize(resultType), Span: spanOf(n)})
	return lv
}

func (g *Generator) genPostfix(n *ast.PostfixExpr) ir.Operand {
	resultType := n.Operand.Type()
	lv := g.genExpr(n.Operand)
	old := g.allocTemp(lv.Size, lv.Signed)
	op := ir.OpIncp
	if n.Op == "--" {
		op = ir.OpDecp
	}
	g.emit(ir.Instr{Op: op, Dst: old, A: lv, Size: stepSize(resultType), Span: spanOf(n)})
	return old
}

// scalePointerOperand multiplies an integer operand by the pointee size
// when it is paired with a pointer in +/-, per spec.md §4.4: "Pointer
// arithmetic scales the integer operand by sizeof(pointee) before add/sub."
func (g *Generator) scalePointerOperand(lt, rt *types.Descriptor, lOp, rOp ir.Operand) (ir.Operand, ir.Operand) {
	toEight := func(op ir.Operand) ir.Operand {
		if op.Size == 8 {
			return op
		}
		t := g.allocTemp(8, false)
		g.emit(ir.Instr{Op: ir.OpCast, Dst: t, A: op, Size: 8})
		return t
	}
	scale := func(intOp ir.Operand, elemSize int) ir.Operand {
		intOp = toEight(intOp)
		t := g.allocTemp(8, false)
		g.emit(ir.Instr{Op: ir.OpMul, Dst: t, A: intOp, B: ir.ImmOperand(uint64(elemSize), 8, false)})
		return t
	}
	if lt.Kind == types.Ptr && rt.Kind != types.Ptr {
		return lOp, scale(rOp, lt.Subtype.Size)
	}
	if rt.Kind == types.Ptr && lt.Kind != types.Ptr {
		return scale(lOp, rt.Subtype.Size), rOp
	}
	return lOp, rOp
}

var arithOpcode = map[string]ir.Op{
	"+": ir.OpAdd, "-": ir.OpSub, "*": ir.OpMul, "/": ir.OpDiv, "%": ir.OpMod,
	"<<": ir.OpLsh, ">>": ir.OpRsh, "&": ir.OpAnd, "|": ir.OpOr, "^": ir.OpXor,
}

var compareOpcode = map[string]ir.Op{
	"==": ir.OpEqu, "!=": ir.OpNeq, "<": ir.OpLt, ">": ir.OpGt, "<=": ir.OpLte, ">=": ir.OpGte,
}

var compoundBase = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"<<=": "<<", ">>=": ">>", "&=": "&", "|=": "|", "^=": "^",
}

func (g *Generator) genBinary(n *ast.BinaryExpr) ir.Operand {
	switch {
	case n.Op == "=":
		return g.genAssign(n)
	case compoundBase[n.Op] != "":
		return g.genCompoundAssign(n)
	case n.Op == "&&" || n.Op == "||":
		return g.genLogical(n)
	case compareOpcode[n.Op] != 0 || n.Op == "==" || n.Op == "!=":
		return g.genCompare(n)
	default:
		return g.genArith(n)
	}
}

func (g *Generator) genAssign(n *ast.BinaryExpr) ir.Operand {
	lv := g.genExpr(n.Left)
	rv := g.genExpr(n.Right)
	g.emit(ir.Instr{Op: ir.OpMov, Dst: lv, A: rv, Span: spanOf(n)})
	return lv
}

func (g *Generator) genCompoundAssign(n *ast.BinaryExpr) ir.Operand {
	lt, rt := n.Left.Type(), n.Right.Type()
	lv := g.genExpr(n.Left)
	rv := g.genExpr(n.Right)
	_, rv = g.scalePointerOperand(lt, rt, lv, rv)
	op := arithOpcode[compoundBase[n.Op]]
	g.emit(ir.Instr{Op: op, Dst: lv, A: lv, B: rv, Span: spanOf(n)})
	return lv
}

func (g *Generator) genArith(n *ast.BinaryExpr) ir.Operand {
	lt, rt := n.Left.Type(), n.Right.Type()
	lv := g.genExpr(n.Left)
	rv := g.genExpr(n.Right)
	lv, rv = g.scalePointerOperand(lt, rt, lv, rv)
	resultType := n.Type()
	dst := g.allocTemp(resultType.Size, signedOf(resultType))
	g.emit(ir.Instr{Op: arithOpcode[n.Op], Dst: dst, A: lv, B: rv, Span: spanOf(n)})
	return dst
}

func (g *Generator) genCompare(n *ast.BinaryExpr) ir.Operand {
	lv := g.genExpr(n.Left)
	rv := g.genExpr(n.Right)
	dst := g.allocTemp(1, false)
	g.emit(ir.Instr{Op: compareOpcode[n.Op], Dst: dst, A: lv, B: rv, Span: spanOf(n)})
	return dst
}

// genLogical lowers short-circuit &&/||, per spec.md §4.4: "evaluate left,
// oz it into the destination, conditional branch past the right; the
// right branch evaluates right, oz combines."
func (g *Generator) genLogical(n *ast.BinaryExpr) ir.Operand {
	dst := g.allocTemp(1, false)
	lv := g.genExpr(n.Left)
	g.emit(ir.Instr{Op: ir.OpOz, Dst: dst, A: lv, Span: spanOf(n)})

	branchOp := ir.OpJz
	if n.Op == "||" {
		branchOp = ir.OpJnz
	}
	skipIdx := g.emit(ir.Instr{Op: branchOp, A: dst})

	rv := g.genExpr(n.Right)
	rz := g.allocTemp(1, false)
	g.emit(ir.Instr{Op: ir.OpOz, Dst: rz, A: rv})
	g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: rz})

	g.prog.Instrs[skipIdx].Target = g.prog.Here()
	return dst
}

func (g *Generator) genTernary(n *ast.TernaryExpr) ir.Operand {
	resultType := n.Type()
	dst := g.allocTemp(resultType.Size, signedOf(resultType))
	cond := g.genExpr(n.Cond)
	jzIdx := g.emit(ir.Instr{Op: ir.OpJz, A: cond})

	thenOp := g.genExpr(n.Then)
	g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: thenOp})
	jmpIdx := g.emit(ir.Instr{Op: ir.OpJmp})

	g.prog.Instrs[jzIdx].Target = g.prog.Here()
	elseOp := g.genExpr(n.Else)
	g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: elseOp})

	g.prog.Instrs[jmpIdx].Target = g.prog.Here()
	return dst
}

func (g *Generator) genCast(n *ast.CastExpr) ir.Operand {
	v := g.genExpr(n.Operand)
	dst := g.allocTemp(n.Target.Size, signedOf(n.Target))
	g.emit(ir.Instr{Op: ir.OpCast, Dst: dst, A: v, Size: n.Target.Size, Span: spanOf(n)})
	return dst
}

func (g *Generator) genAt(n *ast.QuaintAtExpr) ir.Operand {
	q := g.genExpr(n.Quaint)
	dst := g.allocTemp(1, false)
	instr := ir.Instr{Op: ir.OpQat, Dst: dst, A: q, Span: spanOf(n)}
	switch n.Kind {
	case ast.AtStart:
		instr.AtKind = ir.AtQueryStart
	case ast.AtEnd:
		instr.AtKind = ir.AtQueryEnd
	case ast.AtLabel:
		instr.AtKind = ir.AtQueryLabel
		instr.FuncID = n.FuncID
		instr.LabelID = n.LabelID
	}
	g.emit(instr)
	return dst
}

// genCallTarget resolves the address operand a call/quaint-construction
// jumps to: a bare function/builtin name resolves the same way any other
// name reference would (internal/codegen/names.go), so a function value
// passed around through a variable and a direct call share one code path.
func (g *Generator) genCallTarget(callee ast.Expr) ir.Operand {
	if ne, ok := callee.(*ast.NameExpr); ok {
		return g.resolveNameOperand(ne)
	}
	return g.genExpr(callee)
}

// genCall lowers a call per spec.md §4.4's sequence: "pushr (reserved
// return slot + saved bp) -> ssp captured -> push arguments -> call
// target,bp. callv returns a value by copying into the destination operand
// once ret fires." Argument sub-expressions are evaluated into temps
// before pushr is emitted — an argument that is itself a call has its own
// complete pushr/push/call/ret sequence, which would otherwise clobber the
// single in-flight "ssp" this call is about to capture.
func (g *Generator) genCall(n *ast.CallExpr) ir.Operand {
	argVals := make([]ir.Operand, len(n.Args))
	for i, a := range n.Args {
		argVals[i] = g.genExpr(a)
	}
	target := g.genCallTarget(n.Callee)

	pushrIdx := g.emit(ir.Instr{Op: ir.OpPushr, Span: spanOf(n)})
	for _, av := range argVals {
		g.emit(ir.Instr{Op: ir.OpPush, A: av, Size: av.Size})
	}

	retType := n.Type()
	var instr ir.Instr
	var dst ir.Operand
	if retType == nil || retType.Kind == types.Void {
		instr = ir.Instr{Op: ir.OpCall, A: target, Span: spanOf(n)}
		dst = ir.ImmOperand(0, 1, false)
	} else {
		dst = g.allocTemp(retType.Size, signedOf(retType))
		instr = ir.Instr{Op: ir.OpCallv, Dst: dst, A: target, Span: spanOf(n)}
	}
	callIdx := g.emit(instr)

	// pushr's Target field carries the return ip, "supplied as an immediate
	// set by the compiler" (spec.md §4.5) — the instruction right after
	// this call.
	g.prog.Instrs[pushrIdx].Target = callIdx + 1
	return dst
}

// genQuaintExpr lowers `~f(args)` (spawn a child VM running f) and `~v`
// (wrap an already-computed value in an at-end quaint), per spec.md §4.4.
// As with genCall, arguments are evaluated before getsp captures ssp.
func (g *Generator) genQuaintExpr(n *ast.QuaintExpr) ir.Operand {
	if !n.IsCall {
		v := g.genExpr(n.Value)
		dst := g.allocTemp(8, false)
		g.emit(ir.Instr{Op: ir.OpQntv, Dst: dst, A: v, Span: spanOf(n)})
		return dst
	}
	argVals := make([]ir.Operand, len(n.Args))
	for i, a := range n.Args {
		argVals[i] = g.genExpr(a)
	}
	ssp := g.allocTemp(8, false)
	g.emit(ir.Instr{Op: ir.OpGetsp, Dst: ssp, Span: spanOf(n)})
	for _, av := range argVals {
		g.emit(ir.Instr{Op: ir.OpPush, A: av, Size: av.Size})
	}
	dst := g.allocTemp(8, false)
	idx := g.emit(ir.Instr{Op: ir.OpQnt, Dst: dst, B: ssp, Span: spanOf(n)})
	g.fixups = append(g.fixups, fixup{instrIdx: idx, name: n.TargetFunc.Name, field: fixupFuncEntry})
	return dst
}

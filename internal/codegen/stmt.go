package codegen

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
)

// genBlock lowers each statement of b in order, resetting the temp-frame
// watermark between top-level statements (spec.md §4.4) so sibling
// expression statements' scratch temps overlap rather than accumulate.
func (g *Generator) genBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		g.genStmt(s)
		g.resetTemps()
	}
}

func (g *Generator) genStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		g.genLocalVarDecl(n)
	case *ast.ExprStmt:
		g.genExpr(n.X)
	case *ast.Block:
		g.genBlock(n)
	case *ast.NointBlock:
		g.emit(ir.Instr{Op: ir.OpNoint, Span: spanOf(n)})
		g.genBlock(n.Body)
		g.emit(ir.Instr{Op: ir.OpInt, Span: spanOf(n)})
	case *ast.If:
		g.genIf(n)
	case *ast.While:
		g.genWhile(n)
	case *ast.DoWhile:
		g.genDoWhile(n)
	case *ast.Return:
		g.genReturn(n)
	case *ast.WaitLabelStmt:
		g.emit(ir.Instr{Op: ir.OpWlab, FuncID: g.curFunc.ID, LabelID: n.LabelID, Span: spanOf(n)})
	case *ast.WaitStmt:
		g.genWait(n)
	}
}

// genLocalVarDecl lowers a non-global, non-static local's initializer
// (global/static initializers are instead folded into genInit's prologue,
// since their storage lives in the data segment and must be set up exactly
// once regardless of how many times control re-enters the declaring block).
func (g *Generator) genLocalVarDecl(n *ast.VarDecl) {
	if n.IsGlobal || n.Static {
		return
	}
	if n.Init == nil {
		return
	}
	v := g.genExpr(n.Init)
	for i := range n.Names {
		dst := g.varOperand(n, i)
		g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: v, Span: spanOf(n)})
	}
}

func (g *Generator) genIf(n *ast.If) {
	cond := g.genExpr(n.Cond)
	jz := g.emit(ir.Instr{Op: ir.OpJz, A: cond, Span: spanOf(n)})
	g.genBlock(n.Then)
	endJumps := []int{g.emit(ir.Instr{Op: ir.OpJmp})}
	g.prog.Instrs[jz].Target = g.prog.Here()

	for _, elif := range n.Elifs {
		econd := g.genExpr(elif.Cond)
		ejz := g.emit(ir.Instr{Op: ir.OpJz, A: econd})
		g.genBlock(elif.Body)
		endJumps = append(endJumps, g.emit(ir.Instr{Op: ir.OpJmp}))
		g.prog.Instrs[ejz].Target = g.prog.Here()
	}

	if n.Else != nil {
		g.genBlock(n.Else)
	}

	end := g.prog.Here()
	for _, idx := range endJumps {
		g.prog.Instrs[idx].Target = end
	}
}

func (g *Generator) genWhile(n *ast.While) {
	top := g.prog.Here()
	cond := g.genExpr(n.Cond)
	jz := g.emit(ir.Instr{Op: ir.OpJz, A: cond, Span: spanOf(n)})
	g.genBlock(n.Body)
	g.emit(ir.Instr{Op: ir.OpJmp, Target: top})
	g.prog.Instrs[jz].Target = g.prog.Here()
}

func (g *Generator) genDoWhile(n *ast.DoWhile) {
	top := g.prog.Here()
	g.genBlock(n.Body)
	cond := g.genExpr(n.Cond)
	g.emit(ir.Instr{Op: ir.OpJnz, A: cond, Target: top, Span: spanOf(n)})
}

func (g *Generator) genReturn(n *ast.Return) {
	fn := g.curFunc
	size := fn.FrameSize + 16
	if n.Value == nil {
		g.emit(ir.Instr{Op: ir.OpRet, Size: size, Span: spanOf(n)})
		return
	}
	v := g.genExpr(n.Value)
	g.emit(ir.Instr{Op: ir.OpRetv, A: v, Size: size, Span: spanOf(n)})
}

// genWait lowers both wait forms from spec.md §4.4: `wait q for N
// (msec|sec) [noblock]` (HasTimeout, !UntilLabel) and `wait q until F::L
// [noblock]` (UntilLabel).
func (g *Generator) genWait(n *ast.WaitStmt) {
	q := g.genExpr(n.Quaint)
	instr := ir.Instr{Op: ir.OpWait, A: q, Span: spanOf(n)}
	switch n.Kind {
	case ast.WaitForTimeout:
		timeout := g.genExpr(n.TimeoutExpr)
		instr.B = timeout
		instr.Wait = ir.WaitFlags{
			Noblock:    n.Noblock,
			HasTimeout: true,
			UntilLabel: false,
			Msec:       n.TimeUnit == "msec",
		}
	case ast.WaitUntilLabel:
		instr.FuncID = n.FuncID
		instr.LabelID = n.LabelID
		instr.Wait = ir.WaitFlags{UntilLabel: true, Noblock: n.Noblock}
	}
	g.emit(instr)
}

// genInit emits the synthetic prologue that evaluates every unit-level and
// `static` local's initializer into its data-segment cell, in declaration
// order, before control transfers to the program's entry function — spec.md
// §6's "global variables are initialized once, before main runs."
// Static locals are included here (rather than at their declaring block,
// see genLocalVarDecl) because their storage is part of the data segment
// and must only be initialized once, not on every re-entry to their block.
func (g *Generator) genInit() {
	g.curFunc = nil
	g.tempOff = 0
	g.tempHigh = 0

	g.prog.InitEntry = g.prog.Here()
	for _, vd := range g.unit.VarDecls {
		g.genGlobalInit(vd)
		g.resetTemps()
	}
	for _, fn := range g.unit.Funcs {
		g.genFuncStaticInits(fn.Body)
	}
	g.prog.InitTempSize = g.tempHigh

	entry := "main"
	if _, ok := g.funcs["main"]; !ok && len(g.unit.Funcs) > 0 {
		entry = g.unit.Funcs[0].Name
	}
	jmp := g.emit(ir.Instr{Op: ir.OpJmp})
	g.fixups = append(g.fixups, fixup{instrIdx: jmp, field: fixupTarget, name: entry})
}

func (g *Generator) genGlobalInit(vd *ast.VarDecl) {
	if vd.Init == nil {
		return
	}
	v := g.genExpr(vd.Init)
	for i := range vd.Names {
		dst := g.varOperand(vd, i)
		g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: v, Span: spanOf(vd)})
	}
}

// genFuncStaticInits walks fn's body looking for `static` locals, whose
// initializers must run exactly once from the global prologue rather than
// on each call, per genInit's doc comment.
func (g *Generator) genFuncStaticInits(b *ast.Block) {
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ast.VarDecl:
			if n.Static {
				g.genGlobalInit(n)
			}
		case *ast.Block:
			g.genFuncStaticInits(n)
		case *ast.NointBlock:
			g.genFuncStaticInits(n.Body)
		case *ast.If:
			g.genFuncStaticInits(n.Then)
			for _, e := range n.Elifs {
				g.genFuncStaticInits(e.Body)
			}
			if n.Else != nil {
				g.genFuncStaticInits(n.Else)
			}
		case *ast.While:
			g.genFuncStaticInits(n.Body)
		case *ast.DoWhile:
			g.genFuncStaticInits(n.Body)
		}
	}
}

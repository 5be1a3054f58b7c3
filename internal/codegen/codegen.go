package codegen

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/diag"
	"quaintlang/internal/ir"
)

// fixup is a deferred patch: emitting a call/quaint-construction targeting
// a function by name happens before every function's address is known
// (functions may call each other in either declaration order, including
// recursively), so the instruction index and which field to patch are
// recorded and resolved once every fn.Entry is final.
type fixup struct {
	instrIdx int
	name     string
	field    fixupField
}

type fixupField int

const (
	fixupTarget fixupField = iota
	fixupFuncEntry
	fixupFuncValueImm
)

// Generator carries whole-unit state across the codegen pass: the running
// global-segment size (grown by both unit-level and `static` declarations),
// the program being built, and per-function scratch (temp-frame bookkeeping,
// pending name fixups).
type Generator struct {
	unit *ast.Unit
	bag  *diag.Bag
	prog *ir.Program

	staticSize int

	funcs map[string]*ast.FuncDecl

	curFunc  *ast.FuncDecl
	tempOff  int
	tempHigh int

	fixups []fixup
}

// Generate lowers unit into a complete *ir.Program, per spec.md §4.4. unit
// must already have passed internal/check (types quantified, names
// resolved) — Generate does not re-validate anything check.Check already
// enforces.
func Generate(unit *ast.Unit, bag *diag.Bag) *ir.Program {
	g := &Generator{
		unit:  unit,
		bag:   bag,
		prog:  ir.NewProgram(ast.NumBuiltins),
		funcs: map[string]*ast.FuncDecl{},
	}
	for _, fn := range unit.Funcs {
		g.funcs[fn.Name] = fn
	}

	g.layoutGlobals()
	for _, fn := range unit.Funcs {
		g.layoutFunc(fn)
	}

	g.genInit()

	for _, fn := range unit.Funcs {
		g.genFunc(fn)
		if g.bag.Status() == diag.OutOfMemory {
			return g.prog
		}
	}

	g.resolveFixups()

	g.prog.GlobalsSize = g.staticSize
	if _, ok := g.funcs["main"]; ok {
		g.prog.EntryFunc = "main"
	}
	return g.prog
}

func (g *Generator) resolveFixups() {
	for _, fx := range g.fixups {
		fn, ok := g.funcs[fx.name]
		if !ok {
			g.bag.Error(g.unit.Funcs[0].Span(), "internal: unresolved call target %q", fx.name)
			continue
		}
		instr := &g.prog.Instrs[fx.instrIdx]
		switch fx.field {
		case fixupTarget:
			instr.Target = fn.Entry
		case fixupFuncEntry:
			instr.FuncEntry = fn.Entry
		case fixupFuncValueImm:
			instr.A.Val = uint64(fn.Entry)
		}
	}
}

// genFunc emits fn's body, recording its entry address both on the AST
// node (for fixups already resolved against it) and in the program's
// FuncEntries index.
func (g *Generator) genFunc(fn *ast.FuncDecl) {
	g.curFunc = fn
	g.tempOff = 0
	g.tempHigh = 0

	fn.Entry = g.prog.Here()
	g.prog.FuncEntries[fn.Name] = fn.Entry

	incspIdx := g.emit(ir.Instr{Op: ir.OpIncsp, Size: fn.FrameSize - fn.ArgsSize, Span: spanOf(fn)})
	g.genBlock(fn.Body)

	// A function whose body falls through without an explicit `return`
	// still needs the frame torn down; spec.md §4.4 gives `ret` that
	// uniform discipline regardless of how control reaches it.
	g.emit(ir.Instr{Op: ir.OpRet, Size: fn.FrameSize + 16, Span: spanOf(fn)})

	// The temp-frame watermark is only known once the whole body has been
	// lowered, so incsp's allocation size is patched in after the fact.
	g.prog.Instrs[incspIdx].TempSize = g.tempHigh
}

func (g *Generator) emit(instr ir.Instr) int {
	return g.prog.Emit(instr)
}

// resetTemps implements "expression statements ... reset the temp-frame
// watermark between statements" (spec.md §4.4): tempOff returns to zero
// before lowering the next top-level statement, while tempHigh (the
// function's temp-frame size) never shrinks.
func (g *Generator) resetTemps() {
	g.tempOff = 0
}

// allocTemp reserves size bytes in the current temp frame and returns the
// operand naming them.
func (g *Generator) allocTemp(size int, signed bool) ir.Operand {
	off := alignUp(g.tempOff, minInt(size, 8))
	op := ir.TempOperand(off, size, signed)
	g.tempOff = off + size
	if g.tempOff > g.tempHigh {
		g.tempHigh = g.tempOff
	}
	return op
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func spanOf(n ast.Node) ir.Span {
	s := n.Span()
	return ir.Span{File: s.Begin.Pos.File, Line: s.Begin.Pos.Line, Col: s.Begin.Pos.Col}
}

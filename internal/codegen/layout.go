// Package codegen lowers a checked *ast.Unit into an *ir.Program, per
// spec.md §4.4. It is grounded on the teacher's internal/compiler package
// (internal/compiler/compiler.go, internal/compiler/stmt_compiler.go): a
// single visitor that emits a flat, growing instruction slice, patching
// forward jump/call targets once their destination address is known —
// generalized here from a byte-patched jump offset to an instruction-index
// Target field, since ir.Instr operands are already structured rather than
// raw bytes.
package codegen

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/types"
)

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	return (off + align - 1) &^ (align - 1)
}

// layoutGlobals assigns a glob offset to every unit-level VarDecl, in
// declaration order, per spec.md §6: "the data segment follows the
// program's declaration order".
func (g *Generator) layoutGlobals() {
	g.staticSize = 0
	for _, vd := range g.unit.VarDecls {
		g.staticSize = g.layoutVarDeclAt(vd, g.staticSize)
	}
}

// layoutVarDeclAt assigns each name in vd an offset starting at off,
// aligned to the declaration's own type alignment, returning the offset
// just past the last name.
func (g *Generator) layoutVarDeclAt(vd *ast.VarDecl, off int) int {
	align := vd.Type.Alignment
	if align == 0 {
		align = 1
	}
	size := vd.Type.Size
	vd.Offset = make([]int, len(vd.Names))
	for i := range vd.Names {
		off = alignUp(off, align)
		vd.Offset[i] = off
		off += size
	}
	vd.Size = size
	return off
}

// layoutFunc computes fn's frame layout per spec.md §4.4: "recurse the
// function body counting declarations to size the layout map, then lay
// parameters first (sequentially, 8-aligned between params), then body
// locals (aligned to their own alignment). Blocks inside the same function
// share the function's frame linearly — there is no scope-scoped reuse."
//
// `static` locals are not part of the stack frame at all: they persist
// across calls, so they are laid into the global segment instead (the
// builder already rejects `static` at unit level, so this is the only
// place a static variable's storage class is decided), growing
// g.staticSize, the running global-segment size.
func (g *Generator) layoutFunc(fn *ast.FuncDecl) {
	off := 0
	for _, p := range fn.Params {
		off = alignUp(off, 8)
		p.Offset = off
		off += p.Type.Size
		off = alignUp(off, 8)
	}
	fn.ArgsSize = off

	g.walkLocals(fn.Body, &off)
	off = alignUp(off, 8)
	fn.FrameSize = off
}

// walkLocals assigns offsets to every VarDecl reachable from b (recursing
// into nested blocks without resetting offset — the frame is shared
// linearly across the whole function body), advancing *off for each
// non-static declaration and routing static ones into the global segment.
func (g *Generator) walkLocals(b *ast.Block, off *int) {
	for _, s := range b.Stmts {
		switch n := s.(type) {
		case *ast.VarDecl:
			if n.Static {
				g.staticSize = g.layoutVarDeclAt(n, g.staticSize)
				continue
			}
			align := n.Type.Alignment
			if align == 0 {
				align = 1
			}
			o := alignUp(*off, align)
			n.Offset = make([]int, len(n.Names))
			for i := range n.Names {
				o = alignUp(o, align)
				n.Offset[i] = o
				o += n.Type.Size
			}
			n.Size = n.Type.Size
			*off = o
		case *ast.Block:
			g.walkLocals(n, off)
		case *ast.NointBlock:
			g.walkLocals(n.Body, off)
		case *ast.If:
			g.walkLocals(n.Then, off)
			for i := range n.Elifs {
				g.walkLocals(n.Elifs[i].Body, off)
			}
			if n.Else != nil {
				g.walkLocals(n.Else, off)
			}
		case *ast.While:
			g.walkLocals(n.Body, off)
		case *ast.DoWhile:
			g.walkLocals(n.Body, off)
		}
	}
}

func (g *Generator) quantify(d *types.Descriptor) {
	if d == nil {
		return
	}
	if err := types.Quantify(d); err != nil {
		g.bag.OOM("codegen quantification", err)
	}
}

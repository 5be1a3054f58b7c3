package codegen

import (
	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
	"quaintlang/internal/types"
)

// resolveNameOperand locates the storage cell a resolved NameExpr denotes.
// Function-valued names (a bare function used as a callee operand, not a
// direct call) resolve to an immediate holding the function's entry
// address — functions have no other runtime representation in this model.
func (g *Generator) resolveNameOperand(n *ast.NameExpr) ir.Operand {
	obj := n.Obj
	if obj == nil {
		return ir.ImmOperand(0, 8, false)
	}
	switch obj.Kind {
	case ast.ObjBuiltinConst:
		return ir.ImmOperand(constValue(obj.Name), obj.Type.Size, false)
	case ast.ObjParam:
		off, pt := g.paramOffset(obj.Name)
		return ir.AutoOperand(off, pt.Size, types.IsSigned(pt.Kind))
	case ast.ObjGlobalVar:
		vd := obj.Decl.(*ast.VarDecl)
		return ir.GlobOperand(vd.Offset[obj.NameIndex], vd.Type.Size, types.IsSigned(vd.Type.Kind))
	case ast.ObjAutoVar:
		vd := obj.Decl.(*ast.VarDecl)
		off := vd.Offset[obj.NameIndex]
		if vd.Static {
			return ir.GlobOperand(off, vd.Type.Size, types.IsSigned(vd.Type.Kind))
		}
		return ir.AutoOperand(off, vd.Type.Size, types.IsSigned(vd.Type.Kind))
	case ast.ObjFunction:
		fn := obj.Decl.(*ast.FuncDecl)
		idx := g.emitFuncValueImm(fn.Name)
		return idx
	case ast.ObjBuiltinFunc:
		return ir.ImmOperand(uint64(obj.BuiltinID), 8, false)
	}
	return ir.ImmOperand(0, 8, false)
}

func constValue(name string) uint64 {
	switch name {
	case "true":
		return 1
	default:
		return 0
	}
}

// emitFuncValueImm returns an immediate operand holding fn's entry address.
// Since the address isn't known until every function has been generated, a
// fixup is recorded; the immediate's Val field is patched in resolveFixups
// the same way Target/FuncEntry are, by reusing the instruction slot of a
// throwaway `mov` that materializes the address into a temp.
func (g *Generator) emitFuncValueImm(name string) ir.Operand {
	dst := g.allocTemp(8, false)
	idx := g.emit(ir.Instr{Op: ir.OpMov, Dst: dst, A: ir.ImmOperand(0, 8, false)})
	g.fixups = append(g.fixups, fixup{instrIdx: idx, name: name, field: fixupFuncValueImm})
	return dst
}

// paramOffset finds the frame offset and type of a parameter by name in
// the function currently being generated. Params don't carry a NameIndex
// in their Object the way VarDecl names do, so resolution is a direct scan
// of the small, fixed parameter list.
func (g *Generator) paramOffset(name string) (int, *types.Descriptor) {
	for _, p := range g.curFunc.Params {
		if p.Name == name {
			return p.Offset, p.Type
		}
	}
	return 0, types.New(types.Void)
}

// varOperand returns the i'th name's storage operand for a VarDecl,
// honoring the static-goes-to-globals rule from layoutFunc.
func (g *Generator) varOperand(vd *ast.VarDecl, i int) ir.Operand {
	signed := types.IsSigned(vd.Type.Kind)
	if vd.IsGlobal || vd.Static {
		return ir.GlobOperand(vd.Offset[i], vd.Type.Size, signed)
	}
	return ir.AutoOperand(vd.Offset[i], vd.Type.Size, signed)
}

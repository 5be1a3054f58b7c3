package ast_test

import (
	"testing"

	"quaintlang/internal/ast"
	"quaintlang/internal/diag"
	"quaintlang/internal/quainttest"
	"quaintlang/internal/types"
)

func TestBuildSimpleUnit(t *testing.T) {
	unit := quainttest.BuildOK(t, `
type Point: struct(x: i32, y: i32);
count: i32 = 0;
main(): i32 {
	return 0;
}
`)
	if len(unit.TypeDecls) != 1 || unit.TypeDecls[0].Name != "Point" {
		t.Fatalf("got TypeDecls %+v, want one decl named Point", unit.TypeDecls)
	}
	if len(unit.VarDecls) != 1 || unit.VarDecls[0].Names[0] != "count" {
		t.Fatalf("got VarDecls %+v, want one decl named count", unit.VarDecls)
	}
	if len(unit.Funcs) != 1 || unit.Funcs[0].Name != "main" {
		t.Fatalf("got Funcs %+v, want one func named main", unit.Funcs)
	}
}

func TestBuildCommaChainedDeclarationSharesTypeAndInit(t *testing.T) {
	unit := quainttest.BuildOK(t, "a, b, c: i32 = 1;\nmain(): i32 { return 0; }")
	vd := unit.VarDecls[0]
	if len(vd.Names) != 3 {
		t.Fatalf("got %d names, want 3", len(vd.Names))
	}
	if vd.Init == nil {
		t.Fatal("expected a shared initializer")
	}
}

func TestBuildDuplicateNamesInDeclarationIsInvalid(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, "a, a: i32 = 1;\nmain(): i32 { return 0; }")
	if bag.Status() != diag.Invalid {
		t.Fatalf("got status %v, want Invalid for a duplicate name in one declaration", bag.Status())
	}
}

func TestBuildExposedIllegalOutsideUnit(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, `
main(): i32 {
	exposed x: i32 = 1;
	return 0;
}
`)
	if bag.Status() != diag.Invalid {
		t.Fatal("expected exposed on a local declaration to be invalid")
	}
}

func TestBuildStaticIllegalAtUnitLevel(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, "static x: i32 = 1;\nmain(): i32 { return 0; }")
	if bag.Status() != diag.Invalid {
		t.Fatal("expected static at unit level to be invalid")
	}
}

func TestBuildDuplicateTypeDeclarationIsInvalid(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, `
type T: struct(x: i32);
type T: struct(y: i32);
main(): i32 { return 0; }
`)
	if bag.Status() != diag.Invalid {
		t.Fatal("expected a duplicate type declaration to be invalid")
	}
}

func TestBuildFunctionVsVarDeclDisambiguation(t *testing.T) {
	unit := quainttest.BuildOK(t, `
g: i32 = 1;
f(x: i32): i32 {
	return x;
}
main(): i32 { return 0; }
`)
	if len(unit.VarDecls) != 1 {
		t.Fatalf("got %d var decls, want 1", len(unit.VarDecls))
	}
	if len(unit.Funcs) != 2 {
		t.Fatalf("got %d funcs, want 2 (f and main)", len(unit.Funcs))
	}
}

func TestBuildTypeSpecArray(t *testing.T) {
	unit := quainttest.BuildOK(t, "arr: i32[4] = 0;\nmain(): i32 { return 0; }")
	typ := unit.VarDecls[0].Type
	if typ.Kind != types.I32 || typ.Count != 4 {
		t.Fatalf("got kind=%v count=%d, want i32 count=4", typ.Kind, typ.Count)
	}
}

func TestBuildTypeSpecPointerAndQuaint(t *testing.T) {
	unit := quainttest.BuildOK(t, `
worker(): i32 { return 0; }
main(): i32 {
	p: ptr(i32);
	q: quaint(i32) = ~worker();
	return 0;
}
`)
	body := unit.Funcs[1].Body
	pDecl := body.Stmts[0].(*ast.VarDecl)
	if pDecl.Type.Kind != types.Ptr || pDecl.Type.Subtype.Kind != types.I32 {
		t.Fatalf("got %+v, want ptr(i32)", pDecl.Type)
	}
	qDecl := body.Stmts[1].(*ast.VarDecl)
	if qDecl.Type.Kind != types.Quaint || qDecl.Type.Subtype.Kind != types.I32 {
		t.Fatalf("got %+v, want quaint(i32)", qDecl.Type)
	}
}

func TestBuildUnknownTypeNameIsInvalid(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, "x: Nonexistent = 1;\nmain(): i32 { return 0; }")
	if bag.Status() != diag.Invalid {
		t.Fatal("expected a reference to an undeclared type name to be invalid")
	}
}

func TestBuildDuplicateStructFieldIsInvalid(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, `
type T: struct(x: i32, x: i32);
main(): i32 { return 0; }
`)
	if bag.Status() != diag.Invalid {
		t.Fatal("expected a duplicate struct field name to be invalid")
	}
}

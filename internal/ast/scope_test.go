package ast_test

import (
	"testing"

	"quaintlang/internal/ast"
	"quaintlang/internal/diag"
	"quaintlang/internal/quainttest"
	"quaintlang/internal/token"
)

func TestFindObjectRejectsForwardReferenceToAutomatic(t *testing.T) {
	unit := quainttest.BuildOK(t, `
main(): i32 {
	return x;
	x: i32 = 1;
}
`)
	fn := unit.Funcs[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	name := ret.Value.(*ast.NameExpr)
	refPos := name.Span().Begin.Pos
	if obj := ast.FindObject(fn.Body.Scope, "x", refPos); obj != nil {
		t.Error("expected a reference before x's declaration to not resolve")
	}
}

func TestFindObjectAcceptsBackwardReferenceToAutomatic(t *testing.T) {
	unit := quainttest.BuildOK(t, `
main(): i32 {
	x: i32 = 1;
	return x;
}
`)
	fn := unit.Funcs[0]
	ret := fn.Body.Stmts[1].(*ast.Return)
	name := ret.Value.(*ast.NameExpr)
	refPos := name.Span().Begin.Pos
	obj := ast.FindObject(fn.Body.Scope, "x", refPos)
	if obj == nil || obj.Kind != ast.ObjAutoVar {
		t.Fatal("expected x to resolve to the automatic declared just above")
	}
}

func TestFindObjectAllowsForwardReferenceToFunction(t *testing.T) {
	unit := quainttest.BuildOK(t, `
main(): i32 {
	return helper();
}
helper(): i32 { return 1; }
`)
	fn := unit.Funcs[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	call := ret.Value.(*ast.CallExpr)
	callee := call.Callee.(*ast.NameExpr)
	obj := ast.FindObject(fn.Body.Scope, "helper", callee.Span().Begin.Pos)
	if obj == nil || obj.Kind != ast.ObjFunction {
		t.Fatal("expected a function declared later in the unit to still resolve")
	}
}

func TestFindObjectAllowsForwardReferenceToGlobal(t *testing.T) {
	unit := quainttest.BuildOK(t, `
main(): i32 {
	return g;
}
g: i32 = 1;
`)
	fn := unit.Funcs[0]
	ret := fn.Body.Stmts[0].(*ast.Return)
	name := ret.Value.(*ast.NameExpr)
	obj := ast.FindObject(fn.Body.Scope, "g", name.Span().Begin.Pos)
	if obj == nil || obj.Kind != ast.ObjGlobalVar {
		t.Fatal("expected a global declared later in the unit to still resolve")
	}
}

func TestDuplicateGlobalDeclarationIsReportedOnce(t *testing.T) {
	_, bag := quainttest.CheckUnit(t, `
g: i32 = 1;
g: i32 = 2;
main(): i32 { return 0; }
`)
	if bag.Status() != diag.Invalid {
		t.Fatalf("got status %v, want Invalid for a duplicate global", bag.Status())
	}
	count := 0
	for _, d := range bag.Diagnostics {
		if containsDuplicate(d.Message) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("got %d duplicate-declaration diagnostics, want exactly 1", count)
	}
}

func containsDuplicate(msg string) bool {
	return len(msg) >= len("duplicate declaration") &&
		(msg[:len("duplicate declaration")] == "duplicate declaration")
}

func TestDuplicateParamNameIsInvalid(t *testing.T) {
	_, bag := quainttest.BuildUnit(t, `
f(x: i32, x: i32): i32 { return x; }
main(): i32 { return 0; }
`)
	if bag.Status() != diag.Invalid {
		t.Fatal("expected a duplicate parameter name to be invalid")
	}
}

func TestRepeatedLabelSpellingSharesOneID(t *testing.T) {
	unit := quainttest.BuildOK(t, `
worker(n: i32): i32 {
	if (n) {
		[here];
	} else {
		[here];
	}
	return 0;
}
main(): i32 { return 0; }
`)
	fn := unit.Funcs[0]
	ifStmt := fn.Body.Stmts[0].(*ast.If)
	thenLabel := ifStmt.Then.Stmts[0].(*ast.WaitLabelStmt)
	elseLabel := ifStmt.Else.Stmts[0].(*ast.WaitLabelStmt)
	if thenLabel.LabelID != elseLabel.LabelID {
		t.Errorf("got ids %d and %d, want the same id for two occurrences of [here]", thenLabel.LabelID, elseLabel.LabelID)
	}
	if fn.Labels.Count() != 1 {
		t.Errorf("got %d distinct labels, want 1", fn.Labels.Count())
	}
}

func TestDistinctLabelsGetDistinctSortedIDs(t *testing.T) {
	unit := quainttest.BuildOK(t, `
worker(): i32 {
	[zeta];
	[alpha];
	return 0;
}
main(): i32 { return 0; }
`)
	fn := unit.Funcs[0]
	zeta := fn.Body.Stmts[0].(*ast.WaitLabelStmt)
	alpha := fn.Body.Stmts[1].(*ast.WaitLabelStmt)
	if alpha.LabelID >= zeta.LabelID {
		t.Errorf("got alpha id %d, zeta id %d, want alpha sorted before zeta", alpha.LabelID, zeta.LabelID)
	}
	if fn.Labels.IDFor("alpha") != alpha.LabelID || fn.Labels.IDFor("zeta") != zeta.LabelID {
		t.Error("LabelTable.IDFor must agree with the ids backfilled onto the statements")
	}
	if fn.Labels.IDFor("missing") != -1 {
		t.Error("IDFor should return -1 for a name that was never declared as a label")
	}
}

func TestBuiltinNamesResolveWithoutDeclaration(t *testing.T) {
	unit := quainttest.BuildOK(t, `
main(): i32 {
	pu32(monotime() : u32);
	return true : i32;
}
`)
	fn := unit.Funcs[0]
	obj := ast.FindObject(fn.Body.Scope, "pu32", token.Position{})
	if obj == nil || obj.Kind != ast.ObjBuiltinFunc {
		t.Fatal("expected pu32 to resolve as a built-in function without any declaration")
	}
	trueObj := ast.FindObject(fn.Body.Scope, "true", token.Position{})
	if trueObj == nil || trueObj.Kind != ast.ObjBuiltinConst {
		t.Fatal("expected true to resolve as a built-in constant")
	}
}

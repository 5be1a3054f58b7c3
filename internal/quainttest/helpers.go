// Package quainttest holds pipeline-driving helpers shared by the front
// end's package tests (internal/ast, internal/check, internal/codegen,
// internal/dump): each stage's own tests need a real token stream / CST /
// unit from earlier stages rather than hand-built fixtures, the same way
// internal/vm's own tests drive the whole pipeline up to the VM.
package quainttest

import (
	"strings"
	"testing"

	"quaintlang/internal/ast"
	"quaintlang/internal/check"
	"quaintlang/internal/codegen"
	"quaintlang/internal/cst"
	"quaintlang/internal/diag"
	"quaintlang/internal/ir"
	"quaintlang/internal/lexer"
	"quaintlang/internal/parser"
)

// ParseCST lexes and parses src, failing the test on any error.
func ParseCST(t *testing.T, src string) *cst.Node {
	t.Helper()
	lx := lexer.New("test.qnt", src)
	toks, err := lx.Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	root, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return root
}

// Bag creates a diagnostic bag with src's lines attached for caret display.
func Bag(src string) *diag.Bag {
	return diag.NewBag(strings.Split(src, "\n"))
}

// BuildUnit runs the AST builder (and scope builder) over src and returns
// the resulting unit alongside its diagnostic bag — callers that expect
// errors should inspect the bag themselves rather than calling BuildOK.
func BuildUnit(t *testing.T, src string) (*ast.Unit, *diag.Bag) {
	t.Helper()
	root := ParseCST(t, src)
	bag := Bag(src)
	unit := ast.Build(root, bag)
	return unit, bag
}

// BuildOK is BuildUnit but fails the test on any build diagnostic.
func BuildOK(t *testing.T, src string) *ast.Unit {
	t.Helper()
	unit, bag := BuildUnit(t, src)
	if bag.Status() != diag.Ok {
		t.Fatalf("build errors: %s", bag.Report())
	}
	return unit
}

// CheckUnit builds and then type-checks src, returning the unit and bag
// without asserting success — for tests that expect a typing diagnostic.
func CheckUnit(t *testing.T, src string) (*ast.Unit, *diag.Bag) {
	t.Helper()
	unit, bag := BuildUnit(t, src)
	if bag.Status() != diag.Ok {
		return unit, bag
	}
	check.Check(unit, bag)
	return unit, bag
}

// CheckOK is CheckUnit but fails the test on any build/check diagnostic.
func CheckOK(t *testing.T, src string) *ast.Unit {
	t.Helper()
	unit, bag := CheckUnit(t, src)
	if bag.Status() != diag.Ok {
		t.Fatalf("check errors: %s", bag.Report())
	}
	return unit
}

// Generate runs the full front end through codegen and returns the
// resulting program, failing the test on any diagnostic.
func Generate(t *testing.T, src string) *ir.Program {
	t.Helper()
	unit := CheckOK(t, src)
	bag := Bag(src)
	prog := codegen.Generate(unit, bag)
	if bag.Status() != diag.Ok {
		t.Fatalf("codegen errors: %s", bag.Report())
	}
	return prog
}

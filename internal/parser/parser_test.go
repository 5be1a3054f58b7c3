package parser

import (
	"testing"

	"quaintlang/internal/cst"
	"quaintlang/internal/lexer"
)

func parseSrc(t *testing.T, src string) *cst.Node {
	t.Helper()
	toks, err := lexer.New("t.qnt", src).Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	root, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return root
}

func TestParseUnitWithTypeVarAndFunc(t *testing.T) {
	src := `
type Point: struct(x: i32, y: i32);
count: i32 = 0;
main(): i32 {
	return 0;
}
`
	root := parseSrc(t, src)
	if root.Tag != cst.TagUnit {
		t.Fatalf("got root tag %v, want Unit", root.Tag)
	}
	if len(root.Children) != 3 {
		t.Fatalf("got %d unit-level children, want 3", len(root.Children))
	}
	wantTags := []cst.Tag{cst.TagTypeDecl, cst.TagVarDecl, cst.TagFuncDecl}
	for i, want := range wantTags {
		if root.Children[i].Tag != want {
			t.Errorf("child %d: got tag %v, want %v", i, root.Children[i].Tag, want)
		}
	}
}

func TestParseFuncDeclDistinguishedFromVarDecl(t *testing.T) {
	// Both a function and a variable declaration begin with an optional
	// `exposed` and an identifier; only a following '(' marks a function.
	root := parseSrc(t, "exposed f(x: i32): i32 { return x; }\ng: i32 = 1;")
	if root.Children[0].Tag != cst.TagFuncDecl {
		t.Errorf("got %v, want FuncDecl", root.Children[0].Tag)
	}
	if root.Children[0].Op != "exposed" {
		t.Errorf("got Op %q, want %q", root.Children[0].Op, "exposed")
	}
	if root.Children[1].Tag != cst.TagVarDecl {
		t.Errorf("got %v, want VarDecl", root.Children[1].Tag)
	}
}

func TestParseCommaChainedVarDecl(t *testing.T) {
	root := parseSrc(t, "a, b, c: i32 = 1;")
	vd := root.Children[0]
	nameList := vd.Children[0]
	if len(nameList.Children) != 3 {
		t.Fatalf("got %d names, want 3", len(nameList.Children))
	}
}

func TestParseQualifiersOnVarDecl(t *testing.T) {
	root := parseSrc(t, "static const x: i32 = 1;")
	vd := root.Children[0]
	if vd.Op != "static,const," {
		t.Errorf("got Op %q, want %q", vd.Op, "static,const,")
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := `
main(): i32 {
	if (1) {
		return 1;
	} elif (2) {
		return 2;
	} else {
		return 3;
	}
}
`
	root := parseSrc(t, src)
	fn := root.Children[0]
	body := fn.Children[2]
	ifStmt := body.Children[0]
	if ifStmt.Tag != cst.TagIf {
		t.Fatalf("got %v, want If", ifStmt.Tag)
	}
}

func TestParseWaitForAndUntil(t *testing.T) {
	src := `
worker(): i32 { return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	wait q for 5 msec;
	wait q until worker::done;
	return 0;
}
`
	root := parseSrc(t, src)
	fn := root.Children[1]
	body := fn.Children[2]
	if body.Children[1].Tag != cst.TagWait {
		t.Fatalf("got %v, want Wait", body.Children[1].Tag)
	}
	if body.Children[2].Tag != cst.TagWait {
		t.Fatalf("got %v, want Wait", body.Children[2].Tag)
	}
}

func TestParseMissingSemicolonIsSyntaxError(t *testing.T) {
	toks, err := lexer.New("t.qnt", "x: i32 = 1").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a parse error for a missing semicolon")
	}
}

func TestParseUnclosedParenIsSyntaxError(t *testing.T) {
	toks, err := lexer.New("t.qnt", "f(x: i32 { return x; }").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a parse error for an unclosed parameter list")
	}
}

func TestParseTernaryAndLogicalOperators(t *testing.T) {
	src := `
main(): i32 {
	return (1 && 0) || (1 ? 2 : 3);
}
`
	root := parseSrc(t, src)
	// Just confirming this parses without error is the contract here —
	// precedence/shape is exercised indirectly via internal/ast and
	// internal/check tests that build on top of this tree.
	if root.Tag != cst.TagUnit {
		t.Fatal("expected a parsed unit")
	}
}

package dump_test

import (
	"bytes"
	"strings"
	"testing"

	"quaintlang/internal/dump"
	"quaintlang/internal/quainttest"
)

func TestASTDumpsEveryDeclarationKind(t *testing.T) {
	unit := quainttest.BuildOK(t, `
type Point: struct(x: i32, y: i32);
count: i32 = 0;
main(): i32 {
	return 0;
}
`)
	var buf bytes.Buffer
	dump.AST(&buf, unit)
	out := buf.String()
	for _, want := range []string{"type Point:", "var [count]:", "func main"} {
		if !strings.Contains(out, want) {
			t.Errorf("got dump %q, want it to contain %q", out, want)
		}
	}
}

func TestIRDumpsHeaderAndEveryInstruction(t *testing.T) {
	prog := quainttest.Generate(t, `
main(): i32 {
	a: i32 = 1;
	return a;
}
`)
	var buf bytes.Buffer
	dump.IR(&buf, prog)
	out := buf.String()
	if !strings.Contains(out, "entry=main") {
		t.Errorf("got dump %q, want it to report the entry function", out)
	}
	if !strings.Contains(out, "main:") {
		t.Errorf("got dump %q, want it to label main's entry instruction", out)
	}
	lineCount := strings.Count(out, "\n")
	if lineCount < len(prog.Instrs) {
		t.Errorf("got %d lines, want at least one per instruction (%d)", lineCount, len(prog.Instrs))
	}
}

func TestIRDumpFormatsImmediateOperandsDistinctlyFromStorage(t *testing.T) {
	prog := quainttest.Generate(t, "main(): i32 { return 7; }")
	var buf bytes.Buffer
	dump.IR(&buf, prog)
	out := buf.String()
	if !strings.Contains(out, "imm(7)") {
		t.Errorf("got dump %q, want an imm(7) operand for the literal 7", out)
	}
}

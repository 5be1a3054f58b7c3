package codegen_test

import (
	"testing"

	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
	"quaintlang/internal/quainttest"
)

func TestGlobalLayoutFollowsDeclarationOrder(t *testing.T) {
	prog := quainttest.Generate(t, `
a: i32 = 1;
b: u8 = 2;
c: i32 = 3;
main(): i32 { return 0; }
`)
	// a (offset 0, size 4), b (offset 4, size 1), c (aligned back up to 4,
	// size 4) — 9 bytes of live data padded up to 12.
	if prog.GlobalsSize < 9 {
		t.Fatalf("got GlobalsSize %d, want at least 9", prog.GlobalsSize)
	}
}

func TestFuncEntriesIndexesEveryFunction(t *testing.T) {
	prog := quainttest.Generate(t, `
add(a: i32, b: i32): i32 { return a + b; }
main(): i32 { return add(1, 2); }
`)
	for _, name := range []string{"add", "main"} {
		if _, ok := prog.FuncEntries[name]; !ok {
			t.Errorf("missing FuncEntries entry for %q", name)
		}
	}
	if prog.EntryFunc != "main" {
		t.Errorf("got EntryFunc %q, want main", prog.EntryFunc)
	}
}

func TestFuncEntryOpensWithIncspSizedForLocalsMinusArgs(t *testing.T) {
	prog := quainttest.Generate(t, `
f(a: i32): i32 {
	x: i32 = 1;
	return a + x;
}
main(): i32 { return f(1); }
`)
	entry := prog.FuncEntries["f"]
	instr := prog.Instrs[entry]
	if instr.Op != ir.OpIncsp {
		t.Fatalf("got first instruction %v, want incsp", instr.Op)
	}
	if instr.Size <= 0 {
		t.Errorf("got incsp auto-frame size %d, want positive (room for local x)", instr.Size)
	}
}

func TestFuncBodyEndsWithRetSizedFrameSizePlus16(t *testing.T) {
	prog := quainttest.Generate(t, `
f(a: i32): i32 { return a; }
main(): i32 { return f(1); }
`)
	entry := prog.FuncEntries["f"]
	// Walk forward from entry to the next function's entry (or program
	// end) looking for the trailing ret.
	end := len(prog.Instrs)
	if mainEntry, ok := prog.FuncEntries["main"]; ok && mainEntry > entry {
		end = mainEntry
	}
	found := false
	for i := entry; i < end; i++ {
		if prog.Instrs[i].Op == ir.OpRet {
			found = true
			if prog.Instrs[i].Size < 16 {
				t.Errorf("got ret size %d, want at least 16 (frame_size+16)", prog.Instrs[i].Size)
			}
		}
	}
	if !found {
		t.Fatal("expected a trailing ret instruction in f's body")
	}
}

func TestArithmeticExpressionLowersToAddInstruction(t *testing.T) {
	prog := quainttest.Generate(t, `
main(): i32 {
	a: i32 = 1;
	b: i32 = 2;
	return a + b;
}
`)
	found := false
	for _, instr := range prog.Instrs {
		if instr.Op == ir.OpAdd {
			found = true
		}
	}
	if !found {
		t.Error("expected an add instruction lowered from a + b")
	}
}

func TestWhileLoopLowersToConditionalAndUnconditionalJumps(t *testing.T) {
	prog := quainttest.Generate(t, `
main(): i32 {
	i: u32 = 0;
	while (i < 3) {
		i = i + 1;
	}
	return i : i32;
}
`)
	var hasJz, hasJmp bool
	for _, instr := range prog.Instrs {
		switch instr.Op {
		case ir.OpJz:
			hasJz = true
		case ir.OpJmp:
			hasJmp = true
		}
	}
	if !hasJz || !hasJmp {
		t.Errorf("got hasJz=%v hasJmp=%v, want both true for a while loop", hasJz, hasJmp)
	}
}

func TestQuaintCallConstructionLowersToQnt(t *testing.T) {
	prog := quainttest.Generate(t, `
worker(): i32 { return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	wait q for 0 msec;
	return *q;
}
`)
	var hasQnt, hasWait bool
	for _, instr := range prog.Instrs {
		switch instr.Op {
		case ir.OpQnt:
			hasQnt = true
		case ir.OpWait:
			hasWait = true
		}
	}
	if !hasQnt {
		t.Error("expected a qnt instruction lowered from ~worker()")
	}
	if !hasWait {
		t.Error("expected a wait instruction lowered from wait q for 0 msec")
	}
}

func TestQuaintBareValueLowersToQntv(t *testing.T) {
	prog := quainttest.Generate(t, `
main(): i32 {
	q: quaint(i32) = ~5;
	return *q;
}
`)
	hasQntv := false
	for _, instr := range prog.Instrs {
		if instr.Op == ir.OpQntv {
			hasQntv = true
		}
	}
	if !hasQntv {
		t.Error("expected a qntv instruction lowered from ~5")
	}
}

func TestStructFieldAssignmentLowersWithMemberOffset(t *testing.T) {
	prog := quainttest.Generate(t, `
type Point: struct(x: i32, y: i32);
main(): i32 {
	p: Point;
	p.y = 4;
	return p.y;
}
`)
	// p.y must land at a nonzero auto offset relative to p.x; confirm a
	// mov targets an Auto operand with a nonzero Off somewhere in main.
	foundNonzeroAuto := false
	for _, instr := range prog.Instrs {
		if instr.Dst.Class == ir.Auto && instr.Dst.Off > 0 {
			foundNonzeroAuto = true
		}
	}
	if !foundNonzeroAuto {
		t.Error("expected p.y's store to target a nonzero auto offset")
	}
}

func TestBuiltinProgramPrefixIsOneBfunPerBuiltin(t *testing.T) {
	prog := quainttest.Generate(t, "main(): i32 { return 0; }")
	// NumBuiltins bfun trampolines occupy the program's lowest addresses.
	if len(prog.Instrs) == 0 || prog.Instrs[0].Op != ir.OpBfun {
		t.Fatal("expected the program to open with a bfun trampoline")
	}
	if len(prog.Instrs) < ast.NumBuiltins {
		t.Fatalf("got %d instructions, want at least %d bfun trampolines", len(prog.Instrs), ast.NumBuiltins)
	}
	for i := 0; i < ast.NumBuiltins; i++ {
		if prog.Instrs[i].Op != ir.OpBfun || prog.Instrs[i].BuiltinID != i {
			t.Errorf("instruction %d: got %v for builtin %d, want bfun for builtin %d", i, prog.Instrs[i].Op, prog.Instrs[i].BuiltinID, i)
		}
	}
}

package vm

import (
	"bytes"
	"strings"
	"testing"

	"quaintlang/internal/ast"
	"quaintlang/internal/check"
	"quaintlang/internal/codegen"
	"quaintlang/internal/diag"
	"quaintlang/internal/ir"
	"quaintlang/internal/lexer"
	"quaintlang/internal/parser"
)

// compile drives the full front end over src and returns the generated
// program, failing the test on any lex/parse/build/check error — every
// end-to-end scenario below exercises the VM against a real compiled
// program rather than hand-assembled ir.Instr slices, the same way
// cmd/quaintc's own pipeline produces one.
func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	lx := lexer.New("test.qnt", src)
	toks, err := lx.Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	cstRoot, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	lines := strings.Split(src, "\n")
	bag := diag.NewBag(lines)
	unit := ast.Build(cstRoot, bag)
	if bag.Status() != diag.Ok {
		t.Fatalf("build errors: %s", bag.Report())
	}
	check.Check(unit, bag)
	if bag.Status() != diag.Ok {
		t.Fatalf("check errors: %s", bag.Report())
	}
	prog := codegen.Generate(unit, bag)
	if bag.Status() != diag.Ok {
		t.Fatalf("codegen errors: %s", bag.Report())
	}
	return prog
}

// runSource compiles and runs src to completion, returning its exit code
// and everything it printed.
func runSource(t *testing.T, src string) (int32, string) {
	t.Helper()
	prog := compile(t, src)
	m := NewMachine(prog)
	var out bytes.Buffer
	m.SetStdout(&out)
	code, err := m.Run()
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return code, out.String()
}

func TestArithmeticAndExit(t *testing.T) {
	src := `
main(): i32 {
	a: i32 = 7;
	b: i32 = 6;
	return a * b;
}
`
	code, _ := runSource(t, src)
	if code != 42 {
		t.Errorf("got exit code %d, want 42", code)
	}
}

func TestPrintBuiltins(t *testing.T) {
	src := `
main(): i32 {
	pu32(100);
	pnl();
	return 0;
}
`
	code, out := runSource(t, src)
	if code != 0 {
		t.Errorf("got exit code %d, want 0", code)
	}
	if out != "100\n" {
		t.Errorf("got output %q, want %q", out, "100\n")
	}
}

func TestStructLayoutAndMemberAccess(t *testing.T) {
	src := `
type Point: struct(x: i32, y: i32);

main(): i32 {
	p: Point;
	p.x = 3;
	p.y = 4;
	return p.x + p.y;
}
`
	code, _ := runSource(t, src)
	if code != 7 {
		t.Errorf("got exit code %d, want 7", code)
	}
}

func TestPointerArithmetic(t *testing.T) {
	src := `
main(): i32 {
	arr: i32[4];
	p: ptr(i32) = &arr[0];
	*p = 10;
	p = p + 1;
	*p = 20;
	return arr[0] + arr[1];
}
`
	code, _ := runSource(t, src)
	if code != 30 {
		t.Errorf("got exit code %d, want 30", code)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	src := `
main(): i32 {
	i: u32 = 0;
	sum: u32 = 0;
	while (i < 5) {
		sum = sum + i;
		i = i + 1;
	}
	return sum : i32;
}
`
	code, _ := runSource(t, src)
	if code != 10 {
		t.Errorf("got exit code %d, want 10", code)
	}
}

func TestQuaintRunsToEndAndMoveOutRte(t *testing.T) {
	src := `
worker(n: i32): i32 {
	return n * 2;
}

main(): i32 {
	q: quaint(i32) = ~worker(21);
	wait q for 0 msec;
	return *q;
}
`
	code, _ := runSource(t, src)
	if code != 42 {
		t.Errorf("got exit code %d, want 42", code)
	}
}

func TestQuaintBareValueWrap(t *testing.T) {
	src := `
main(): i32 {
	q: quaint(i32) = ~5;
	return *q;
}
`
	code, _ := runSource(t, src)
	if code != 5 {
		t.Errorf("got exit code %d, want 5", code)
	}
}

func TestQuaintAtEndQuery(t *testing.T) {
	src := `
worker(): i32 {
	return 1;
}

main(): i32 {
	q: quaint(i32) = ~worker();
	wait q for 1 msec;
	if (q@end) {
		return 9;
	}
	return 0;
}
`
	// worker has no wait of its own, so handing it control via the
	// nonzero-timeout wait runs it to completion synchronously — the
	// timeout never actually needs to elapse.
	code, _ := runSource(t, src)
	if code != 9 {
		t.Errorf("got exit code %d, want 9", code)
	}
}

// TestPollSchedulerResumesOnTimeout exercises the deadline-based scheduler
// hop directly (spec.md §4.5's periodic poll), without relying on a child
// quaint actually burning enough instructions in real time: a parent
// suspended on a timeout that has already elapsed must regain control the
// next time pollScheduler walks its ancestor chain, and its child (still
// running, not at_end) must not be freed.
func TestPollSchedulerResumesOnTimeout(t *testing.T) {
	m := &Machine{clock: &fakeClock{now: 1_000_000}}
	root := newVM(0)
	child := newVM(1)
	child.parent = root
	root.susp = &suspension{kind: suspWaitTimeout, child: child, deadlineNs: 0}
	m.active = child

	m.pollScheduler()

	if m.active != root {
		t.Fatal("a parent whose wait timeout has elapsed should regain control")
	}
	if root.susp != nil {
		t.Error("the suspension should be cleared once resumed")
	}
}

// TestPollSchedulerRespectsNoint confirms a noint-flagged ancestor blocks a
// scheduler hop even though the wait it would otherwise interrupt is
// already satisfiable.
func TestPollSchedulerRespectsNoint(t *testing.T) {
	m := &Machine{clock: &fakeClock{now: 1_000_000}}
	root := newVM(0)
	child := newVM(1)
	child.parent = root
	root.flags |= flagNoint
	root.susp = &suspension{kind: suspWaitTimeout, child: child, deadlineNs: 0}
	m.active = child

	m.pollScheduler()

	if m.active != child {
		t.Error("a noint ancestor must block the scheduler hop")
	}
}

func TestSatisfiedEarlyLabelRequiresMatchingFuncAndLabel(t *testing.T) {
	child := newVM(1)
	s := &suspension{kind: suspWaitLabel, child: child, funcID: 2, labelID: 3}
	if s.satisfiedEarly(0) {
		t.Error("should not be satisfied before the label is passed")
	}
	child.hasLastPassed = true
	child.lastPassedFunc, child.lastPassedLabel = 2, 3
	if !s.satisfiedEarly(0) {
		t.Error("should be satisfied once the matching function/label pair is passed")
	}
}

func TestWaitUntilLabelUnblocksOnPassedLabel(t *testing.T) {
	src := `
worker(): i32 {
	[ready];
	return 1;
}

main(): i32 {
	q: quaint(i32) = ~worker();
	wait q until worker::ready;
	return 5;
}
`
	code, _ := runSource(t, src)
	if code != 5 {
		t.Errorf("got exit code %d, want 5", code)
	}
}

// fakeClock advances by a fixed step on every read, so a `wait for`
// timeout is guaranteed to elapse after enough scheduler polls without the
// test depending on wall-clock time.
type fakeClock struct{ now int64 }

func (c *fakeClock) NowNano() int64 {
	c.now += int64(5 * 1e6) // 5ms per observation
	return c.now
}

// TestCallDisciplineReturnsSpToEntryValue exercises the pushr/push/call/
// incsp/ret accounting end to end: a function with parameters, locals, and
// a nested call must leave the caller's sp exactly where it started,
// mirroring the bootstrap invariant Run() relies on for the entry function
// itself (see the comment on Run).
func TestCallDisciplineReturnsSpToEntryValue(t *testing.T) {
	src := `
add(a: i32, b: i32): i32 {
	return a + b;
}

main(): i32 {
	x: i32 = add(1, 2);
	y: i32 = add(x, add(3, 4));
	return y;
}
`
	code, _ := runSource(t, src)
	if code != 10 {
		t.Errorf("got exit code %d, want 10", code)
	}
}

// TestRootBootstrapLeavesSpAtZeroOnExit is a regression test for the
// root-activation bootstrap: a program with no quaints and no explicit
// exit() call must still terminate cleanly by falling off the end of
// main's generated ret, which requires sp to unwind to exactly zero.
func TestRootBootstrapLeavesSpAtZeroOnExit(t *testing.T) {
	src := `
main(): i32 {
	return 0;
}
`
	code, _ := runSource(t, src)
	if code != 0 {
		t.Errorf("got exit code %d, want 0", code)
	}
}

// TestGlobalInitializerWithTemps exercises genInit's own temp-frame
// allocation: a global initializer that needs an intermediate temp (not
// just a bare literal store) must not panic on an empty root temp frame.
func TestGlobalInitializerWithTemps(t *testing.T) {
	src := `
total: i32 = 2 * 3 + 4;

main(): i32 {
	return total;
}
`
	code, _ := runSource(t, src)
	if code != 10 {
		t.Errorf("got exit code %d, want 10", code)
	}
}

func TestExitBuiltinSetsExitCodeImmediately(t *testing.T) {
	src := `
main(): i32 {
	exit(7);
	return 99;
}
`
	code, _ := runSource(t, src)
	if code != 7 {
		t.Errorf("got exit code %d, want 7 (exit() should short-circuit before the trailing return)", code)
	}
}

package check_test

import (
	"testing"

	"quaintlang/internal/diag"
	"quaintlang/internal/quainttest"
)

func wantInvalid(t *testing.T, src string) {
	t.Helper()
	_, bag := quainttest.CheckUnit(t, src)
	if bag.Status() != diag.Invalid {
		t.Fatalf("got status %v, want Invalid for:\n%s", bag.Status(), src)
	}
}

func wantOK(t *testing.T, src string) {
	t.Helper()
	quainttest.CheckOK(t, src)
}

func TestAssignRequiresLValueTarget(t *testing.T) {
	wantInvalid(t, "main(): i32 { 1 = 2; return 0; }")
}

func TestAssignRequiresStructurallyEqualTypes(t *testing.T) {
	wantInvalid(t, `
type A: struct(x: i32);
type B: struct(x: u32);
main(): i32 {
	a: A;
	b: B;
	a = b;
	return 0;
}
`)
}

func TestAssignAcceptsStructurallyEqualAggregate(t *testing.T) {
	wantOK(t, `
type A: struct(x: i32);
type B: struct(x: i32);
main(): i32 {
	a: A;
	b: B;
	a = b;
	return 0;
}
`)
}

func TestCompoundArithRequiresLValue(t *testing.T) {
	wantInvalid(t, "main(): i32 { 1 += 2; return 0; }")
}

func TestCompoundBitwiseRequiresUnsignedOperands(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; x <<= 2; return 0; }")
}

func TestCompoundBitwiseAcceptsUnsignedOperands(t *testing.T) {
	wantOK(t, "main(): i32 { x: u32 = 1; x <<= 2; return 0; }")
}

func TestPlainArithRequiresEqualSizeAndSignedness(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; y: u8 = 2; return x + y; }")
}

func TestPointerArithAllowedForPlusMinusOnly(t *testing.T) {
	wantOK(t, `
main(): i32 {
	arr: i32[4];
	p: ptr(i32) = &arr[0];
	p = p + 1;
	return 0;
}
`)
}

func TestBitwiseShiftRequiresUnsignedOperands(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; y: i32 = 2; return x << y; }")
}

func TestComparisonRequiresMatchingSize(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; y: i64 = 2; return (x < y) : i32; }")
}

func TestComparisonRequiresMatchingSignedness(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; y: u32 = 2; return (x < y) : i32; }")
}

func TestComparisonAllowsPointerOperands(t *testing.T) {
	wantOK(t, `
main(): i32 {
	arr: i32[4];
	p: ptr(i32) = &arr[0];
	q: ptr(i32) = &arr[1];
	return (p < q) : i32;
}
`)
}

func TestMemberAccessDotRequiresLValueBase(t *testing.T) {
	wantInvalid(t, `
type P: struct(x: i32);
f(): P { p: P; return p; }
main(): i32 {
	return f().x;
}
`)
}

func TestMemberAccessArrowRequiresPointerBase(t *testing.T) {
	wantInvalid(t, `
type P: struct(x: i32);
main(): i32 {
	p: P;
	return p->x;
}
`)
}

func TestMemberAccessArrowAcceptsPointerToStruct(t *testing.T) {
	wantOK(t, `
type P: struct(x: i32);
main(): i32 {
	p: P;
	pp: ptr(P) = &p;
	return pp->x;
}
`)
}

func TestUnaryDerefRequiresPointerOrQuaint(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; return *x; }")
}

func TestUnaryAddressRequiresLValue(t *testing.T) {
	wantInvalid(t, "main(): i32 { p: ptr(i32) = &1; return 0; }")
}

func TestUnaryBitwiseNotRequiresUnsignedOperand(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; y: i32 = ^x : i32; return y; }")
}

func TestUnaryBitwiseNotAcceptsUnsignedOperand(t *testing.T) {
	wantOK(t, "main(): i32 { x: u32 = 1; y: u32 = ^x; return 0; }")
}

func TestIncrementRequiresLValue(t *testing.T) {
	wantInvalid(t, "main(): i32 { ++1; return 0; }")
}

func TestIncrementAcceptsIntegerLValue(t *testing.T) {
	wantOK(t, "main(): i32 { x: i32 = 1; ++x; x++; return x; }")
}

func TestTernaryRequiresStructurallyEqualBranches(t *testing.T) {
	wantInvalid(t, "main(): i32 { return (1 ? (2 : i32) : (3 : u32)); }")
}

func TestTernaryAcceptsMatchingBranches(t *testing.T) {
	wantOK(t, "main(): i32 { return 1 ? 2 : 3; }")
}

func TestCallRejectsWrongArity(t *testing.T) {
	wantInvalid(t, `
add(a: i32, b: i32): i32 { return a + b; }
main(): i32 { return add(1); }
`)
}

func TestCallRejectsMismatchedArgumentType(t *testing.T) {
	wantInvalid(t, `
f(a: ptr(i32)): i32 { return 0; }
main(): i32 { return f(1); }
`)
}

func TestCallAcceptsMatchingSignature(t *testing.T) {
	wantOK(t, `
add(a: i32, b: i32): i32 { return a + b; }
main(): i32 { return add(1, 2); }
`)
}

func TestSubscriptRequiresArrayBase(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; i: u32 = 0; return x[i]; }")
}

func TestSubscriptRequiresUnsignedIndex(t *testing.T) {
	wantInvalid(t, "main(): i32 { arr: i32[4]; i: i32 = 0; return arr[i]; }")
}

func TestCastAnnotationAcceptsAnyNonVoidOperand(t *testing.T) {
	wantOK(t, "main(): i32 { x: u64 = 1; return x : i32; }")
}

func TestQuaintAtRequiresQuaintOperand(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; return (x@end) : i32; }")
}

func TestQuaintAtAcceptsEndOnQuaintOperand(t *testing.T) {
	wantOK(t, `
worker(): i32 { return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	return (q@end) : i32;
}
`)
}

func TestQuaintAtLabelRequiresKnownFunctionAndLabel(t *testing.T) {
	wantInvalid(t, `
worker(): i32 { [there]; return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	return (q@worker::nowhere) : i32;
}
`)
}

func TestReturnVoidFunctionRejectsValue(t *testing.T) {
	wantInvalid(t, "f() { return 1; }\nmain(): i32 { f(); return 0; }")
}

func TestReturnNonVoidFunctionRequiresValue(t *testing.T) {
	wantInvalid(t, "f(): i32 { return; }\nmain(): i32 { return f(); }")
}

func TestReturnNonVoidFunctionRejectsMismatchedType(t *testing.T) {
	wantInvalid(t, "f(): i32 { return 1 : u8; }\nmain(): i32 { return f(); }")
}

func TestWaitUntilRequiresKnownFunctionAndLabel(t *testing.T) {
	wantInvalid(t, `
worker(): i32 { [ready]; return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	wait q until worker::missing;
	return 0;
}
`)
}

func TestWaitForRequiresUnsignedTimeout(t *testing.T) {
	wantInvalid(t, `
worker(): i32 { return 1; }
main(): i32 {
	q: quaint(i32) = ~worker();
	t: i32 = 5;
	wait q for t msec;
	return 0;
}
`)
}

func TestWaitRequiresQuaintOperand(t *testing.T) {
	wantInvalid(t, "main(): i32 { x: i32 = 1; wait x for 5 msec; return 0; }")
}

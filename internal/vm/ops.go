package vm

import "quaintlang/internal/ir"

// execArith performs the ten arithmetic/bitwise opcodes, dispatching on
// (size, signedness) per spec.md §4.5: "arithmetic, comparison, and
// bitwise ops dispatch by operand size and sign; mismatched operand sizes
// or signs between A and B is an illegal instruction." Dst's size is the
// result's truncation width.
func (m *Machine) execArith(v *VM, instr ir.Instr) error {
	if instr.A.Size != instr.B.Size || instr.A.Signed != instr.B.Signed {
		return &RuntimeError{IP: v.ip, Message: "arithmetic operand size/sign mismatch"}
	}
	a := m.readOperand(v, instr.A)
	b := m.readOperand(v, instr.B)
	signed := instr.A.Signed

	var result uint64
	switch instr.Op {
	case ir.OpAdd:
		result = a + b
	case ir.OpSub:
		result = a - b
	case ir.OpMul:
		if signed {
			result = uint64(int64(a) * int64(b))
		} else {
			result = a * b
		}
	case ir.OpDiv:
		if b == 0 {
			return &RuntimeError{IP: v.ip, Message: "division by zero"}
		}
		if signed {
			result = uint64(int64(a) / int64(b))
		} else {
			result = a / b
		}
	case ir.OpMod:
		if b == 0 {
			return &RuntimeError{IP: v.ip, Message: "division by zero"}
		}
		if signed {
			result = uint64(int64(a) % int64(b))
		} else {
			result = a % b
		}
	case ir.OpLsh:
		result = a << (b & 63)
	case ir.OpRsh:
		if signed {
			result = uint64(int64(a) >> (b & 63))
		} else {
			result = a >> (b & 63)
		}
	case ir.OpAnd:
		result = a & b
	case ir.OpXor:
		result = a ^ b
	case ir.OpOr:
		result = a | b
	}

	m.writeOperand(v, instr.Dst, result&sizeMask(instr.Dst.Size))
	v.ip++
	return nil
}

// execCompare performs the six relational opcodes. Per spec.md §8's
// testable property, the destination is always a size-1 unsigned boolean
// regardless of the operand size/sign being compared.
func (m *Machine) execCompare(v *VM, instr ir.Instr) error {
	if instr.A.Size != instr.B.Size || instr.A.Signed != instr.B.Signed {
		return &RuntimeError{IP: v.ip, Message: "comparison operand size/sign mismatch"}
	}
	a := m.readOperand(v, instr.A)
	b := m.readOperand(v, instr.B)
	signed := instr.A.Signed

	var result bool
	if signed {
		sa, sb := int64(a), int64(b)
		switch instr.Op {
		case ir.OpEqu:
			result = sa == sb
		case ir.OpNeq:
			result = sa != sb
		case ir.OpLt:
			result = sa < sb
		case ir.OpGt:
			result = sa > sb
		case ir.OpLte:
			result = sa <= sb
		case ir.OpGte:
			result = sa >= sb
		}
	} else {
		switch instr.Op {
		case ir.OpEqu:
			result = a == b
		case ir.OpNeq:
			result = a != b
		case ir.OpLt:
			result = a < b
		case ir.OpGt:
			result = a > b
		case ir.OpLte:
			result = a <= b
		case ir.OpGte:
			result = a >= b
		}
	}

	m.writeOperand(v, instr.Dst, boolVal(result))
	v.ip++
	return nil
}

// execStep performs ++/--/prefix/postfix pointer-scaled steps. instr.Size
// carries the step amount codegen already scaled (1 for plain integers,
// the pointee size for pointer inc/dec), per internal/codegen/expr.go's
// stepSize helper.
func (m *Machine) execStep(v *VM, instr ir.Instr) {
	a := m.readOperand(v, instr.A)
	var result uint64
	switch instr.Op {
	case ir.OpInc, ir.OpIncp:
		result = a + uint64(instr.Size)
	case ir.OpDec, ir.OpDecp:
		result = a - uint64(instr.Size)
	}
	result &= sizeMask(instr.A.Size)
	m.writeOperand(v, instr.A, result)
	if instr.Dst != (ir.Operand{}) {
		if instr.Op == ir.OpIncp || instr.Op == ir.OpDecp {
			m.writeOperand(v, instr.Dst, a)
		} else {
			m.writeOperand(v, instr.Dst, result)
		}
	}
}

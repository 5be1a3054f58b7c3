package vm

import (
	"encoding/binary"

	"quaintlang/internal/ir"
)

// execPushr reserves the two-word return-link region per spec.md §4.5:
// "writes the return ip (supplied as an immediate set by the compiler) and
// caller's bp to the current stack top, advances sp by 16, publishes the
// new sp as ssp."
func (m *Machine) execPushr(v *VM, instr ir.Instr) {
	binary.LittleEndian.PutUint64(v.stack[v.sp:], uint64(instr.Target))
	binary.LittleEndian.PutUint64(v.stack[v.sp+8:], uint64(v.bp))
	v.sp += 16
	v.pendingSSP = v.sp
}

// execPush copies one argument, 8-aligned, per spec.md §4.5.
func (m *Machine) execPush(v *VM, instr ir.Instr) {
	val := m.readOperand(v, instr.A)
	writeSized(v.stack[v.sp:], val, instr.A.Size)
	v.sp += alignUp(instr.A.Size, 8)
}

// execCall loads ip from the target operand and sets bp to the ssp pushr
// captured, so the callee sees its arguments at auto[0..] (spec.md §4.5).
// Builtin targets and user-function targets are indistinguishable here:
// both resolve to a plain instruction index, since built-in ids double as
// entry locations (spec.md §6).
func (m *Machine) execCall(v *VM, instr ir.Instr, hasValue bool) {
	target := m.readOperand(v, instr.A)
	v.callStack = append(v.callStack, callRecord{hasValue: hasValue, dst: instr.Dst})
	v.bp = v.pendingSSP
	v.ip = int(target)
}

// execIncsp reserves the auto-frame bytes beyond the argument region and
// allocates this activation's temp frame, per spec.md §4.5.
func (m *Machine) execIncsp(v *VM, instr ir.Instr) {
	v.sp += instr.Size
	v.temps = append(v.temps, make([]byte, instr.TempSize))
}

// handleReturn implements spec.md §4.5's ret/retv: unwind frame_size+16
// bytes, free the top temp frame, and either resume the caller within this
// same VM or, if sp reaches zero, hand control back across the quaint
// boundary to the parent (or exit the process, for the root VM).
func (m *Machine) handleReturn(v *VM, instr ir.Instr, hasValue bool, val uint64) {
	v.temps = v.temps[:len(v.temps)-1]
	v.sp -= instr.Size

	if v.sp == 0 {
		v.flags |= flagAtEnd
		if hasValue {
			v.finalValue = val
			v.hasFinalValue = true
		}
		if v.parent == nil {
			m.exited = true
			if hasValue {
				m.exitCode = int32(val)
			}
			return
		}
		m.resumeSuspension(v.parent)
		return
	}

	savedIP := binary.LittleEndian.Uint64(v.stack[v.sp:])
	savedBP := binary.LittleEndian.Uint64(v.stack[v.sp+8:])

	n := len(v.callStack) - 1
	rec := v.callStack[n]
	v.callStack = v.callStack[:n]

	v.ip = int(savedIP)
	v.bp = int(savedBP)
	if rec.hasValue {
		write := val
		if !hasValue {
			write = 0
		}
		m.writeOperand(v, rec.dst, write)
	}
}

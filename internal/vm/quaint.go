package vm

import (
	"quaintlang/internal/ir"
)

// suspKind distinguishes why a VM handed control down to a child quaint,
// so the eventual resume (either inline, when the child is already
// at_end, or later via handleReturn/pollScheduler) knows what to do with
// the result.
type suspKind int

const (
	suspRte suspKind = iota
	suspRtev
	suspWaitTimeout
	suspWaitLabel
)

// suspension records a waiter's pending observation of a specific child
// quaint — spec.md §9's "quaint handles" note plus §4.5's rte/rtev/wait
// continuations, all unified under one struct since every case ends the
// same way: either the child reaches at_end (the only condition rte/rtev
// ever wait on) or, for wait, a timeout/label condition fires early while
// the child is still running.
type suspension struct {
	kind  suspKind
	child *VM

	dst ir.Operand // suspRtev: where to deposit the child's final value

	hasHandleOp bool
	handleOp    ir.Operand // storage cell holding the quaint handle, zeroed on free

	deadlineNs int64 // suspWaitTimeout
	funcID     int   // suspWaitLabel
	labelID    int
}

// satisfiedEarly reports whether s can resolve before its child reaches
// at_end — only meaningful for the two wait variants; rte/rtev never
// resolve early; the child simply isn't at_end yet.
func (s *suspension) satisfiedEarly(now int64) bool {
	switch s.kind {
	case suspWaitTimeout:
		return now >= s.deadlineNs
	case suspWaitLabel:
		return s.child.hasLastPassed && s.child.lastPassedFunc == s.funcID && s.child.lastPassedLabel == s.labelID
	}
	return false
}

// allocQuaint reserves a slab slot for a new quaint VM, reusing a freed id
// where possible (spec.md §9: "Inside the VM that id indexes a slab of
// QuaintVM records").
func (m *Machine) allocQuaint() *VM {
	if n := len(m.freeList); n > 0 {
		id := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		v := newVM(id)
		m.quaints[id] = v
		return v
	}
	id := len(m.quaints)
	v := newVM(id)
	m.quaints = append(m.quaints, v)
	return v
}

// freeQuaint releases id back to the slab. "Null is the literal zero id"
// (spec.md §9) so id 0 (the root) is never freed through this path.
func (m *Machine) freeQuaint(v *VM) {
	if v == nil || v.id == 0 {
		return
	}
	m.quaints[v.id] = nil
	m.freeList = append(m.freeList, v.id)
}

func (m *Machine) lookupQuaint(handle uint64) *VM {
	if handle == 0 {
		return nil
	}
	id := int(handle)
	if id <= 0 || id >= len(m.quaints) {
		return nil
	}
	return m.quaints[id]
}

// execQnt lowers `~f(args)` per spec.md §4.5: allocate a child VM, point
// its ip at the target function, copy the pushed argument bytes into its
// stack just above a reserved two-word link region, and hand the caller
// back a handle.
func (m *Machine) execQnt(v *VM, instr ir.Instr) {
	child := m.allocQuaint()
	child.ip = instr.FuncEntry

	ssp := int(m.readOperand(v, instr.B))
	argsSize := v.sp - ssp
	child.bp = 16
	copy(child.stack[16:16+argsSize], v.stack[ssp:v.sp])
	child.sp = 16 + argsSize

	v.sp = ssp
	m.writeOperand(v, instr.Dst, uint64(child.id))
	v.ip++
}

// execQntv lowers `~x` per spec.md §4.5: a child already in
// at_start|at_end state, holding x as its final value.
func (m *Machine) execQntv(v *VM, instr ir.Instr) {
	child := m.allocQuaint()
	child.flags |= flagAtEnd
	child.finalValue = m.readOperand(v, instr.A)
	child.hasFinalValue = true

	m.writeOperand(v, instr.Dst, uint64(child.id))
	v.ip++
}

// execQat lowers `q@...` per spec.md §4.5's three query forms.
func (m *Machine) execQat(v *VM, instr ir.Instr) {
	handle := m.readOperand(v, instr.A)
	child := m.lookupQuaint(handle)

	var result bool
	if child != nil {
		switch instr.AtKind {
		case ir.AtQueryStart:
			result = child.flags&flagAtStart != 0
		case ir.AtQueryEnd:
			result = child.flags&flagAtEnd != 0
		case ir.AtQueryLabel:
			result = child.hasLastPassed && child.lastPassedFunc == instr.FuncID && child.lastPassedLabel == instr.LabelID
		}
	}
	m.writeOperand(v, instr.Dst, boolVal(result))
	v.ip++
}

// execRte lowers `*q` (withValue true, emitted as rtev) and the bare
// rte/rtev statement forms, per spec.md §4.5: null quaint zeroes the
// destination and advances; an already-at_end quaint is copied out and
// freed immediately; otherwise the caller suspends and the child becomes
// active, running until it next reaches its own suspension or returns.
func (m *Machine) execRte(v *VM, instr ir.Instr, withValue bool) {
	handle := m.readOperand(v, instr.A)
	child := m.lookupQuaint(handle)

	if child == nil {
		if withValue {
			m.writeOperand(v, instr.Dst, 0)
		}
		m.writeOperand(v, instr.A, 0)
		v.ip++
		return
	}
	if child.flags&flagAtEnd != 0 {
		if withValue {
			m.writeOperand(v, instr.Dst, child.finalValue)
		}
		m.freeQuaint(child)
		m.writeOperand(v, instr.A, 0)
		v.ip++
		return
	}

	kind := suspRte
	if withValue {
		kind = suspRtev
	}
	child.parent = v
	v.susp = &suspension{kind: kind, child: child, dst: instr.Dst, hasHandleOp: true, handleOp: instr.A}
	m.active = child
}

// execWait lowers `wait` per spec.md §4.5/§9, including the noblock label
// carve-out DESIGN.md documents: `wait q until F::L noblock` still
// suspends when the label has not yet been passed; it only short-circuits
// when the label was already passed before the wait executed.
func (m *Machine) execWait(v *VM, instr ir.Instr) {
	handle := m.readOperand(v, instr.A)
	child := m.lookupQuaint(handle)

	if child == nil || child.flags&flagAtEnd != 0 {
		v.ip++
		return
	}

	if instr.Wait.UntilLabel {
		if child.hasLastPassed && child.lastPassedFunc == instr.FuncID && child.lastPassedLabel == instr.LabelID {
			v.ip++
			return
		}
		child.parent = v
		v.susp = &suspension{kind: suspWaitLabel, child: child, funcID: instr.FuncID, labelID: instr.LabelID}
		m.active = child
		return
	}

	if instr.Wait.Noblock {
		v.ip++
		return
	}
	timeout := m.readOperand(v, instr.B)
	if timeout == 0 {
		v.ip++
		return
	}
	ns := int64(timeout)
	if instr.Wait.Msec {
		ns *= 1_000_000
	} else {
		ns *= 1_000_000_000
	}
	child.parent = v
	v.susp = &suspension{kind: suspWaitTimeout, child: child, deadlineNs: m.clock.NowNano() + ns}
	m.active = child
}

// resumeSuspension completes v's pending suspension against its child,
// depositing a value for suspRtev and freeing the child whenever it has
// actually reached at_end (spec.md §8: "exactly one of rte, rtev, or
// observer-suspended-wait-reaching-at-end frees its stack").
func (m *Machine) resumeSuspension(v *VM) {
	s := v.susp
	if s.kind == suspRtev {
		m.writeOperand(v, s.dst, s.child.finalValue)
	}
	if s.child.flags&flagAtEnd != 0 {
		if s.hasHandleOp {
			m.writeOperand(v, s.handleOp, 0)
		}
		m.freeQuaint(s.child)
	}
	v.susp = nil
	v.ip++
	m.active = v
}

// pollScheduler implements spec.md §4.5's periodic hop: walk up from the
// active VM's parent chain; a `noint`-flagged frame blocks any hop that
// would pass through it; otherwise the nearest ancestor whose wait has
// become satisfiable (by timeout, label match, or its child simply
// finishing) regains control.
func (m *Machine) pollScheduler() {
	now := m.clock.NowNano()
	for cur := m.active; cur != nil; cur = cur.parent {
		if cur.flags&flagNoint != 0 {
			return
		}
		if cur.susp == nil {
			continue
		}
		if cur.susp.child.flags&flagAtEnd != 0 || cur.susp.satisfiedEarly(now) {
			m.resumeSuspension(cur)
			return
		}
	}
}

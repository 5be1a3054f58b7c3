package vm

import (
	"encoding/binary"
	"fmt"

	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
)

// builtinSig mirrors internal/ast's BuiltinSignature just enough for the
// VM to compute argument offsets the same way internal/codegen's
// layoutFunc lays out ordinary parameters — sequential, 8-aligned between
// params — since built-ins are called through the exact same
// pushr/push/call sequence as user functions (spec.md §4.5).
type builtinSig struct {
	paramSizes  []int
	paramSigned []bool
	retSize     int
	retSigned   bool
	hasRet      bool
}

var builtinSigs = buildBuiltinSigs()

func buildBuiltinSigs() map[int]builtinSig {
	sigs := map[int]builtinSig{}
	for _, bf := range ast.BuiltinFuncs() {
		sig := builtinSig{}
		for _, p := range bf.Params {
			sig.paramSizes = append(sig.paramSizes, p.Size)
			sig.paramSigned = append(sig.paramSigned, signedKind(p.Kind))
		}
		if bf.ReturnType != nil {
			sig.hasRet = true
			sig.retSize = bf.ReturnType.Size
			sig.retSigned = signedKind(bf.ReturnType.Kind)
		}
		sigs[bf.ID] = sig
	}
	return sigs
}

func signedKind(k interface{ String() string }) bool {
	// avoids importing internal/types just for IsSigned in this file;
	// every builtin param/return kind is already a concrete integer or
	// pointer kind quantified by internal/types, so the sign only matters
	// for the handful of signed-print built-ins, matched on string form.
	switch k.String() {
	case "i8", "i16", "i32", "i64", "iptr", "ssize":
		return true
	}
	return false
}

// argOffsets replays internal/codegen's layoutFunc param-offset rule so
// the VM reads built-in arguments from the exact same auto-frame cells the
// compiler pushed them into.
func argOffsets(sizes []int) []int {
	offs := make([]int, len(sizes))
	off := 0
	for i, sz := range sizes {
		off = alignUp(off, 8)
		offs[i] = off
		off += sz
		off = alignUp(off, 8)
	}
	return offs
}

// execBuiltin performs built-in id k's side effect then returns through
// the same unwind math as handleReturn, treating the built-in's (fixed,
// local-free) parameter list as its entire frame — spec.md §4.5: "the
// dispatcher reads arguments straight off the caller's stack ... then
// performs a normal return through handle_return."
func (m *Machine) execBuiltin(v *VM, instr ir.Instr) {
	sig := builtinSigs[instr.BuiltinID]
	offs := argOffsets(sig.paramSizes)
	arg := func(i int) uint64 {
		buf := v.stack[v.bp+offs[i]:]
		return readSized(buf, sig.paramSizes[i], sig.paramSigned[i])
	}

	var retVal uint64
	switch instr.BuiltinID {
	case ast.BFMonotime:
		retVal = uint64(m.clock.NowNano())
	case ast.BFMalloc:
		retVal = m.heap.alloc(int(arg(0)))
	case ast.BFCalloc:
		addr := m.heap.alloc(int(arg(0)))
		if buf, ok := m.resolveAddr(addr); ok {
			for i := range buf[:arg(0)] {
				buf[i] = 0
			}
		}
		retVal = addr
	case ast.BFRealloc:
		retVal = m.heap.realloc(arg(0), int(arg(1)))
	case ast.BFFree:
		m.heap.free_(arg(0))
	case ast.BFPS:
		m.printCString(arg(0))
	case ast.BFPU8, ast.BFPU16, ast.BFPU32, ast.BFPU64:
		fmt.Fprintf(m.stdout, "%d", arg(0))
	case ast.BFPI8:
		fmt.Fprintf(m.stdout, "%d", int64(int8(arg(0))))
	case ast.BFPI16:
		fmt.Fprintf(m.stdout, "%d", int64(int16(arg(0))))
	case ast.BFPI32:
		fmt.Fprintf(m.stdout, "%d", int64(int32(arg(0))))
	case ast.BFPI64:
		fmt.Fprintf(m.stdout, "%d", int64(arg(0)))
	case ast.BFPNL:
		fmt.Fprintln(m.stdout)
	case ast.BFExit:
		m.exited = true
		m.exitCode = int32(int32(arg(0)))
		return
	}

	argsSize := 0
	if len(offs) > 0 {
		argsSize = offs[len(offs)-1] + alignUp(sig.paramSizes[len(sig.paramSizes)-1], 8)
	}
	size := argsSize + 16
	v.sp -= size
	savedIP := binary.LittleEndian.Uint64(v.stack[v.sp:])
	savedBP := binary.LittleEndian.Uint64(v.stack[v.sp+8:])

	n := len(v.callStack) - 1
	rec := v.callStack[n]
	v.callStack = v.callStack[:n]

	v.ip = int(savedIP)
	v.bp = int(savedBP)
	if rec.hasValue {
		m.writeOperand(v, rec.dst, retVal)
	}
}

// printCString writes the NUL-terminated byte string at addr to stdout,
// for the `ps` built-in.
func (m *Machine) printCString(addr uint64) {
	buf, ok := m.resolveAddr(addr)
	if !ok {
		return
	}
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	m.stdout.Write(buf[:end])
}

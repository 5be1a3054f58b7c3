package ir

// Program is the flat, fully-linked output of codegen: one instruction
// slice covering every built-in trampoline and every user function body,
// plus the global data segment layout and string pool described in
// spec.md §4.4.
type Program struct {
	Instrs []Instr

	// Strings is the dedup-free string segment; StringExpr.Offset indexes
	// into it directly (spec.md §4.4: "String literals are appended to a
	// dedup-free string segment").
	Strings []byte

	// GlobalsSize is the byte size of the data segment (bss), covering
	// every unit-level and `static` local variable.
	GlobalsSize int

	// FuncEntries maps a function name to its first instruction's index,
	// for tooling (internal/dump) that wants to locate
	// a function without re-walking the AST.
	FuncEntries map[string]int

	// EntryFunc is the name of the function execution starts at (spec.md
	// §6: the program's designated entry point).
	EntryFunc string

	// InitEntry is the instruction index of the synthetic global-variable
	// initializer prologue (internal/codegen's genInit), which runs once
	// before jumping to EntryFunc.
	InitEntry int

	// InitTempSize is the temp-frame watermark genInit's own expression
	// evaluation needs (global initializers can themselves contain
	// arithmetic that allocates temps, same as any function body) — the
	// VM pushes one temp frame of this size for the root activation before
	// running InitEntry, mirroring the temp frame an ordinary incsp would
	// allocate for a called function.
	InitTempSize int
}

// NumBuiltins instructions occupy addresses [0, NumBuiltins) at the very
// bottom of Instrs, one `bfun` per built-in id, so that a built-in's
// address equals its id (spec.md §4.5: "the program starts with one bfun
// opcode per built-in id... A call to built-in id k jumps ip to k").
func NewProgram(numBuiltins int) *Program {
	p := &Program{FuncEntries: map[string]int{}}
	for id := 0; id < numBuiltins; id++ {
		p.Instrs = append(p.Instrs, Instr{Op: OpBfun, BuiltinID: id})
	}
	return p
}

// Emit appends instr and returns its index.
func (p *Program) Emit(instr Instr) int {
	p.Instrs = append(p.Instrs, instr)
	return len(p.Instrs) - 1
}

// Here returns the index the next Emit call will land on.
func (p *Program) Here() int { return len(p.Instrs) }

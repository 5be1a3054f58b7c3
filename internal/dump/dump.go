// Package dump implements the `-dump-ast`/`-dump-ir` debug
// pretty-printers cmd/quaintc wires in, grounded on the teacher's fondness
// for richly formatted debug/report output (internal/formatter,
// internal/reporting): structural dumps via github.com/kr/pretty and
// human-scaled byte counts via github.com/dustin/go-humanize.
package dump

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"

	"quaintlang/internal/ast"
	"quaintlang/internal/ir"
)

// AST writes a %#v-style structural dump of unit's declarations to w, for
// the -dump-ast flag.
func AST(w io.Writer, unit *ast.Unit) {
	for _, td := range unit.TypeDecls {
		fmt.Fprintf(w, "type %s:\n%s\n", td.Name, pretty.Sprint(td.Type))
	}
	for _, vd := range unit.VarDecls {
		fmt.Fprintf(w, "var %v:\n%s\n", vd.Names, pretty.Sprint(vd))
	}
	for _, fn := range unit.Funcs {
		fmt.Fprintf(w, "func %s (frame_size=%s, args_size=%s):\n%s\n",
			fn.Name, humanize.Bytes(uint64(fn.FrameSize)), humanize.Bytes(uint64(fn.ArgsSize)),
			pretty.Sprint(fn.Body))
	}
}

// IR writes every instruction in prog, annotated with its index and, where
// one lands, the function name it begins, for the -dump-ir flag.
func IR(w io.Writer, prog *ir.Program) {
	entryAt := map[int]string{}
	for name, idx := range prog.FuncEntries {
		entryAt[idx] = name
	}
	fmt.Fprintf(w, "globals: %s  strings: %s  init@%d  entry=%s\n",
		humanize.Bytes(uint64(prog.GlobalsSize)), humanize.Bytes(uint64(len(prog.Strings))),
		prog.InitEntry, prog.EntryFunc)
	for i, instr := range prog.Instrs {
		if name, ok := entryAt[i]; ok {
			fmt.Fprintf(w, "%s:\n", name)
		}
		fmt.Fprintf(w, "  %4d  %s\n", i, formatInstr(instr))
	}
}

func formatInstr(instr ir.Instr) string {
	return fmt.Sprintf("%-6s dst=%s a=%s b=%s target=%d size=%d",
		instr.Op, formatOperand(instr.Dst), formatOperand(instr.A), formatOperand(instr.B),
		instr.Target, instr.Size)
}

func formatOperand(op ir.Operand) string {
	ind := ""
	if op.Indirect {
		ind = "*"
	}
	switch op.Class {
	case ir.Imm:
		return fmt.Sprintf("imm(%d)", op.Val)
	default:
		return fmt.Sprintf("%s%s[%d:%d]", ind, op.Class, op.Off, op.Size)
	}
}

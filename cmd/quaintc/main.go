// Command quaintc compiles and runs a single quaint source file, per
// spec.md §6: "a single positional argument — path to the source file."
// Grounded on the teacher's cmd/sentra/main.go flag/usage conventions,
// trimmed to the one-shot compile-and-run contract this spec describes
// rather than sentra's multi-command CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"quaintlang/internal/ast"
	"quaintlang/internal/check"
	"quaintlang/internal/codegen"
	"quaintlang/internal/diag"
	"quaintlang/internal/dump"
	"quaintlang/internal/lexer"
	"quaintlang/internal/parser"
	"quaintlang/internal/vm"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: quaintc [-dump-ast] [-dump-ir] [-trace] <source.qnt>")
}

func main() {
	os.Exit(quaintcMain())
}

// quaintcMain is main's body, factored out so cmd/quaintc/main_test.go's
// testscript harness can invoke it as a subprocess command without main's
// own os.Exit short-circuiting the test binary.
func quaintcMain() int {
	dumpAST := flag.Bool("dump-ast", false, "print a structural dump of the built AST and exit")
	dumpIR := flag.Bool("dump-ir", false, "print a structural dump of the generated IR and exit")
	trace := flag.Bool("trace", false, "log each scheduler hop and exit status, tagged with a run id")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		return 2
	}

	code, err := Run(flag.Arg(0), *dumpAST, *dumpIR, *trace, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return int(code)
}

// Run drives the full pipeline — lex, parse, build, check, generate,
// execute — over the file at path, writing program output to stdout and
// diagnostics to stderr. quaintcMain calls it after parsing flags; the
// testscript cases in cmd/quaintc/main_test.go reach it through quaintcMain.
func Run(path string, dumpASTFlag, dumpIRFlag, traceFlag bool, stdout, stderr *os.File) (int32, error) {
	runID := uuid.New()
	color := isatty.IsTerminal(stderr.Fd())

	src, err := os.ReadFile(path)
	if err != nil {
		return 1, err
	}

	lx := lexer.New(path, string(src))
	toks, err := lx.Scan()
	if err != nil {
		reportPlain(stderr, err.Error(), color)
		return 1, nil
	}

	cstRoot, err := parser.Parse(toks)
	if err != nil {
		reportPlain(stderr, err.Error(), color)
		return 1, nil
	}

	lines := strings.Split(string(src), "\n")
	bag := diag.NewBag(lines)

	unit := ast.Build(cstRoot, bag)
	if bag.Status() != diag.Ok {
		return reportBag(bag, stderr, color)
	}

	check.Check(unit, bag)
	if bag.Status() != diag.Ok {
		return reportBag(bag, stderr, color)
	}

	if dumpASTFlag {
		dump.AST(stdout, unit)
		return 0, nil
	}

	prog := codegen.Generate(unit, bag)
	if bag.Status() != diag.Ok {
		return reportBag(bag, stderr, color)
	}

	if dumpIRFlag {
		dump.IR(stdout, prog)
		return 0, nil
	}

	m := vm.NewMachine(prog)
	m.SetStdout(stdout)
	if traceFlag {
		fmt.Fprintf(stderr, "[%s] running %s\n", runID, path)
	}

	exitCode, err := m.Run()
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1, nil
	}
	if traceFlag {
		fmt.Fprintf(stderr, "[%s] exit %d\n", runID, exitCode)
	}
	return exitCode, nil
}

func reportBag(bag *diag.Bag, stderr *os.File, color bool) (int32, error) {
	reportPlain(stderr, bag.Report(), color)
	if bag.Status() == diag.OutOfMemory {
		return 1, bag.OOMError()
	}
	return 1, nil
}

func reportPlain(stderr *os.File, msg string, color bool) {
	if !color {
		fmt.Fprint(stderr, msg)
		if !strings.HasSuffix(msg, "\n") {
			fmt.Fprintln(stderr)
		}
		return
	}
	fmt.Fprintf(stderr, "\x1b[31m%s\x1b[0m\n", strings.TrimRight(msg, "\n"))
}

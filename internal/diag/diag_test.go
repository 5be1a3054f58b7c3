package diag_test

import (
	"errors"
	"strings"
	"testing"

	"quaintlang/internal/diag"
	"quaintlang/internal/token"
)

func spanAt(line, col int) token.Span {
	tok := token.Token{Lexeme: "x", Pos: token.Position{File: "t.qnt", Line: line, Col: col}}
	return token.Span{Begin: tok, End: tok}
}

func TestNewBagStartsOk(t *testing.T) {
	bag := diag.NewBag(nil)
	if bag.Status() != diag.Ok {
		t.Fatalf("got status %v, want Ok", bag.Status())
	}
	if !bag.Ok() {
		t.Error("Ok() should report true for a fresh bag")
	}
}

func TestErrorAccumulatesAndSetsInvalid(t *testing.T) {
	bag := diag.NewBag(nil)
	bag.Error(spanAt(1, 1), "first problem")
	bag.Error(spanAt(2, 3), "second problem")
	if bag.Status() != diag.Invalid {
		t.Fatalf("got status %v, want Invalid", bag.Status())
	}
	if len(bag.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(bag.Diagnostics))
	}
}

func TestOOMTakesPriorityOverInvalid(t *testing.T) {
	bag := diag.NewBag(nil)
	bag.Error(spanAt(1, 1), "a plain diagnostic")
	bag.OOM("quantification", errors.New("layout too large"))
	if bag.Status() != diag.OutOfMemory {
		t.Fatalf("got status %v, want OutOfMemory even with prior Invalid diagnostics", bag.Status())
	}
}

func TestOOMIsLatchedToFirstCause(t *testing.T) {
	bag := diag.NewBag(nil)
	bag.OOM("phase one", errors.New("first cause"))
	bag.OOM("phase two", errors.New("second cause"))
	if !strings.Contains(bag.OOMError().Error(), "first cause") {
		t.Errorf("got OOMError %v, want it to retain the first cause", bag.OOMError())
	}
	if strings.Contains(bag.OOMError().Error(), "second cause") {
		t.Error("a later OOM call must not overwrite the first")
	}
}

func TestReportIncludesCaretUnderOffendingColumn(t *testing.T) {
	bag := diag.NewBag([]string{"x: i32 = bogus;"})
	bag.Error(spanAt(1, 10), "undefined name %q", "bogus")
	report := bag.Report()
	if !strings.Contains(report, "undefined name \"bogus\"") {
		t.Errorf("got report %q, want it to include the formatted message", report)
	}
	if !strings.Contains(report, "x: i32 = bogus;") {
		t.Errorf("got report %q, want it to quote the offending source line", report)
	}
	lines := strings.Split(report, "\n")
	if len(lines) < 3 {
		t.Fatalf("got %d lines, want at least message+source+caret", len(lines))
	}
	caretLine := lines[2]
	if !strings.HasSuffix(caretLine, "^") {
		t.Errorf("got caret line %q, want it to end in a caret", caretLine)
	}
}

func TestReportOmitsSourceLineWhenNoneProvided(t *testing.T) {
	bag := diag.NewBag(nil)
	bag.Error(spanAt(5, 1), "out of range line")
	report := bag.Report()
	if strings.Count(report, "\n") != 1 {
		t.Errorf("got report %q, want exactly one line with no source/caret decoration", report)
	}
}

func TestStatusStringers(t *testing.T) {
	cases := map[diag.Status]string{diag.Ok: "ok", diag.OutOfMemory: "out_of_memory", diag.Invalid: "invalid"}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

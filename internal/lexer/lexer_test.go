package lexer

import (
	"testing"

	"quaintlang/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	src := `a::b -> c @ d ~e ?f &&g ||h ^=i <<= >>=`
	toks, err := New("t.qnt", src).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []token.Kind{
		token.Ident, token.ColonColon, token.Ident,
		token.Arrow, token.Ident,
		token.At, token.Ident,
		token.Tilde, token.Ident,
		token.Question, token.Ident,
		token.AmpAmp, token.Ident,
		token.PipePipe, token.Ident,
		token.CaretEqual, token.Ident,
		token.LessLessEqual,
		token.GreaterGreaterEqual,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	toks, err := New("t.qnt", "wait waiting noint nointerference").Scan()
	if err != nil {
		t.Fatal(err)
	}
	want := []token.Kind{token.KwWait, token.Ident, token.KwNoint, token.Ident, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanNumbersDecimalAndHex(t *testing.T) {
	toks, err := New("t.qnt", "42 0x1F 0").Scan()
	if err != nil {
		t.Fatal(err)
	}
	wantLexemes := []string{"42", "0x1F", "0"}
	for i, w := range wantLexemes {
		if toks[i].Kind != token.Number || toks[i].Lexeme != w {
			t.Errorf("token %d: got %v %q, want number %q", i, toks[i].Kind, toks[i].Lexeme, w)
		}
	}
}

func TestScanStringEscapes(t *testing.T) {
	toks, err := New("t.qnt", `"hello\nworld\t\"quoted\""`).Scan()
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Kind != token.String {
		t.Fatalf("got kind %v, want String", toks[0].Kind)
	}
	want := "hello\nworld\t\"quoted\""
	if toks[0].Lexeme != want {
		t.Errorf("got %q, want %q", toks[0].Lexeme, want)
	}
}

func TestScanSkipsComments(t *testing.T) {
	src := "a // line comment\nb /* block\ncomment */ c"
	toks, err := New("t.qnt", src).Scan()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if toks[i].Lexeme != w {
			t.Errorf("token %d: got %q, want %q", i, toks[i].Lexeme, w)
		}
	}
}

func TestScanUnterminatedStringErrors(t *testing.T) {
	_, err := New("t.qnt", `"unterminated`).Scan()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestScanUnterminatedBlockCommentErrors(t *testing.T) {
	_, err := New("t.qnt", "/* never closed").Scan()
	if err == nil {
		t.Fatal("expected an error for an unterminated block comment")
	}
}

func TestScanUnexpectedCharacterErrors(t *testing.T) {
	_, err := New("t.qnt", "a $ b").Scan()
	if err == nil {
		t.Fatal("expected an error for an unexpected character")
	}
}

func TestPositionsTrackLineAndColumn(t *testing.T) {
	toks, err := New("t.qnt", "a\nbb c").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Pos.Line != 1 || toks[0].Pos.Col != 1 {
		t.Errorf("token 'a': got line=%d col=%d, want line=1 col=1", toks[0].Pos.Line, toks[0].Pos.Col)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Col != 1 {
		t.Errorf("token 'bb': got line=%d col=%d, want line=2 col=1", toks[1].Pos.Line, toks[1].Pos.Col)
	}
	if toks[2].Pos.Line != 2 || toks[2].Pos.Col != 4 {
		t.Errorf("token 'c': got line=%d col=%d, want line=2 col=4", toks[2].Pos.Line, toks[2].Pos.Col)
	}
}

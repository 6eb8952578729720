package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func typesOf(toks []Token) []TokenType {
	var out []TokenType
	for _, t := range toks {
		if t.Type == EOF {
			break
		}
		out = append(out, t.Type)
	}
	return out
}

func TestLexSimpleFunctionBody(t *testing.T) {
	toks, errs := New("t.zog", "fn main {\n\tsay hi\n}\n", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{KW_FN, IDENTIFIER, LBRACE, NEWLINE, IDENTIFIER, IDENTIFIER, NEWLINE, RBRACE, NEWLINE}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestLexResLocVsDivision(t *testing.T) {
	toks, errs := New("t.zog", "ns:/a", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{RESLOC, SLASH, IDENTIFIER}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestLexResLocWithPath(t *testing.T) {
	toks, errs := New("t.zog", "lib:shapes/circle", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if len(toks) < 1 || toks[0].Type != RESLOC || toks[0].Text != "lib:shapes/circle" {
		t.Fatalf("expected a single RESLOC token spanning the whole path, got %#v", toks)
	}
}

func TestLexVariableSigils(t *testing.T) {
	toks, errs := New("t.zog", "$a %b &c", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{DOLLAR, IDENTIFIER, PERCENT, IDENTIFIER, AMP, IDENTIFIER}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestLexUnterminatedStringReportsError(t *testing.T) {
	_, errs := New("t.zog", `"unterminated`, nil).All()
	if !errs.HasErrors() {
		t.Fatal("expected an unterminated-string error")
	}
	found := false
	for _, d := range errs.All() {
		if le, ok := d.(LexError); ok && le.Reason == ReasonUnterminatedString {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %q diagnostic, got: %v", ReasonUnterminatedString, errs.All())
	}
}

func TestLexBacktickCommand(t *testing.T) {
	toks, errs := New("t.zog", "`say hello`", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if len(toks) < 1 || toks[0].Type != COMMAND || toks[0].Text != "say hello" {
		t.Fatalf("expected a COMMAND token with text %q, got %#v", "say hello", toks)
	}
}

func TestLexCommandBlock(t *testing.T) {
	toks, errs := New("t.zog", "/-\nsay one\nsay two\n-/\n", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	var lines []string
	for _, tok := range toks {
		if tok.Type == COMMAND_LINE {
			lines = append(lines, tok.Text)
		}
	}
	if diff := cmp.Diff([]string{"say one", "say two"}, lines); diff != "" {
		t.Fatalf("command block lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLexNumberLiterals(t *testing.T) {
	toks, errs := New("t.zog", "1 2.5", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{INTEGER, FLOAT}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestLexPercentIsOneTokenTypeInBothPositions(t *testing.T) {
	toks, errs := New("t.zog", "%a $x % 2", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{PERCENT, IDENTIFIER, DOLLAR, IDENTIFIER, PERCENT, INTEGER}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

func TestLexCompoundOperators(t *testing.T) {
	toks, errs := New("t.zog", "+= -= *= /= %= == != <= >= && || **", nil).All()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	want := []TokenType{
		PLUS_ASSIGN, MINUS_ASSIGN, STAR_ASSIGN, SLASH_ASSIGN, PERCENT_ASSIGN,
		EQ, NE, LE, GE, AND_AND, OR_OR, STAR_STAR,
	}
	if diff := cmp.Diff(want, typesOf(toks)); diff != "" {
		t.Fatalf("token mismatch (-want +got):\n%s", diff)
	}
}

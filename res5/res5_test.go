package res5

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseObjectWithUnquotedKeysAndTrailingComma(t *testing.T) {
	got, err := Parse(`{
		// a comment
		values: ["a", "b",],
		count: 2,
	}`)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"values": []any{"a", "b"},
		"count":  float64(2),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parse result mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		src  string
		want any
	}{
		{`true`, true},
		{`false`, false},
		{`null`, nil},
		{`"hi"`, "hi"},
		{`42`, float64(42)},
		{`3.5`, 3.5},
	}
	for _, c := range cases {
		got, err := Parse(c.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.src, err)
		}
		if diff := cmp.Diff(c.want, got); diff != "" {
			t.Fatalf("Parse(%q) mismatch (-want +got):\n%s", c.src, diff)
		}
	}
}

func TestParseInvalidInputReturnsError(t *testing.T) {
	if _, err := Parse(`{`); err == nil {
		t.Fatal("expected a parse error for an unterminated object")
	}
}

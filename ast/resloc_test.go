package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResLocStringRendersAbsoluteForm(t *testing.T) {
	loc := ResLoc{Namespace: "lib", Path: []string{"shapes", "circle"}}
	if got, want := loc.String(), "lib:shapes/circle"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestResLocNameAndParent(t *testing.T) {
	loc := ResLoc{Namespace: "lib", Path: []string{"shapes", "circle"}}
	if got, want := loc.Name(), "circle"; got != want {
		t.Fatalf("Name() = %q, want %q", got, want)
	}
	parent := loc.Parent()
	if diff := cmp.Diff([]string{"shapes"}, parent.Path); diff != "" {
		t.Fatalf("Parent().Path mismatch (-want +got):\n%s", diff)
	}
	if parent.Namespace != "lib" {
		t.Fatalf("Parent() dropped the namespace: %#v", parent)
	}
}

func TestResLocJoinAppendsSegments(t *testing.T) {
	loc := ResLoc{Namespace: "lib", Path: []string{"shapes"}}
	joined := loc.Join("circle", "area")
	if diff := cmp.Diff([]string{"shapes", "circle", "area"}, joined.Path); diff != "" {
		t.Fatalf("Join().Path mismatch (-want +got):\n%s", diff)
	}
}

func TestResLocIsResolved(t *testing.T) {
	if (ResLoc{}).IsResolved() {
		t.Fatal("zero-value ResLoc should not be resolved")
	}
	resolved := ResLoc{Namespace: "lib", Path: []string{"a"}}
	if !resolved.IsResolved() {
		t.Fatal("expected a namespace+path ResLoc to be resolved")
	}
}

func TestParseResLocPathIgnoresEmptySegments(t *testing.T) {
	if diff := cmp.Diff([]string{"a", "b"}, ParseResLocPath("a//b")); diff != "" {
		t.Fatalf("ParseResLocPath mismatch (-want +got):\n%s", diff)
	}
	if got := ParseResLocPath(""); got != nil {
		t.Fatalf("ParseResLocPath(\"\") = %#v, want nil", got)
	}
}

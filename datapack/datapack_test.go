package datapack

import (
	"testing"
)

func TestDigestIsOrderIndependentAcrossNamespaces(t *testing.T) {
	a := New()
	a.AddFunction("alpha", nil, "main", []string{"say a"})
	a.AddFunction("beta", nil, "main", []string{"say b"})
	a.Finalize()

	b := New()
	b.AddFunction("beta", nil, "main", []string{"say b"})
	b.AddFunction("alpha", nil, "main", []string{"say a"})
	b.Finalize()

	da, err := a.Digest()
	if err != nil {
		t.Fatal(err)
	}
	db, err := b.Digest()
	if err != nil {
		t.Fatal(err)
	}
	if da != db {
		t.Fatalf("expected equal digests regardless of namespace insertion order, got %x vs %x", da, db)
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a := New()
	a.AddFunction("ns", nil, "main", []string{"say a"})
	da, _ := a.Digest()

	b := New()
	b.AddFunction("ns", nil, "main", []string{"say b"})
	db, _ := b.Digest()

	if da == db {
		t.Fatal("expected different digests for different function bodies")
	}
}

func TestFinalizeOnlyEmitsNonEmptyTags(t *testing.T) {
	d := New()
	d.AddFunction("ns", nil, "main", []string{"say hi"})
	d.Finalize()

	for _, e := range d.Entries() {
		if e.Path == "data/minecraft/tags/function/tick.json" || e.Path == "data/minecraft/tags/function/load.json" {
			t.Fatalf("did not expect a tag entry when no tick/load functions were registered, got %s", e.Path)
		}
	}

	d2 := New()
	d2.AddFunction("ns", nil, "tick", []string{"say hi"})
	d2.AddTickFunction("ns:tick")
	d2.Finalize()

	found := false
	for _, e := range d2.Entries() {
		if e.Path == "data/minecraft/tags/function/tick.json" {
			found = true
			values, _ := e.JSON["values"].([]any)
			if len(values) != 1 || values[0] != "ns:tick" {
				t.Fatalf("unexpected tick tag contents: %v", e.JSON)
			}
		}
	}
	if !found {
		t.Fatal("expected a tick.json tag entry")
	}
}

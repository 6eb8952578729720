package project

import (
	"strings"
	"testing"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/loader"
)

func TestIncludeCycleIsReported(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"a.zog": "namespace ns\n\ninclude \"b\"\n",
		"b.zog": "include \"a\"\n",
	})
	asm := New(fl, nil, nil)
	_, errs := asm.AssembleRoot("a.zog")
	if !errs.HasErrors() {
		t.Fatal("expected a cycle error")
	}
	found := false
	for _, d := range errs.All() {
		if strings.Contains(d.Error(), ReasonCycle) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a %q diagnostic, got: %v", ReasonCycle, errs.All())
	}
}

func TestIncludeInfersZogExtension(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace ns\n\ninclude \"helper\"\n",
		"helper.zog": "fn greet {\n\tsay hi\n}\n",
	})
	asm := New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if len(proj.Files) != 1 {
		t.Fatalf("expected one spliced File, got %d", len(proj.Files))
	}
	ns, ok := proj.Files[0].Items[0].(*ast.Namespace)
	if !ok || len(ns.Items) != 1 {
		t.Fatalf("expected the blockless namespace to contain the spliced fn, got %#v", proj.Files[0].Items)
	}
}

func TestIncludeGlobExpandsMultipleFiles(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace ns\n\ninclude \"parts/*\"\n",
		"parts/a.zog": "fn a {\n\tsay a\n}\n",
		"parts/b.zog": "fn b {\n\tsay b\n}\n",
	})
	asm := New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	ns, ok := proj.Files[0].Items[0].(*ast.Namespace)
	if !ok || len(ns.Items) != 2 {
		t.Fatalf("expected the namespace to contain two spliced fns, got %#v", proj.Files[0].Items)
	}
}

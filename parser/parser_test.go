package parser

import (
	"testing"

	"github.com/GMDU/zoglin/ast"
)

func parseOne(t *testing.T, src string) *ast.File {
	t.Helper()
	file, errs := ParseSource("t.zog", src, nil)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	return file
}

func TestParseNamespaceWithFunction(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\tsay hi\n}\n")
	if len(file.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(file.Items))
	}
	ns, ok := file.Items[0].(*ast.Namespace)
	if !ok || ns.Name != "example" {
		t.Fatalf("expected namespace %q, got %#v", "example", file.Items[0])
	}
	if len(ns.Items) != 1 {
		t.Fatalf("expected one item in namespace, got %d", len(ns.Items))
	}
	fn, ok := ns.Items[0].(*ast.Function)
	if !ok || fn.Name != "main" {
		t.Fatalf("expected fn %q, got %#v", "main", ns.Items[0])
	}
	if len(fn.Body) != 1 {
		t.Fatalf("expected one statement in body, got %d", len(fn.Body))
	}
}

func TestParseAssignment(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\t$count = 1 + 2\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	assign, ok := fn.Body[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected an Assign statement, got %#v", fn.Body[0])
	}
	if assign.Target.Kind != ast.KindScoreboard || assign.Target.Name.Name() != "count" {
		t.Fatalf("unexpected assignment target: %#v", assign.Target)
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected an add Binary expression, got %#v", assign.Value)
	}
}

func TestParseBinaryModulo(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\t$r = $a % 2\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	assign := fn.Body[0].(*ast.Assign)
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpMod {
		t.Fatalf("expected a mod Binary expression, got %#v", assign.Value)
	}
}

func TestParseIfElse(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\tif $a == 1 {\n\t\tsay yes\n\t} else {\n\t\tsay no\n\t}\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	ifStmt, ok := fn.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected an If statement, got %#v", fn.Body[0])
	}
	if len(ifStmt.Then) != 1 {
		t.Fatalf("expected one statement in then-branch, got %d", len(ifStmt.Then))
	}
	if len(ifStmt.ElseChain) != 1 || len(ifStmt.ElseChain[0].Body) != 1 {
		t.Fatalf("expected one else branch with one statement, got %#v", ifStmt.ElseChain)
	}
}

func TestParseCallStatement(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\thelper()\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	callStmt, ok := fn.Body[0].(*ast.CallStmt)
	if !ok {
		t.Fatalf("expected a CallStmt, got %#v", fn.Body[0])
	}
	if callStmt.Call.Target.Name() != "helper" {
		t.Fatalf("unexpected call target: %#v", callStmt.Call.Target)
	}
}

func TestParseImportSuffixForms(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\timport lib:shapes/circle\n\timport lib:shapes/*\n\timport lib:shapes/@ as s\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	if len(fn.Body) != 3 {
		t.Fatalf("expected three import statements, got %d", len(fn.Body))
	}
	for _, stmt := range fn.Body {
		if _, ok := stmt.(*ast.LocalImport); !ok {
			t.Fatalf("expected LocalImport, got %#v", stmt)
		}
	}
}

func TestParseWhileLoop(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\twhile $i < 10 {\n\t\t$i += 1\n\t}\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	loop, ok := fn.Body[0].(*ast.While)
	if !ok {
		t.Fatalf("expected a While statement, got %#v", fn.Body[0])
	}
	if len(loop.Body) != 1 {
		t.Fatalf("expected one statement in loop body, got %d", len(loop.Body))
	}
}

func TestParseBacktickCommandFallback(t *testing.T) {
	file := parseOne(t, "namespace example\n\nfn main {\n\t`say literally anything: at all`\n}\n")
	ns := file.Items[0].(*ast.Namespace)
	fn := ns.Items[0].(*ast.Function)
	if _, ok := fn.Body[0].(*ast.Command); !ok {
		t.Fatalf("expected a Command statement, got %#v", fn.Body[0])
	}
}

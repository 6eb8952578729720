package session

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/GMDU/zoglin/loader"
)

func buildSource(t *testing.T, files map[string]string, root string) *CompileSession {
	t.Helper()
	fl := loader.NewMemoryLoader(files)
	sess := New(WithFileLoader(fl))
	dp, errs := sess.Build(root)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.All())
	}
	if dp == nil {
		t.Fatal("expected a non-nil datapack")
	}
	return sess
}

func functionLines(t *testing.T, sess *CompileSession, path string) []string {
	t.Helper()
	for _, e := range sess.Datapack.Entries() {
		if e.Path == path {
			return e.Lines
		}
	}
	t.Fatalf("no function entry at %s", path)
	return nil
}

func TestBuildSimpleFunctionEmitsCommand(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace example\n\nfn main {\n\tsay hi\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/example/function/main.mcfunction")
	if diff := cmp.Diff([]string{"say hi"}, lines); diff != "" {
		t.Fatalf("function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScoreboardAssignmentLowersOperation(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace example\n\nfn main {\n\t$count = 1 + 2\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/example/function/main.mcfunction")
	if len(lines) == 0 {
		t.Fatal("expected at least one emitted line")
	}
	if diff := cmp.Diff("scoreboard players set $count example.main 3", lines[0]); diff != "" {
		t.Fatalf("assignment mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIncludeSplicesItemsIntoEnclosingModule(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog":   "namespace example\n\nmodule util {\n\tinclude \"helper\"\n}\n",
		"helper.zog": "fn greet {\n\tsay hello\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/example/function/util/greet.mcfunction")
	if diff := cmp.Diff([]string{"say hello"}, lines); diff != "" {
		t.Fatalf("included function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStorageAssignAndRead(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace ex\n\nfn load {\n\ta = 10 + 20\n\tb = a\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/ex/function/load.mcfunction")
	want := []string{
		"data modify storage ex:load a set value 30",
		"data modify storage ex:load b set from storage ex:load a",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScoreboardParamAdd(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace code\n\nfn $add($a, $b) {\n\treturn $a + $b\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/code/function/add.mcfunction")
	want := []string{
		"scoreboard players operation $return code.add = $a code.add",
		"scoreboard players operation $return code.add += $b code.add",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTickAndLoadTagsAreRegistered(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace diamond_jump\n\nfn tick {\n\tsay tick\n}\n\nfn load {\n\tsay load\n}\n",
	}, "main.zog")

	var tick, load map[string]any
	for _, e := range sess.Datapack.Entries() {
		switch e.Path {
		case "data/minecraft/tags/function/tick.json":
			tick = e.JSON
		case "data/minecraft/tags/function/load.json":
			load = e.JSON
		}
	}
	if tick == nil || load == nil {
		t.Fatal("expected both tick.json and load.json tag entries")
	}
	if diff := cmp.Diff([]any{"diamond_jump:tick"}, tick["values"]); diff != "" {
		t.Fatalf("tick tag mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"diamond_jump:load"}, load["values"]); diff != "" {
		t.Fatalf("load tag mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildResLocFormsAllResolveToSameTarget(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace foo\n\nmodule bar {\n\tfn qux {\n\t\tsay target\n\t}\n\tfn baz {\n\t\t~/qux()\n\t\t:bar/qux()\n\t\tqux()\n\t}\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/foo/function/bar/baz.mcfunction")
	want := []string{
		"function foo:bar/qux",
		"function foo:bar/qux",
		"function foo:bar/qux",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildImportAliasRewritesCallTarget(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "include \"lib\"\n\nnamespace a\n\nfn f {\n\timport lib:api as X\n\tX/foo()\n}\n",
		"lib.zog":  "namespace lib\n\nmodule api {\n\tfn foo {\n\t\tsay hi\n\t}\n}\n",
	}, "main.zog")

	lines := functionLines(t, sess, "data/a/function/f.mcfunction")
	if diff := cmp.Diff([]string{"function lib:api/foo"}, lines); diff != "" {
		t.Fatalf("function body mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWhileLoopLowersToHelperFunction(t *testing.T) {
	sess := buildSource(t, map[string]string{
		"main.zog": "namespace ns\n\nfn tick {\n\t$i = 0\n\twhile $i < 10 {\n\t\t$i += 1\n\t}\n}\n",
	}, "main.zog")

	tickLines := functionLines(t, sess, "data/ns/function/tick.mcfunction")
	foundCall := false
	for _, l := range tickLines {
		if strings.Contains(l, "function ns:zoglin/gen/") {
			foundCall = true
		}
	}
	if !foundCall {
		t.Fatalf("expected tick.mcfunction to invoke a generated helper, got: %v", tickLines)
	}

	var helperPath string
	for _, e := range sess.Datapack.Entries() {
		if strings.HasPrefix(e.Path, "data/ns/function/zoglin/gen/") {
			helperPath = e.Path
		}
	}
	if helperPath == "" {
		t.Fatal("expected a generated helper function entry")
	}
	helperName := strings.TrimSuffix(strings.TrimPrefix(helperPath, "data/ns/function/"), ".mcfunction")
	helperLines := functionLines(t, sess, helperPath)
	foundIncr, foundRecurse := false, false
	for _, l := range helperLines {
		if strings.Contains(l, "$i") && strings.Contains(l, "+=") {
			foundIncr = true
		}
		if strings.Contains(l, "function ns:"+helperName) {
			foundRecurse = true
		}
	}
	if !foundIncr {
		t.Fatalf("expected the helper to increment $i, got: %v", helperLines)
	}
	if !foundRecurse {
		t.Fatalf("expected the helper to conditionally re-invoke itself, got: %v", helperLines)
	}
}

func TestBuildUnknownSymbolReportsResolveError(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace example\n\nfn main {\n\tnope()\n}\n",
	})
	sess := New(WithFileLoader(fl))
	_, errs := sess.Build("main.zog")
	require.True(t, errs.HasErrors(), "expected a resolve error for an unknown call target")

	var msgs []string
	for _, d := range errs.All() {
		msgs = append(msgs, d.Error())
	}
	require.Contains(t, strings.Join(msgs, "\n"), "unknown-symbol")
}

package lower

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/GMDU/zoglin/loader"
	"github.com/GMDU/zoglin/project"
	"github.com/GMDU/zoglin/resolver"
)

// buildLines runs the full assemble/resolve/lower pipeline over src and
// returns the command lines emitted at wantPath — scenarios (a), (b) and
// (e) from spec §8 are golden oracles, so these tests assert equality, not
// just "no errors".
func buildLines(t *testing.T, src, wantPath string) []string {
	t.Helper()
	fl := loader.NewMemoryLoader(map[string]string{"main.zog": src})
	asm := project.New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	require.False(t, errs.HasErrors(), "assemble errors: %v", errs.All())

	table, resErrs := resolver.New().Resolve(proj)
	require.False(t, resErrs.HasErrors(), "resolve errors: %v", resErrs.All())

	dp, lowerErrs := Lower(proj, table, fl)
	require.False(t, lowerErrs.HasErrors(), "lower errors: %v", lowerErrs.All())

	var paths []string
	for _, e := range dp.Entries() {
		paths = append(paths, e.Path)
		if e.Path == wantPath {
			return e.Lines
		}
	}
	t.Fatalf("no entry at %q, got: %v", wantPath, paths)
	return nil
}

func TestGoldenStorageAssignAndAdd(t *testing.T) {
	src := "namespace ex\n\nfn load {\n\ta = 10 + 20\n\tb = a\n}\n"
	got := buildLines(t, src, "data/ex/function/load.mcfunction")
	want := []string{
		"data modify storage ex:load a set value 30",
		"data modify storage ex:load b set from storage ex:load a",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scenario (a) mismatch (-want +got):\n%s", diff)
	}
}

func TestGoldenScoreboardAdd(t *testing.T) {
	src := "namespace code\n\nfn $add($a, $b) {\n\treturn $a + $b\n}\n"
	got := buildLines(t, src, "data/code/function/add.mcfunction")
	want := []string{
		"scoreboard players operation $return code.add = $a code.add",
		"scoreboard players operation $return code.add += $b code.add",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scenario (b) mismatch (-want +got):\n%s", diff)
	}
}

func TestGoldenImportAliasCallTarget(t *testing.T) {
	src := "namespace lib\n\nmodule api {\n\tfn foo {\n\t\tsay hi\n\t}\n}\n\nnamespace a\n\nfn f {\n\timport lib:api as X\n\tX/foo()\n}\n"
	got := buildLines(t, src, "data/a/function/f.mcfunction")
	want := []string{"function lib:api/foo"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scenario (e) mismatch (-want +got):\n%s", diff)
	}
}

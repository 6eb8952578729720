package resolver

import (
	"strings"
	"testing"

	"github.com/GMDU/zoglin/loader"
	"github.com/GMDU/zoglin/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportStarPullsOnlyNonPrivateDescendants(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace lib\n\nmodule shapes {\n\tfn circle {\n\t\tsay circle\n\t}\n\tprivate fn internal {\n\t\tsay hidden\n\t}\n}\n\nnamespace app\n\nfn main {\n\timport lib:shapes/*\n\tcircle()\n}\n",
	})
	asm := project.New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	if errs.HasErrors() {
		t.Fatalf("assemble errors: %v", errs.All())
	}
	_, resErrs := New().Resolve(proj)
	if resErrs.HasErrors() {
		t.Fatalf("expected circle() to resolve via import/*, got: %v", resErrs.All())
	}
}

func TestDuplicateFunctionNameIsRejected(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace lib\n\nfn dup {\n\tsay one\n}\n\nfn dup {\n\tsay two\n}\n",
	})
	asm := project.New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	require.False(t, errs.HasErrors(), "assemble errors: %v", errs.All())

	_, resErrs := New().Resolve(proj)
	require.True(t, resErrs.HasErrors(), "expected a duplicate-declaration error")

	var msgs []string
	for _, d := range resErrs.All() {
		msgs = append(msgs, d.Error())
	}
	assert.Contains(t, strings.Join(msgs, "\n"), ReasonDuplicate)
}

func TestReExportOfPrivateItemIsRejected(t *testing.T) {
	fl := loader.NewMemoryLoader(map[string]string{
		"main.zog": "namespace lib\n\nmodule a {\n\tprivate fn secret {\n\t\tsay hidden\n\t}\n\texport lib:a/secret\n}\n",
	})
	asm := project.New(fl, nil, nil)
	proj, errs := asm.AssembleRoot("main.zog")
	require.False(t, errs.HasErrors(), "assemble errors: %v", errs.All())

	_, resErrs := New().Resolve(proj)
	require.True(t, resErrs.HasErrors(), "expected an invalid-export error")

	var msgs []string
	for _, d := range resErrs.All() {
		msgs = append(msgs, d.Error())
	}
	assert.Contains(t, strings.Join(msgs, "\n"), ReasonInvalidExport)
}

package lower

import (
	"strings"

	"github.com/GMDU/zoglin/ast"
)

// dotted renders a resolved ResLoc as the dotted form a scoreboard objective
// uses (§4.5.1): namespace and path segments joined with '.'.
func dotted(loc ast.ResLoc) string {
	if len(loc.Path) == 0 {
		return loc.Namespace
	}
	return loc.Namespace + "." + strings.Join(loc.Path, ".")
}

// locKind tags the shape of a lowered expression result (§4.5.2's "result
// location" of storage key, scoreboard holder, or integer literal — locConst
// additionally covers compile-time string/float/bool values that never
// reach a scoreboard).
type locKind int

const (
	locInt locKind = iota
	locScoreboard
	locStorage
	locConst
)

// loc is where a lowered expression's value currently lives.
type loc struct {
	kind      locKind
	intVal    int64
	constVal  any
	objective string
	holder    string
	selector  string
	nbtPath   string
}

func intLoc(v int64) loc       { return loc{kind: locInt, intVal: v} }
func constLoc(v any) loc       { return loc{kind: locConst, constVal: v} }
func scoreLoc(obj, holder string) loc {
	return loc{kind: locScoreboard, objective: obj, holder: holder}
}
func storageLoc(selector, path string) loc {
	return loc{kind: locStorage, selector: selector, nbtPath: path}
}

// scoreboardAddress splits a resolved variable ResLoc into its scoreboard
// objective/holder pair (§4.5.1): the objective is the dotted form of the
// variable's enclosing scope (Parent()), the holder is '$' plus the bare
// variable name (Name()), or an explicit override.
func scoreboardAddress(ref *ast.VarRef) (objective, holder string) {
	objective = dotted(ref.Name.Parent())
	if ref.CustomHolder != "" {
		return objective, ref.CustomHolder
	}
	return objective, "$" + ref.Name.Name()
}

// storageAddress splits a resolved variable ResLoc into its storage
// selector/NBT-path pair (§4.5.1).
func storageAddress(ref *ast.VarRef) (selector, path string) {
	selector = ref.Name.Parent().String()
	path = ref.Name.Name() + ref.Subpath
	return selector, path
}

// macroToken renders a macro-kind variable reference as the `$(name)`
// function-macro substitution token (§4.5.1, §4.5.4).
func macroToken(ref *ast.VarRef) string {
	return "$(" + ref.Name.Name() + ")"
}

package parser

import (
	"strings"

	"github.com/GMDU/zoglin/ast"
)

// parseResLocText classifies and splits the raw text of a RESLOC/IDENTIFIER
// token into an ast.ResLoc per the surface forms in §3. It does not resolve
// the ResLoc (no concrete namespace is fixed here) — that's the resolver's
// job (§4.4); this only recognises which grammar form was used and splits
// segments.
func parseResLocText(text string) ast.ResLoc {
	switch {
	case strings.HasPrefix(text, ":"):
		return ast.ResLoc{Form: ast.FormNamespaced, Path: ast.ParseResLocPath(strings.TrimSuffix(text[1:], ":"))}
	case text == "~" || strings.HasPrefix(text, "~/"):
		rest := strings.TrimPrefix(text, "~")
		rest = strings.TrimPrefix(rest, "/")
		return ast.ResLoc{Form: ast.FormModuleRooted, Path: ast.ParseResLocPath(strings.TrimSuffix(rest, ":"))}
	case strings.Contains(text, ":"):
		idx := strings.Index(text, ":")
		ns, rest := text[:idx], text[idx+1:]
		return ast.ResLoc{Form: ast.FormAbsolute, Namespace: ns, Path: ast.ParseResLocPath(strings.TrimSuffix(rest, ":"))}
	default:
		return ast.ResLoc{Form: ast.FormRelative, Path: ast.ParseResLocPath(strings.TrimSuffix(text, ":"))}
	}
}

// splitVarAtom splits a variable-reference token's text into the ResLoc
// naming its storage location (§4.5.1), an optional NBT subpath suffix, and
// an optional explicit scoreboard holder override (`[custom]`). The suffix
// is whatever follows the first '.' or '[' inside the final path segment.
func splitVarAtom(text string, kind ast.VarKind) (loc ast.ResLoc, subpath, customHolder string) {
	cut := -1
	lastSlash := strings.LastIndex(text, "/")
	searchFrom := lastSlash + 1
	for i := searchFrom; i < len(text); i++ {
		if text[i] == '.' || text[i] == '[' {
			cut = i
			break
		}
	}
	if cut == -1 {
		return parseResLocText(text), "", ""
	}
	head, suffix := text[:cut], text[cut:]
	loc = parseResLocText(head)

	if kind == ast.KindScoreboard && strings.HasPrefix(suffix, "[") && strings.HasSuffix(suffix, "]") &&
		strings.Count(suffix, "[") == 1 {
		return loc, "", suffix[1 : len(suffix)-1]
	}
	return loc, suffix, ""
}

package resolver

import "github.com/GMDU/zoglin/ast"

// SymbolKind distinguishes the three declarable item kinds the resolver
// tracks (§4.4): namespaces, modules, and functions. Resources aren't
// addressable by ResLoc, so they never enter the table.
type SymbolKind int

const (
	SymNamespace SymbolKind = iota
	SymModule
	SymFunction
)

// Symbol is one entry in the symbol table, keyed by its absolute ResLoc.
type Symbol struct {
	Kind SymbolKind
	Loc  ast.ResLoc
	Vis  ast.Visibility
}

// Table is the symbol table from §4.4: every namespace/module/fn keyed by
// its absolute ResLoc, plus each owner's export set (the simple names it
// makes available to a default `import`).
type Table struct {
	byLoc   map[string]*Symbol
	names   []string // insertion order; fuzzy-suggestion candidate pool
	exports map[string]map[string]bool
}

// NewTable builds an empty symbol table.
func NewTable() *Table {
	return &Table{byLoc: map[string]*Symbol{}, exports: map[string]map[string]bool{}}
}

// Define registers a symbol, reporting whether one already existed at the
// same location (the caller uses this for duplicate detection).
func (t *Table) Define(loc ast.ResLoc, kind SymbolKind, vis ast.Visibility) (sym *Symbol, isDuplicate bool) {
	key := loc.String()
	if _, exists := t.byLoc[key]; exists {
		return t.byLoc[key], true
	}
	sym = &Symbol{Kind: kind, Loc: loc, Vis: vis}
	t.byLoc[key] = sym
	t.names = append(t.names, key)
	return sym, false
}

func (t *Table) Lookup(loc ast.ResLoc) (*Symbol, bool) {
	s, ok := t.byLoc[loc.String()]
	return s, ok
}

// MarkExport records that ownerLoc's export set includes simpleName.
func (t *Table) MarkExport(ownerLoc ast.ResLoc, simpleName string) {
	key := ownerLoc.String()
	set, ok := t.exports[key]
	if !ok {
		set = map[string]bool{}
		t.exports[key] = set
	}
	set[simpleName] = true
}

func (t *Table) ExportedNames(ownerLoc ast.ResLoc) map[string]bool {
	return t.exports[ownerLoc.String()]
}

// DescendantsOf returns every symbol whose location is strictly nested
// under owner (used by the `/*` import-everything-non-private suffix,
// §4.4).
func (t *Table) DescendantsOf(owner ast.ResLoc) []*Symbol {
	var out []*Symbol
	for _, sym := range t.byLoc {
		if sym.Loc.Namespace != owner.Namespace {
			continue
		}
		if len(sym.Loc.Path) <= len(owner.Path) {
			continue
		}
		match := true
		for i, seg := range owner.Path {
			if sym.Loc.Path[i] != seg {
				match = false
				break
			}
		}
		if match {
			out = append(out, sym)
		}
	}
	return out
}

// AllNames returns every defined symbol's absolute ResLoc string, the
// candidate pool for fuzzy-matching an unknown-symbol suggestion.
func (t *Table) AllNames() []string { return t.names }

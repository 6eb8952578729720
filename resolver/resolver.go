// Package resolver implements name resolution (§4.4): a symbol table keyed
// by absolute ResLoc, the scoped alias map built from `import`, export/
// privacy enforcement, and the six-step ResLoc resolution order.
package resolver

import (
	"sort"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// aliasBinding is one entry of a scope's local alias map (§4.4): a local
// name bound to an absolute target, built from `import`.
type aliasBinding struct {
	target ast.ResLoc
}

// scope carries the environment stack §4.4 describes: current namespace,
// current module path, the local alias map, and (for variable references)
// the innermost enclosing function, since a variable's address is rooted
// at its enclosing function, not its enclosing module (§4.5.1).
type scope struct {
	namespace   string
	modulePath  []string
	aliases     map[string]aliasBinding
	functionLoc ast.ResLoc
	inFunction  bool
}

func (s *scope) fork() *scope {
	aliases := make(map[string]aliasBinding, len(s.aliases))
	for k, v := range s.aliases {
		aliases[k] = v
	}
	return &scope{
		namespace: s.namespace, modulePath: append([]string(nil), s.modulePath...),
		aliases: aliases, functionLoc: s.functionLoc, inFunction: s.inFunction,
	}
}

func (s *scope) moduleLoc() ast.ResLoc {
	return ast.ResLoc{Namespace: s.namespace, Path: s.modulePath, Form: ast.FormAbsolute}
}

// Resolver runs the two passes over an assembled Project: declare every
// namespace/module/fn, then resolve every reference against the resulting
// table.
type Resolver struct {
	table *Table
	errs  *diagnostics.Bag
}

func New() *Resolver {
	return &Resolver{table: NewTable(), errs: &diagnostics.Bag{}}
}

// Resolve runs both passes and returns the populated table plus any
// diagnostics. It mutates the tree in place: Function.ResLoc, Module.ResLoc,
// Resource.ModuleLoc, VarRef.Name, and Call.Target are all filled in with
// absolute ResLocs.
func (r *Resolver) Resolve(proj *ast.Project) (*Table, *diagnostics.Bag) {
	for _, f := range proj.Files {
		r.declareItems(f.Items, "", nil)
	}
	for _, f := range proj.Files {
		r.walkItems(f.Items, &scope{aliases: map[string]aliasBinding{}})
	}
	return r.table, r.errs
}

// ---- pass 1: declare ----

func (r *Resolver) declareItems(items []ast.Item, namespace string, modulePath []string) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Namespace:
			// A namespace may be reopened, so a repeat is not a duplicate.
			r.table.Define(ast.ResLoc{Namespace: n.Name, Form: ast.FormAbsolute}, SymNamespace, ast.VisDefault)
			r.declareItems(n.Items, n.Name, nil)
		case *ast.Module:
			loc := ast.ResLoc{Namespace: namespace, Path: appendPath(modulePath, n.Name), Form: ast.FormAbsolute}
			n.ResLoc = loc
			if _, dup := r.table.Define(loc, SymModule, n.Vis); dup {
				r.errs.Add(ResolveError{Reason: ReasonDuplicate, Sp: n.Sp, Symbol: loc.String()})
			}
			if n.Vis == ast.VisExport {
				r.table.MarkExport(ast.ResLoc{Namespace: namespace, Path: modulePath, Form: ast.FormAbsolute}, n.Name)
			}
			r.declareItems(n.Items, namespace, loc.Path)
		case *ast.Function:
			loc := ast.ResLoc{Namespace: namespace, Path: appendPath(modulePath, n.Name), Form: ast.FormAbsolute}
			n.ResLoc = loc
			if _, dup := r.table.Define(loc, SymFunction, n.Vis); dup {
				r.errs.Add(ResolveError{Reason: ReasonDuplicate, Sp: n.Sp, Symbol: loc.String()})
			}
			if n.Vis == ast.VisExport {
				r.table.MarkExport(ast.ResLoc{Namespace: namespace, Path: modulePath, Form: ast.FormAbsolute}, n.Name)
			}
		case *ast.Resource:
			n.ModuleLoc = ast.ResLoc{Namespace: namespace, Path: modulePath, Form: ast.FormAbsolute}
		}
	}
}

func appendPath(base []string, seg string) []string {
	out := make([]string, 0, len(base)+1)
	out = append(out, base...)
	out = append(out, seg)
	return out
}

// ---- pass 2: walk / resolve ----

func (r *Resolver) walkItems(items []ast.Item, sc *scope) {
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Namespace:
			child := &scope{namespace: n.Name, aliases: map[string]aliasBinding{}}
			r.walkItems(n.Items, child)
		case *ast.Module:
			child := sc.fork()
			child.modulePath = n.ResLoc.Path
			r.walkItems(n.Items, child)
		case *ast.Function:
			child := sc.fork()
			child.functionLoc = n.ResLoc
			child.inFunction = true
			for _, p := range n.Params {
				child.aliases[p.Name] = aliasBinding{target: n.ResLoc.Join(p.Name)}
			}
			r.walkStatements(n.Body, child)
		case *ast.Import:
			r.applyImport(n, sc)
		case *ast.ReExport:
			r.applyReExport(n, sc)
		}
	}
}

func (r *Resolver) walkStatements(stmts []ast.Statement, sc *scope) {
	for _, st := range stmts {
		switch n := st.(type) {
		case *ast.Command:
			r.walkCommandSegments(n.Segments, sc)
		case *ast.CommandBlock:
			for _, c := range n.Lines {
				r.walkCommandSegments(c.Segments, sc)
			}
		case *ast.Assign:
			r.resolveVarRef(&n.Target, sc)
			r.walkExpr(n.Value, sc)
		case *ast.CompoundAssign:
			r.resolveVarRef(&n.Target, sc)
			r.walkExpr(n.Value, sc)
		case *ast.CallStmt:
			r.walkExpr(n.Call, sc)
		case *ast.If:
			r.walkExpr(n.Cond, sc)
			r.walkStatements(n.Then, sc.fork())
			for _, branch := range n.ElseChain {
				if branch.Cond != nil {
					r.walkExpr(branch.Cond, sc)
				}
				r.walkStatements(branch.Body, sc.fork())
			}
		case *ast.While:
			r.walkExpr(n.Cond, sc)
			r.walkStatements(n.Body, sc.fork())
		case *ast.For:
			child := sc.fork()
			child.aliases[n.VarName] = aliasBinding{target: sc.functionLoc.Join(n.VarName)}
			if n.Iterable.Count != nil {
				r.walkExpr(*n.Iterable.Count, sc)
			}
			if n.Iterable.Array != nil {
				r.walkExpr(*n.Iterable.Array, sc)
			}
			if n.Iterable.Range != nil {
				r.walkExpr(n.Iterable.Range.Lo, sc)
				r.walkExpr(n.Iterable.Range.Hi, sc)
			}
			r.walkStatements(n.Body, child)
		case *ast.Return:
			if n.Value != nil {
				r.walkExpr(n.Value, sc)
			}
		case *ast.LocalImport:
			r.applyImport(n.Import, sc)
		}
	}
}

func (r *Resolver) walkCommandSegments(segs []ast.CommandSegment, sc *scope) {
	for _, seg := range segs {
		if seg.Expr != nil {
			r.walkExpr(seg.Expr, sc)
		}
	}
}

func (r *Resolver) walkExpr(e ast.Expression, sc *scope) {
	switch n := e.(type) {
	case *ast.VarRef:
		r.resolveVarRef(n, sc)
	case *ast.Call:
		if loc, ok := r.resolveCallTarget(n.Target, sc, n.Sp); ok {
			n.Target = loc
		}
		for _, a := range n.Args {
			r.walkExpr(a, sc)
		}
	case *ast.Unary:
		r.walkExpr(n.Expr, sc)
	case *ast.Binary:
		r.walkExpr(n.Left, sc)
		r.walkExpr(n.Right, sc)
	case *ast.Range:
		r.walkExpr(n.Lo, sc)
		r.walkExpr(n.Hi, sc)
	}
}

// resolveVarRef fills in ref.Name with the variable's absolute address.
// Unlike calls/imports, a variable need not already exist in the symbol
// table (storage/scoreboard locations are created on first use), so this
// never fails with unknown-symbol — only the alias/scope arithmetic runs.
func (r *Resolver) resolveVarRef(ref *ast.VarRef, sc *scope) {
	switch ref.Name.Form {
	case ast.FormAbsolute:
		// already fully specified
	case ast.FormNamespaced:
		ref.Name = ast.ResLoc{Namespace: sc.namespace, Path: ref.Name.Path, Form: ast.FormAbsolute}
	case ast.FormModuleRooted:
		ref.Name = ast.ResLoc{Namespace: sc.namespace, Path: append(append([]string(nil), sc.modulePath...), ref.Name.Path...), Form: ast.FormAbsolute}
	default: // FormRelative
		if len(ref.Name.Path) > 0 {
			if binding, ok := sc.aliases[ref.Name.Path[0]]; ok {
				ref.Name = binding.target.Join(ref.Name.Path[1:]...)
				return
			}
		}
		base := sc.functionLoc
		if !sc.inFunction {
			base = sc.moduleLoc()
		}
		ref.Name = base.Join(ref.Name.Path...)
	}
}

// resolveCallTarget resolves a call target through the full six-step order.
// Every form is checked against the symbol table except an alias hit, whose
// substituted target is returned without a lookup.
func (r *Resolver) resolveCallTarget(ref ast.ResLoc, sc *scope, useSite diagnostics.Span) (ast.ResLoc, bool) {
	switch ref.Form {
	case ast.FormAbsolute:
		return r.lookupOrFail(ref, useSite)
	case ast.FormNamespaced:
		return r.lookupOrFail(ast.ResLoc{Namespace: sc.namespace, Path: ref.Path, Form: ast.FormAbsolute}, useSite)
	case ast.FormModuleRooted:
		cand := ast.ResLoc{Namespace: sc.namespace, Path: append(append([]string(nil), sc.modulePath...), ref.Path...), Form: ast.FormAbsolute}
		return r.lookupOrFail(cand, useSite)
	default:
		if len(ref.Path) > 0 {
			if binding, ok := sc.aliases[ref.Path[0]]; ok {
				return binding.target.Join(ref.Path[1:]...), true
			}
		}
		moduleRel := ast.ResLoc{Namespace: sc.namespace, Path: append(append([]string(nil), sc.modulePath...), ref.Path...), Form: ast.FormAbsolute}
		if _, ok := r.table.Lookup(moduleRel); ok {
			return moduleRel, true
		}
		nsRel := ast.ResLoc{Namespace: sc.namespace, Path: ref.Path, Form: ast.FormAbsolute}
		if _, ok := r.table.Lookup(nsRel); ok {
			return nsRel, true
		}
		r.failUnknown(ref, useSite)
		return ast.ResLoc{}, false
	}
}

func (r *Resolver) lookupOrFail(loc ast.ResLoc, useSite diagnostics.Span) (ast.ResLoc, bool) {
	if _, ok := r.table.Lookup(loc); ok {
		return loc, true
	}
	r.failUnknown(loc, useSite)
	return ast.ResLoc{}, false
}

func (r *Resolver) failUnknown(ref ast.ResLoc, sp diagnostics.Span) {
	r.errs.Add(ResolveError{Reason: ReasonUnknownSymbol, Sp: sp, Symbol: ref.String(), Suggestion: r.suggest(ref.String())})
}

func (r *Resolver) suggest(name string) string {
	ranks := fuzzy.RankFind(name, r.table.AllNames())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// ---- imports / exports ----

func (r *Resolver) applyImport(imp *ast.Import, sc *scope) {
	for _, spec := range imp.Specs {
		target, ok := r.resolveCallTarget(spec.Target, sc, imp.Sp)
		if !ok {
			continue
		}
		localName := spec.As
		if localName == "" {
			localName = target.Name()
		}

		bind := func(name string, loc ast.ResLoc) {
			if _, exists := sc.aliases[name]; exists {
				r.errs.Add(ResolveError{Reason: ReasonShadowedImport, Sp: imp.Sp, Symbol: name})
			}
			sc.aliases[name] = aliasBinding{target: loc}
		}

		switch spec.Suffix {
		case ast.ImportNameOnly:
			bind(localName, target)
		case ast.ImportExportsOnly:
			for name := range r.table.ExportedNames(target) {
				bind(name, target.Join(name))
			}
		case ast.ImportStar:
			for _, sym := range r.table.DescendantsOf(target) {
				if sym.Vis == ast.VisPrivate {
					continue
				}
				bind(sym.Loc.Name(), sym.Loc)
			}
		default: // ImportDefault
			bind(localName, target)
			for name := range r.table.ExportedNames(target) {
				bind(name, target.Join(name))
			}
		}
	}
}

func (r *Resolver) applyReExport(re *ast.ReExport, sc *scope) {
	target, ok := r.resolveCallTarget(re.Target, sc, re.Sp)
	if !ok {
		return
	}
	if len(target.Path) <= len(sc.modulePath) || target.Namespace != sc.namespace {
		r.errs.Add(ResolveError{Reason: ReasonInvalidExport, Sp: re.Sp, Symbol: target.String()})
		return
	}
	for i, seg := range sc.modulePath {
		if target.Path[i] != seg {
			r.errs.Add(ResolveError{Reason: ReasonInvalidExport, Sp: re.Sp, Symbol: target.String()})
			return
		}
	}
	if sym, ok := r.table.Lookup(target); ok && sym.Vis == ast.VisPrivate {
		r.errs.Add(ResolveError{Reason: ReasonInvalidExport, Sp: re.Sp, Symbol: target.String()})
		return
	}
	r.table.MarkExport(sc.moduleLoc(), target.Name())
}

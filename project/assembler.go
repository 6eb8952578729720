// Package project implements the include driver from §4.3: starting at a
// root file, `include "<path>"` targets are parsed and spliced in as if
// textually inserted, with cycle detection via an active-file stack.
package project

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/loader"
	"github.com/GMDU/zoglin/parser"
)

// IncludeError is the §4.3/§7 error type.
type IncludeError struct {
	Reason string
	Sp     diagnostics.Span
	Path   string
}

const (
	ReasonCycle    = "cycle"
	ReasonNotFound = "not-found"
)

func (e IncludeError) Kind() diagnostics.Kind         { return diagnostics.KindInclude }
func (e IncludeError) Span() diagnostics.Span         { return e.Sp }
func (e IncludeError) Severity() diagnostics.Severity { return diagnostics.SeverityError }
func (e IncludeError) Error() string {
	return fmt.Sprintf("%s: IncludeError: %s (%q)", e.Sp, e.Reason, e.Path)
}

// Assembler walks include directives and produces a fully-assembled Project.
type Assembler struct {
	fl     loader.FileLoader
	errs   *diagnostics.Bag
	active []string
	logger *slog.Logger
}

// New builds an Assembler over a FileLoader, sharing errs with the caller so
// include-time and parse-time diagnostics land in the same bag.
func New(fl loader.FileLoader, errs *diagnostics.Bag, logger *slog.Logger) *Assembler {
	if errs == nil {
		errs = &diagnostics.Bag{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return &Assembler{fl: fl, errs: errs, logger: logger}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// AssembleRoot parses rootPath and recursively expands every include
// reachable from it, producing one Project whose single File carries the
// fully-spliced item tree. Per §4.3, included items become children of the
// enclosing namespace/module, not of their own file — so the returned
// Project never has more than one File entry for a single build.
func (a *Assembler) AssembleRoot(rootPath string) (*ast.Project, *diagnostics.Bag) {
	a.active = append(a.active, rootPath)
	f := a.parseFile(rootPath)
	if f == nil {
		return nil, a.errs
	}
	f.Items = a.expandIncludes(f.Items, rootPath)
	return &ast.Project{Files: []*ast.File{f}}, a.errs
}

func (a *Assembler) parseFile(p string) *ast.File {
	data, err := a.fl.Load(p)
	if err != nil {
		a.errs.Add(IncludeError{Reason: ReasonNotFound, Path: p})
		return nil
	}
	a.logger.Debug("parsing file", "path", p, "bytes", len(data))
	f, errs := parser.ParseSource(p, string(data), a.logger)
	a.errs.Extend(errs)
	return f
}

func (a *Assembler) expandIncludes(items []ast.Item, currentFile string) []ast.Item {
	out := make([]ast.Item, 0, len(items))
	for _, it := range items {
		switch n := it.(type) {
		case *ast.Include:
			out = append(out, a.resolveInclude(n, currentFile)...)
		case *ast.Namespace:
			n.Items = a.expandIncludes(n.Items, currentFile)
			out = append(out, n)
		case *ast.Module:
			n.Items = a.expandIncludes(n.Items, currentFile)
			out = append(out, n)
		default:
			out = append(out, it)
		}
	}
	return out
}

// resolveInclude turns one `include "path"` into the items of every file it
// names, applying path-relative resolution, optional `.zog` inference, and
// glob expansion (§4.3). Declaration order across a glob match is
// deliberately left to the loader's Glob order, per §4.3's "undefined"
// clause.
func (a *Assembler) resolveInclude(inc *ast.Include, currentFile string) []ast.Item {
	base := path.Dir(currentFile)
	pattern := inc.Path
	if !path.IsAbs(pattern) {
		pattern = path.Join(base, pattern)
	}

	candidates, err := a.fl.Glob(pattern)
	if (err != nil || len(candidates) == 0) && !strings.Contains(pattern, "*") && !strings.HasSuffix(pattern, ".zog") {
		if alt, altErr := a.fl.Glob(pattern + ".zog"); altErr == nil && len(alt) > 0 {
			candidates, err = alt, nil
		}
	}
	if err != nil || len(candidates) == 0 {
		a.errs.Add(IncludeError{Reason: ReasonNotFound, Sp: inc.Sp, Path: inc.Path})
		return nil
	}

	var result []ast.Item
	for _, p := range candidates {
		if a.onActiveStack(p) {
			a.errs.Add(IncludeError{Reason: ReasonCycle, Sp: inc.Sp, Path: p})
			continue
		}
		a.active = append(a.active, p)
		if f := a.parseFile(p); f != nil {
			result = append(result, a.expandIncludes(f.Items, p)...)
		}
		a.active = a.active[:len(a.active)-1]
	}
	return result
}

func (a *Assembler) onActiveStack(p string) bool {
	for _, f := range a.active {
		if f == p {
			return true
		}
	}
	return false
}

// Package session wires the pipeline stages from §4 into one entry point:
// assemble, resolve, lower, producing a *datapack.Datapack plus every
// diagnostic raised along the way. It is the core's only public surface a
// driver needs — everything below it is staged internals.
package session

import (
	"log/slog"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/datapack"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/loader"
	"github.com/GMDU/zoglin/lower"
	"github.com/GMDU/zoglin/project"
	"github.com/GMDU/zoglin/resolver"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// defaultPackFormat is the pack_format written when no WithPackFormat
// option overrides it — 1.20.2-era, a reasonable floor for the language
// features this compiler lowers to.
const defaultPackFormat = 18

// Options configures a CompileSession via the functional-options pattern,
// matching the teacher stack's config idiom.
type Options struct {
	logger      *slog.Logger
	fl          loader.FileLoader
	packFormat  int
	description string
}

type Option func(*Options)

// WithLogger sets the structured logger every stage reports through. When
// unset, a logger that discards all output is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithFileLoader sets the file-loader callback interface the assembler and
// the lowerer's resource handling use — the only place this module reaches
// outside its own in-memory tree (§1).
func WithFileLoader(fl loader.FileLoader) Option {
	return func(o *Options) { o.fl = fl }
}

// WithPackFormat overrides the pack_format written to pack.mcmeta (§6).
func WithPackFormat(format int) Option {
	return func(o *Options) { o.packFormat = format }
}

// WithDescription overrides the pack.mcmeta description text.
func WithDescription(desc string) Option {
	return func(o *Options) { o.description = desc }
}

func newOptions(opts ...Option) *Options {
	o := &Options{}
	for _, apply := range opts {
		apply(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	if o.packFormat == 0 {
		o.packFormat = defaultPackFormat
	}
	if o.description == "" {
		o.description = "Generated by zoglin"
	}
	return o
}

// CompileSession runs one root-file build through every stage and retains
// the intermediate products (the resolved Project, the symbol Table) for
// callers that want to inspect them, e.g. tests or a language-server-style
// driver.
type CompileSession struct {
	opts *Options

	Project  *ast.Project
	Table    *resolver.Table
	Datapack *datapack.Datapack
	Errors   *diagnostics.Bag
}

// New creates a CompileSession ready to Build from a root file path.
func New(opts ...Option) *CompileSession {
	return &CompileSession{opts: newOptions(opts...), Errors: &diagnostics.Bag{}}
}

// Build runs the full pipeline — assemble, resolve, lower — against the
// configured FileLoader, stopping early (without lowering) once an earlier
// stage has accumulated a hard error, per §7's "stages continue after
// recoverable diagnostics, but a later stage that depends on a broken
// earlier one is not attempted" policy.
func (s *CompileSession) Build(rootPath string) (*datapack.Datapack, *diagnostics.Bag) {
	asm := project.New(s.opts.fl, s.Errors, s.opts.logger)
	proj, errs := asm.AssembleRoot(rootPath)
	s.Errors = errs
	if proj == nil || s.Errors.HasErrors() {
		return nil, s.Errors
	}
	s.Project = proj

	res := resolver.New()
	table, resErrs := res.Resolve(proj)
	s.Errors.Extend(resErrs)
	s.Table = table
	if s.Errors.HasErrors() {
		return nil, s.Errors
	}

	dp, lowerErrs := lower.Lower(proj, table, s.opts.fl)
	s.Errors.Extend(lowerErrs)
	s.Datapack = dp
	if dp == nil {
		return nil, s.Errors
	}

	meta, err := buildPackMeta(s.opts.packFormat, s.opts.description)
	if err != nil {
		s.Errors.Add(diagnostics.Basic{K: diagnostics.KindInternal, Sev: diagnostics.SeverityError, Message: err.Error()})
		return dp, s.Errors
	}
	dp.AddJSON("pack.mcmeta", meta)
	return dp, s.Errors
}

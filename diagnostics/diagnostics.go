package diagnostics

import "fmt"

// Kind is the top-level error taxonomy from §7.
type Kind string

const (
	KindIO      Kind = "IOError"
	KindLex     Kind = "LexError"
	KindParse   Kind = "ParseError"
	KindInclude Kind = "IncludeError"
	KindResolve Kind = "ResolveError"
	KindLower   Kind = "LowerError"
	KindInternal Kind = "InternalError"
)

// Severity distinguishes hard failures from recoverable/warning-class
// diagnostics (e.g. a shadowing import, §4.4).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is the interface every stage-specific error type satisfies.
type Diagnostic interface {
	error
	Kind() Kind
	Span() Span
	Severity() Severity
}

// Basic is a ready-to-use Diagnostic for stages that don't need a richer
// concrete error type of their own.
type Basic struct {
	K          Kind
	Sp         Span
	Sev        Severity
	Message    string
	Suggestion string // actionable fix, populated where obvious
	Note       string // optional explanatory aside
}

func (b Basic) Kind() Kind          { return b.K }
func (b Basic) Span() Span          { return b.Sp }
func (b Basic) Severity() Severity  { return b.Sev }

func (b Basic) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", b.Sp, b.K, b.Message)
	if b.Suggestion != "" {
		msg += fmt.Sprintf(" (%s)", b.Suggestion)
	}
	return msg
}

// Bag accumulates diagnostics across a stage or an entire compile session,
// matching §7's "errors are accumulated per file and per stage" policy.
type Bag struct {
	items []Diagnostic
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) Extend(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

func (b *Bag) All() []Diagnostic {
	return b.items
}

// HasErrors reports whether the bag contains any SeverityError diagnostic;
// warning-class diagnostics alone do not fail a build.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity() == SeverityError {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int { return len(b.items) }

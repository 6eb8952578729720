package resolver

import (
	"fmt"

	"github.com/GMDU/zoglin/diagnostics"
)

// ResolveError is the §4.4/§7 error type.
type ResolveError struct {
	Reason     string
	Sp         diagnostics.Span
	Symbol     string
	Suggestion string
}

const (
	ReasonUnknownSymbol  = "unknown-symbol"
	ReasonDuplicate      = "duplicate"
	ReasonInvalidExport  = "invalid-export"
	ReasonShadowedImport = "shadowed-import" // warning-class (§4.4)
)

func (e ResolveError) Kind() diagnostics.Kind { return diagnostics.KindResolve }
func (e ResolveError) Span() diagnostics.Span { return e.Sp }

func (e ResolveError) Severity() diagnostics.Severity {
	if e.Reason == ReasonShadowedImport {
		return diagnostics.SeverityWarning
	}
	return diagnostics.SeverityError
}

func (e ResolveError) Error() string {
	msg := fmt.Sprintf("%s: ResolveError: %s", e.Sp, e.Reason)
	if e.Symbol != "" {
		msg += fmt.Sprintf(" (%s)", e.Symbol)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(": did you mean %q?", e.Suggestion)
	}
	return msg
}

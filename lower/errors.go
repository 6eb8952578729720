package lower

import (
	"fmt"

	"github.com/GMDU/zoglin/diagnostics"
)

// LowerError is the §4.5/§7 error type.
type LowerError struct {
	Reason string
	Sp     diagnostics.Span
	Note   string
}

const (
	ReasonUnsupportedDynamicPower = "unsupported-dynamic-power"
	ReasonUnsupportedConstruct    = "unsupported-construct"
	ReasonUnresolvedCompileTime   = "unresolved-compile-time-value"
)

func (e LowerError) Kind() diagnostics.Kind         { return diagnostics.KindLower }
func (e LowerError) Span() diagnostics.Span         { return e.Sp }
func (e LowerError) Severity() diagnostics.Severity { return diagnostics.SeverityError }

func (e LowerError) Error() string {
	msg := fmt.Sprintf("%s: LowerError: %s", e.Sp, e.Reason)
	if e.Note != "" {
		msg += ": " + e.Note
	}
	return msg
}

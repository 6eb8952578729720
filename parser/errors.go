package parser

import (
	"fmt"
	"strings"

	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/lexer"
)

// ParseError is the §4.2 error type. It carries the same "educational"
// fields as the teacher's parser.ParseError (Expected/Got/Suggestion/
// Example), used to render actionable diagnostics.
type ParseError struct {
	Reason     string
	Sp         diagnostics.Span
	Context    string
	Expected   []lexer.TokenType
	Got        lexer.TokenType
	Suggestion string
	Example    string
}

const (
	ReasonUnexpectedToken    = "unexpected-token"
	ReasonExpectedX          = "expected-X"
	ReasonDuplicateItem      = "duplicate-item"
	ReasonInvalidModifierTgt = "invalid-modifier-target"
)

func (e ParseError) Kind() diagnostics.Kind         { return diagnostics.KindParse }
func (e ParseError) Span() diagnostics.Span         { return e.Sp }
func (e ParseError) Severity() diagnostics.Severity { return diagnostics.SeverityError }

func (e ParseError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: ParseError: %s", e.Sp, e.Reason)
	if e.Context != "" {
		fmt.Fprintf(&sb, " while parsing %s", e.Context)
	}
	if len(e.Expected) > 0 {
		names := make([]string, len(e.Expected))
		for i, tt := range e.Expected {
			names[i] = tt.String()
		}
		fmt.Fprintf(&sb, " (expected %s, got %s)", strings.Join(names, " or "), e.Got)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, ": %s", e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&sb, " e.g. `%s`", e.Example)
	}
	return sb.String()
}

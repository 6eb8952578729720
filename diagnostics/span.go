// Package diagnostics defines the shared error taxonomy and source-span
// types used across every compiler stage (§7 of the specification).
package diagnostics

import "fmt"

// Span locates a range of bytes inside a single source file.
type Span struct {
	File  string // path as given to the file loader, empty for synthetic spans
	Start Position
	End   Position
}

// Position is a 1-based line/column plus a 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func (s Span) String() string {
	if s.File == "" {
		return s.Start.String()
	}
	return fmt.Sprintf("%s:%s", s.File, s.Start.String())
}

// Join returns the smallest span covering both a and b. Either may be the
// zero Span, in which case the other is returned unchanged.
func Join(a, b Span) Span {
	if a.File == "" && a.Start == (Position{}) && a.End == (Position{}) {
		return b
	}
	if b.File == "" && b.Start == (Position{}) && b.End == (Position{}) {
		return a
	}
	start, end := a.Start, b.End
	if b.Start.Offset < a.Start.Offset {
		start = b.Start
	}
	if a.End.Offset > b.End.Offset {
		end = a.End
	}
	return Span{File: a.File, Start: start, End: end}
}

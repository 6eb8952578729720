package parser

import (
	"strings"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/lexer"
)

// normalizeCommandText implements §4.2's command-text normalisation: trim
// leading/trailing whitespace, collapse runs of whitespace (including
// newlines) to a single space outside string literals, and preserve string
// literal content exactly. `&{ expr }` inline expressions are split out and
// parsed on the spot by a nested parser into CommandSegment.Expr; the
// lowerer later decides what each expression becomes.
//
// raw is the verbatim command text. base is not used: spans of tokens inside
// an `&{ }` expression count from the start of that expression's own text,
// not from the enclosing file.
func (p *Parser) normalizeCommandText(raw string, base diagnostics.Position, file string) []ast.CommandSegment {
	var segs []ast.CommandSegment
	var lit strings.Builder
	var pendingWS bool

	flushLiteral := func() {
		if lit.Len() > 0 {
			segs = append(segs, ast.CommandSegment{Literal: lit.String()})
			lit.Reset()
		}
	}

	inSingle, inDouble := false, false
	i := 0
	for i < len(raw) {
		ch := raw[i]

		if inSingle || inDouble {
			lit.WriteByte(ch)
			if ch == '\\' && i+1 < len(raw) {
				lit.WriteByte(raw[i+1])
				i += 2
				continue
			}
			if (inSingle && ch == '\'') || (inDouble && ch == '"') {
				inSingle, inDouble = false, false
			}
			i++
			continue
		}

		switch {
		case ch == '\'':
			inSingle = true
			lit.WriteByte(ch)
			i++
		case ch == '"':
			inDouble = true
			lit.WriteByte(ch)
			i++
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			pendingWS = true
			i++
		case ch == '&' && i+1 < len(raw) && raw[i+1] == '{':
			if pendingWS && lit.Len() > 0 {
				lit.WriteByte(' ')
			}
			pendingWS = false
			flushLiteral()

			exprStart := i + 2
			end, ok := findMatchingBrace(raw, exprStart)
			if !ok {
				// Unterminated interpolation: treat the rest as literal text
				// so the parser can still recover at the enclosing level.
				lit.WriteString(raw[i:])
				i = len(raw)
				break
			}
			exprSrc := raw[exprStart:end]
			toks, lexErrs := lexer.New(file, exprSrc, nil).All()
			p.errs.Extend(lexErrs)
			sub := New(file, toks, p.errs)
			expr := sub.parseExpression()
			segs = append(segs, ast.CommandSegment{Expr: expr})
			i = end + 1
		default:
			if pendingWS && lit.Len() > 0 {
				lit.WriteByte(' ')
			}
			pendingWS = false
			lit.WriteByte(ch)
			i++
		}
	}
	flushLiteral()

	// Overall leading/trailing trim.
	if len(segs) > 0 {
		if first, ok := segs[0].AsLiteral(); ok {
			segs[0].Literal = strings.TrimLeft(first, " ")
		}
		last := len(segs) - 1
		if lastLit, ok := segs[last].AsLiteral(); ok {
			segs[last].Literal = strings.TrimRight(lastLit, " ")
		}
	}
	return segs
}

func findMatchingBrace(s string, from int) (int, bool) {
	depth := 1
	inSingle, inDouble := false, false
	for i := from; i < len(s); i++ {
		ch := s[i]
		if inSingle || inDouble {
			if ch == '\\' {
				i++
				continue
			}
			if (inSingle && ch == '\'') || (inDouble && ch == '"') {
				inSingle, inDouble = false, false
			}
			continue
		}
		switch ch {
		case '\'':
			inSingle = true
		case '"':
			inDouble = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}


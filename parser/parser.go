// Package parser implements the recursive-descent parser from §4.2: tokens
// in, one ast.File out, with parse errors accumulated rather than aborting
// (§7) so a driver can report more than one mistake per build.
package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/GMDU/zoglin/ast"
	"github.com/GMDU/zoglin/diagnostics"
	"github.com/GMDU/zoglin/lexer"
	"github.com/GMDU/zoglin/res5"
)

// Parser holds the token stream and parse position for one file. src is the
// original text, used by the command-fallback tie-break (§4.2) and by
// resource bodies, both of which re-slice raw bytes the lexer has already
// tokenised.
type Parser struct {
	file string
	src  string
	toks []lexer.Token
	pos  int
	errs *diagnostics.Bag
}

// New wraps an existing token stream, sharing errs with the caller. Used
// both for top-level files and for the small nested parses `&{ expr }`
// interpolation segments need.
func New(file string, toks []lexer.Token, errs *diagnostics.Bag) *Parser {
	if errs == nil {
		errs = &diagnostics.Bag{}
	}
	return &Parser{file: file, toks: toks, errs: errs}
}

// ParseSource lexes and parses a complete file.
func ParseSource(file, src string, logger *slog.Logger) (*ast.File, *diagnostics.Bag) {
	toks, errs := lexer.New(file, src, logger).All()
	p := New(file, toks, errs)
	p.src = src
	items := p.parseItems(false)
	return &ast.File{Path: file, Items: items}, p.errs
}

// ---- token navigation ----

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		if len(p.toks) > 0 {
			return lexer.Token{Type: lexer.EOF, Span: p.toks[len(p.toks)-1].Span}
		}
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) checkpoint() int    { return p.pos }
func (p *Parser) restore(cp int)     { p.pos = cp }

func (p *Parser) skipSeparators() {
	for p.at(lexer.NEWLINE) || p.at(lexer.SEMI) {
		p.advance()
	}
}

func (p *Parser) expect(tt lexer.TokenType, context string) (lexer.Token, bool) {
	if p.at(tt) {
		return p.advance(), true
	}
	p.errs.Add(ParseError{
		Reason: ReasonExpectedX, Sp: p.cur().Span, Context: context,
		Expected: []lexer.TokenType{tt}, Got: p.cur().Type,
	})
	return lexer.Token{}, false
}

func (p *Parser) errUnexpected(context string) {
	p.errs.Add(ParseError{Reason: ReasonUnexpectedToken, Sp: p.cur().Span, Context: context, Got: p.cur().Type})
}

// syncToNextLine recovers from a parse error by skipping to the next
// NEWLINE/SEMI/EOF, the "synchronising on the next outer boundary" policy
// from §7 applied at statement granularity; item-level sync additionally
// stops early on a new `fn`/`module`/`namespace` keyword.
func (p *Parser) syncToNextLine() {
	for !p.at(lexer.NEWLINE) && !p.at(lexer.SEMI) && !p.at(lexer.EOF) && !p.at(lexer.RBRACE) {
		p.advance()
	}
}

func (p *Parser) syncToItemBoundary() {
	for {
		switch p.cur().Type {
		case lexer.EOF, lexer.RBRACE, lexer.KW_FN, lexer.KW_MODULE, lexer.KW_NAMESPACE:
			return
		case lexer.NEWLINE, lexer.SEMI:
			p.advance()
		default:
			p.advance()
		}
	}
}

// ---- top-level / nested item sequences ----

// parseItems parses a sequence of Items, stopping at RBRACE (nested block)
// or EOF (top-level file). It implements the block-less `namespace`/
// `private`/`export` forms from §4.1/§4.2: without a trailing `{`, they
// affect every subsequent sibling item until the end of the enclosing
// block, which here means "until the next such declaration, or the end of
// this sequence".
func (p *Parser) parseItems(stopAtRBrace bool) []ast.Item {
	var items []ast.Item
	target := &items
	var openNS *ast.Namespace
	defaultVis := ast.VisDefault

	closeBlocklessNS := func() {
		if openNS != nil {
			items = append(items, openNS)
			openNS = nil
			target = &items
			defaultVis = ast.VisDefault
		}
	}

	for {
		p.skipSeparators()
		if stopAtRBrace && p.at(lexer.RBRACE) {
			break
		}
		if p.at(lexer.EOF) {
			break
		}

		if p.at(lexer.KW_NAMESPACE) {
			closeBlocklessNS()
			ns, isBlock := p.parseNamespace()
			if isBlock {
				*target = append(*target, ns)
			} else {
				openNS = ns
				target = &ns.Items
			}
			continue
		}

		before := p.checkpoint()
		ok := p.parseItem(defaultVis, func(it ast.Item) {
			*target = append(*target, it)
		}, func(v ast.Visibility) {
			defaultVis = v
		})
		if !ok {
			if p.checkpoint() == before {
				p.errUnexpected("a top-level item")
				p.syncToItemBoundary()
			}
		}
	}
	closeBlocklessNS()
	return items
}

// parseItem parses exactly one item production. emit is called once per
// produced Item (more than once for a brace-delimited private/export block,
// whose children are spliced straight into the caller's item list). setVis
// is called when a standalone `private`/`export` line changes the running
// default visibility for subsequent siblings.
func (p *Parser) parseItem(defaultVis ast.Visibility, emit func(ast.Item), setVis func(ast.Visibility)) bool {
	switch p.cur().Type {
	case lexer.KW_MODULE:
		emit(p.parseModule(defaultVis))
		return true
	case lexer.KW_FN:
		emit(p.parseFunction(defaultVis))
		return true
	case lexer.KW_RES:
		emit(p.parseResource(ast.ResourceData, defaultVis))
		return true
	case lexer.KW_ASSET:
		emit(p.parseResource(ast.ResourceAsset, defaultVis))
		return true
	case lexer.KW_IMPORT:
		emit(p.parseImport())
		return true
	case lexer.KW_INCLUDE:
		emit(p.parseInclude())
		return true
	case lexer.KW_PRIVATE, lexer.KW_EXPORT:
		return p.parseVisModifier(defaultVis, emit, setVis)
	default:
		return false
	}
}

// parseVisModifier handles `private`/`export` in all three positions: a
// prefix on exactly one following item, a `{ ... }` block of items, or a
// standalone line affecting everything after it (§4.2).
func (p *Parser) parseVisModifier(_ ast.Visibility, emit func(ast.Item), setVis func(ast.Visibility)) bool {
	kwTok := p.advance()
	vis := ast.VisPrivate
	if kwTok.Type == lexer.KW_EXPORT {
		vis = ast.VisExport
	}

	switch p.cur().Type {
	case lexer.LBRACE:
		p.advance()
		inner := p.parseItems(true)
		p.expect(lexer.RBRACE, "private/export block")
		for _, it := range inner {
			applyVisibility(it, vis)
			emit(it)
		}
		return true
	case lexer.NEWLINE, lexer.SEMI, lexer.EOF, lexer.RBRACE:
		emit(&ast.PrivateMarker{Vis: vis, Sp: kwTok.Span})
		setVis(vis)
		return true
	case lexer.RESLOC, lexer.IDENTIFIER:
		if vis == ast.VisExport {
			// `export <resloc>` re-export form (§4.4): re-exports an item
			// that lives inside the same module or a descendant module.
			loc := parseResLocText(p.advance().Text)
			emit(&ast.ReExport{Target: loc, Sp: kwTok.Span})
			return true
		}
		fallthrough
	default:
		// Prefix form: applies to exactly the next item.
		ok := p.parseItem(vis, emit, func(ast.Visibility) {})
		if !ok {
			p.errUnexpected("an item after 'private'/'export'")
		}
		return ok
	}
}

func applyVisibility(it ast.Item, vis ast.Visibility) {
	switch n := it.(type) {
	case *ast.Module:
		n.Vis = vis
	case *ast.Function:
		n.Vis = vis
	case *ast.Resource:
		n.Vis = vis
	}
}

// ---- namespace / module ----

func (p *Parser) parseNamespace() (*ast.Namespace, bool) {
	kw := p.advance() // 'namespace'
	nameTok, _ := p.expect(lexer.IDENTIFIER, "namespace name")
	ns := &ast.Namespace{Name: nameTok.Text, Sp: kw.Span}
	if p.at(lexer.LBRACE) {
		p.advance()
		ns.Items = p.parseItems(true)
		p.expect(lexer.RBRACE, "namespace body")
		return ns, true
	}
	// Block-less form: must be newline-terminated (§4.1).
	if !p.at(lexer.NEWLINE) && !p.at(lexer.EOF) && !p.at(lexer.SEMI) {
		p.errs.Add(ParseError{
			Reason: ReasonExpectedX, Sp: p.cur().Span, Context: "block-less namespace",
			Expected: []lexer.TokenType{lexer.NEWLINE, lexer.LBRACE}, Got: p.cur().Type,
			Suggestion: "terminate a block-less namespace with a newline, or open a '{' block",
		})
	}
	return ns, false
}

func (p *Parser) parseModule(vis ast.Visibility) *ast.Module {
	kw := p.advance() // 'module'
	nameTok, _ := p.expect(lexer.IDENTIFIER, "module name")
	mod := &ast.Module{Name: nameTok.Text, Vis: vis, Sp: kw.Span}
	if _, ok := p.expect(lexer.LBRACE, "module body"); ok {
		mod.Items = p.parseItems(true)
		p.expect(lexer.RBRACE, "module body")
	}
	return mod
}

// ---- function ----

func (p *Parser) parseFunction(vis ast.Visibility) *ast.Function {
	kw := p.advance() // 'fn'
	fn := &ast.Function{Vis: vis, Sp: kw.Span}

	switch p.cur().Type {
	case lexer.DOLLAR:
		p.advance()
		fn.Kind = ast.KindScoreboard
	case lexer.PERCENT:
		p.advance()
		fn.Kind = ast.KindMacro
	}
	nameTok, _ := p.expect(lexer.IDENTIFIER, "function name")
	fn.Name = nameTok.Text

	if p.at(lexer.LPAREN) {
		p.advance()
		for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
			fn.Params = append(fn.Params, p.parseParam())
			if p.at(lexer.COMMA) {
				p.advance()
			} else {
				break
			}
		}
		p.expect(lexer.RPAREN, "function parameters")
	}

	if _, ok := p.expect(lexer.LBRACE, "function body"); ok {
		fn.Body = p.parseStatements()
		p.expect(lexer.RBRACE, "function body")
	}
	return fn
}

func (p *Parser) parseParam() ast.Param {
	start := p.cur().Span
	kind := ast.KindStorage
	switch p.cur().Type {
	case lexer.DOLLAR:
		p.advance()
		kind = ast.KindScoreboard
	case lexer.PERCENT:
		p.advance()
		kind = ast.KindMacro
	case lexer.AMP:
		p.advance()
		kind = ast.KindCompileTime
	}
	nameTok, _ := p.expect(lexer.IDENTIFIER, "parameter name")
	return ast.Param{Name: nameTok.Text, Kind: kind, Sp: start}
}

// ---- resources / assets ----

func (p *Parser) parseResource(kind ast.ResourceKind, vis ast.Visibility) *ast.Resource {
	kw := p.advance() // 'res' / 'asset'
	res := &ast.Resource{DataKind: kind, Vis: vis, Sp: kw.Span}

	catTok, _ := p.expect(lexer.IDENTIFIER, "resource category")
	res.CategoryPath = catTok.Text
	for p.at(lexer.SLASH) {
		p.advance()
		seg, _ := p.expect(lexer.IDENTIFIER, "resource category")
		res.CategoryPath += "/" + seg.Text
	}

	if p.at(lexer.STRING) {
		res.Payload.SourcePath = p.advance().Text
		return res
	}

	if p.at(lexer.IDENTIFIER) {
		res.Name = p.advance().Text
	}

	if _, ok := p.expect(lexer.LBRACE, "resource body"); ok {
		body := p.collectRawBraceBody()
		val, err := parseResourceBody(body)
		if err != nil {
			p.errs.Add(ParseError{Reason: ReasonUnexpectedToken, Sp: kw.Span, Context: "resource JSON5 body",
				Suggestion: err.Error()})
		} else if m, ok := val.(map[string]any); ok {
			res.Payload.Inline = m
		} else {
			res.Payload.Inline = map[string]any{"value": val}
		}
		p.expect(lexer.RBRACE, "resource body")
	}
	return res
}

// collectRawBraceBody re-slices the original source between the just
// consumed '{' and its matching '}', so the JSON5-ish resource body can be
// parsed by res5 directly from text rather than token-by-token. Assumes
// p.src is available (true for every real file; resource blocks never
// appear inside synthetic `&{ }` sub-parses).
func (p *Parser) collectRawBraceBody() string {
	// Walk tokens counting brace depth to find the matching RBRACE, then
	// slice the source between them.
	depth := 1
	start := p.cur().Span.Start.Offset
	if p.pos > 0 {
		start = p.toks[p.pos-1].Span.End.Offset
	}
	idx := p.pos
	for idx < len(p.toks) {
		switch p.toks[idx].Type {
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			depth--
			if depth == 0 {
				end := p.toks[idx].Span.Start.Offset
				body := ""
				if p.src != "" && start <= end && end <= len(p.src) {
					body = p.src[start:end]
				}
				p.pos = idx // leave RBRACE for the caller to consume via expect()
				return body
			}
		}
		idx++
	}
	p.pos = idx
	return ""
}

func parseResourceBody(body string) (any, error) {
	return res5.Parse("{" + body + "}")
}

// ---- import / include ----

func (p *Parser) parseImport() *ast.Import {
	kw := p.advance() // 'import'
	baseTok := p.advance()
	baseText := baseTok.Text
	imp := &ast.Import{Sp: kw.Span}

	// `/@`/`/*` pull-in suffixes (§4.4): the lexer's maximal munch already
	// folds a bare trailing '/' into the ResLoc atom, so only '@' and '*'
	// need to be peeled off as their own tokens here.
	suffix := ast.ImportDefault
	switch {
	case p.at(lexer.AT):
		p.advance()
		suffix = ast.ImportExportsOnly
		baseText = strings.TrimSuffix(baseText, "/")
	case p.at(lexer.STAR):
		p.advance()
		suffix = ast.ImportStar
		baseText = strings.TrimSuffix(baseText, "/")
	case strings.HasSuffix(baseText, "/"):
		// Before a brace list the '/' only separates base from entries.
		if !p.at(lexer.LBRACE) {
			suffix = ast.ImportNameOnly
		}
		baseText = strings.TrimSuffix(baseText, "/")
	}
	base := parseResLocText(baseText)

	// Brace expansion: import ns:a/{x, y}
	if p.at(lexer.LBRACE) {
		p.advance()
		for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			nameTok, _ := p.expect(lexer.IDENTIFIER, "import brace list")
			spec := ast.ImportSpec{Target: base.Join(nameTok.Text), Suffix: suffix}
			if p.at(lexer.KW_AS) {
				p.advance()
				asTok, _ := p.expect(lexer.IDENTIFIER, "import alias")
				spec.As = asTok.Text
			}
			imp.Specs = append(imp.Specs, spec)
			if p.at(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE, "import brace list")
		return imp
	}

	spec := ast.ImportSpec{Target: base, Suffix: suffix}
	if p.at(lexer.KW_AS) {
		p.advance()
		asTok, _ := p.expect(lexer.IDENTIFIER, "import alias")
		spec.As = asTok.Text
	}
	imp.Specs = []ast.ImportSpec{spec}
	return imp
}

func (p *Parser) parseInclude() *ast.Include {
	kw := p.advance() // 'include'
	pathTok, _ := p.expect(lexer.STRING, "include path")
	return &ast.Include{Path: pathTok.Text, Sp: kw.Span}
}

// ---- function-body statements ----

func (p *Parser) parseStatements() []ast.Statement {
	var stmts []ast.Statement
	for {
		p.skipSeparators()
		if p.at(lexer.RBRACE) || p.at(lexer.EOF) {
			break
		}
		before := p.checkpoint()
		stmt := p.parseStatement()
		if stmt == nil {
			if p.checkpoint() == before {
				p.errUnexpected("a statement")
				p.syncToNextLine()
			}
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case lexer.COMMENT:
		tok := p.advance()
		return &ast.CommentLine{Text: tok.Text, Sp: tok.Span}
	case lexer.COMMAND:
		return p.parseBacktickCommand()
	case lexer.SLASH_DASH:
		return p.parseCommandBlock()
	case lexer.KW_IF:
		return p.parseIf()
	case lexer.KW_WHILE:
		return p.parseWhile()
	case lexer.KW_FOR:
		return p.parseFor()
	case lexer.KW_BREAK:
		tok := p.advance()
		return &ast.Break{Sp: tok.Span}
	case lexer.KW_CONTINUE:
		tok := p.advance()
		return &ast.Continue{Sp: tok.Span}
	case lexer.KW_RETURN:
		return p.parseReturn()
	case lexer.KW_IMPORT:
		imp := p.parseImport()
		return &ast.LocalImport{Import: imp, Sp: imp.Sp}
	case lexer.SLASH:
		// Leading '/' forces command interpretation (§4.2).
		return p.parseForcedCommand()
	default:
		return p.tryExpressionStatementOrCommand()
	}
}

func (p *Parser) parseBacktickCommand() ast.Statement {
	tok := p.advance()
	segs := p.normalizeCommandText(tok.Text, tok.Span.Start, p.file)
	return &ast.Command{Segments: segs, Sp: tok.Span}
}

// parseForcedCommand handles a leading '/' and treats the remainder of the
// line as raw command text (§4.2).
func (p *Parser) parseForcedCommand() ast.Statement {
	slash := p.advance() // '/'
	return p.rawLineAsCommand(diagnostics.Span{File: slash.Span.File, Start: slash.Span.End, End: slash.Span.End})
}

// parseCommandBlock handles `/- ... -/`: inside it every non-empty line is
// unconditionally a command (§4.1, §4.2); comment lines are read and
// dropped, so the resulting block holds only its commands.
func (p *Parser) parseCommandBlock() ast.Statement {
	open := p.advance() // SLASH_DASH
	var stmts []ast.Statement
	for !p.at(lexer.DASH_SLASH) && !p.at(lexer.EOF) {
		switch p.cur().Type {
		case lexer.NEWLINE:
			p.advance()
		case lexer.COMMENT:
			tok := p.advance()
			stmts = append(stmts, &ast.CommentLine{Text: tok.Text, Sp: tok.Span})
		case lexer.COMMAND_LINE:
			tok := p.advance()
			segs := p.normalizeCommandText(tok.Text, tok.Span.Start, p.file)
			stmts = append(stmts, &ast.Command{Segments: segs, Sp: tok.Span})
		default:
			p.advance()
		}
	}
	p.expect(lexer.DASH_SLASH, "command block")
	return &ast.CommandBlock{Lines: commandsOnly(stmts), Sp: open.Span}
}

func commandsOnly(stmts []ast.Statement) []*ast.Command {
	var out []*ast.Command
	for _, s := range stmts {
		if c, ok := s.(*ast.Command); ok {
			out = append(out, c)
		}
	}
	return out
}

func (p *Parser) parseIf() ast.Statement {
	kw := p.advance() // 'if'
	cond := p.parseExpression()
	p.expect(lexer.LBRACE, "if body")
	then := p.parseStatements()
	p.expect(lexer.RBRACE, "if body")

	stmt := &ast.If{Cond: cond, Then: then, Sp: kw.Span}
	for p.at(lexer.KW_ELSE) {
		p.advance()
		if p.at(lexer.KW_IF) {
			p.advance()
			elseCond := p.parseExpression()
			p.expect(lexer.LBRACE, "else-if body")
			body := p.parseStatements()
			p.expect(lexer.RBRACE, "else-if body")
			stmt.ElseChain = append(stmt.ElseChain, ast.ElseBranch{Cond: elseCond, Body: body})
			continue
		}
		p.expect(lexer.LBRACE, "else body")
		body := p.parseStatements()
		p.expect(lexer.RBRACE, "else body")
		stmt.ElseChain = append(stmt.ElseChain, ast.ElseBranch{Body: body})
		break
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Statement {
	kw := p.advance()
	cond := p.parseExpression()
	p.expect(lexer.LBRACE, "while body")
	body := p.parseStatements()
	p.expect(lexer.RBRACE, "while body")
	return &ast.While{Cond: cond, Body: body, Sp: kw.Span}
}

func (p *Parser) parseFor() ast.Statement {
	kw := p.advance() // 'for'
	nameTok, _ := p.expect(lexer.IDENTIFIER, "for-loop variable")
	p.expect(lexer.KW_IN, "for loop")

	first := p.parseExpression()
	iterable := ast.ForIterable{}
	if p.at(lexer.DOTDOT) {
		p.advance()
		hi := p.parseExpression()
		iterable.Range = &ast.Range{Lo: first, Hi: hi, Sp: kw.Span}
	} else if call, ok := first.(*ast.Call); ok {
		expr := ast.Expression(call)
		iterable.Array = &expr
	} else if lit, ok := first.(*ast.Literal); ok {
		expr := first
		if _, isList := lit.Value.([]any); isList {
			iterable.Array = &expr
		} else {
			iterable.Count = &expr
		}
	} else {
		expr := first
		iterable.Count = &expr
	}

	p.expect(lexer.LBRACE, "for body")
	body := p.parseStatements()
	p.expect(lexer.RBRACE, "for body")
	return &ast.For{VarName: nameTok.Text, Iterable: iterable, Body: body, Sp: kw.Span}
}

func (p *Parser) parseReturn() ast.Statement {
	kw := p.advance()
	if p.at(lexer.NEWLINE) || p.at(lexer.SEMI) || p.at(lexer.RBRACE) || p.at(lexer.EOF) {
		return &ast.Return{Sp: kw.Span}
	}
	val := p.parseExpression()
	return &ast.Return{Value: val, Sp: kw.Span}
}

// tryExpressionStatementOrCommand implements the §4.2 tie-break: first
// attempt an expression-statement parse (bare call or bare assignment); on
// failure, fall back to treating the whole line as a raw command.
func (p *Parser) tryExpressionStatementOrCommand() ast.Statement {
	cp := p.checkpoint()
	start := p.cur().Span

	stmt, ok := p.tryParseExprStatement()
	if ok && (p.at(lexer.NEWLINE) || p.at(lexer.SEMI) || p.at(lexer.RBRACE) || p.at(lexer.EOF)) {
		return stmt
	}
	p.restore(cp)
	return p.rawLineAsCommand(start)
}

func (p *Parser) tryParseExprStatement() (ast.Statement, bool) {
	if !p.at(lexer.DOLLAR) && !p.at(lexer.PERCENT) && !p.at(lexer.AMP) &&
		!p.at(lexer.IDENTIFIER) && !p.at(lexer.RESLOC) {
		return nil, false
	}

	// Bare call: IDENTIFIER/RESLOC '(' ... ')'
	if (p.at(lexer.IDENTIFIER) || p.at(lexer.RESLOC)) && p.peekN(1).Type == lexer.LPAREN {
		call := p.parseCall()
		return &ast.CallStmt{Call: call, Sp: call.Sp}, true
	}

	varStart := p.cur().Span
	ref, ok := p.tryParseVarRef()
	if !ok {
		return nil, false
	}

	switch p.cur().Type {
	case lexer.ASSIGN:
		p.advance()
		val := p.parseExpression()
		return &ast.Assign{Target: ref, Value: val, Sp: varStart}, true
	case lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN:
		op := compoundOpFor(p.advance().Type)
		val := p.parseExpression()
		return &ast.CompoundAssign{Target: ref, Op: op, Value: val, Sp: varStart}, true
	default:
		return nil, false
	}
}

func compoundOpFor(tt lexer.TokenType) ast.CompoundOp {
	switch tt {
	case lexer.PLUS_ASSIGN:
		return ast.CompoundAdd
	case lexer.MINUS_ASSIGN:
		return ast.CompoundSub
	case lexer.STAR_ASSIGN:
		return ast.CompoundMul
	case lexer.SLASH_ASSIGN:
		return ast.CompoundDiv
	default:
		return ast.CompoundMod
	}
}

// rawLineAsCommand slices the remainder of the current source line (from
// start) and normalises it the same way a backtick literal is normalised,
// then advances the token stream to the next NEWLINE/SEMI/RBRACE/EOF so
// parsing can resume.
func (p *Parser) rawLineAsCommand(start diagnostics.Span) ast.Statement {
	startOffset := start.Start.Offset
	for !p.at(lexer.NEWLINE) && !p.at(lexer.SEMI) && !p.at(lexer.EOF) && !p.at(lexer.RBRACE) {
		p.advance()
	}
	endOffset := p.cur().Span.Start.Offset
	raw := ""
	if p.src != "" && startOffset <= endOffset && endOffset <= len(p.src) {
		raw = p.src[startOffset:endOffset]
	}
	segs := p.normalizeCommandText(raw, start.Start, p.file)
	return &ast.Command{Segments: segs, Sp: diagnostics.Span{File: p.file, Start: start.Start, End: p.cur().Span.Start}}
}

// ---- expressions ----

func (p *Parser) tryParseVarRef() (ast.VarRef, bool) {
	kind := ast.KindStorage
	switch p.cur().Type {
	case lexer.DOLLAR:
		p.advance()
		kind = ast.KindScoreboard
	case lexer.PERCENT:
		p.advance()
		kind = ast.KindMacro
	case lexer.AMP:
		p.advance()
		kind = ast.KindCompileTime
	}
	if !p.at(lexer.IDENTIFIER) && !p.at(lexer.RESLOC) {
		return ast.VarRef{}, false
	}
	tok := p.advance()
	loc, subpath, holder := splitVarAtom(tok.Text, kind)
	return ast.VarRef{Kind: kind, Name: loc, Subpath: subpath, CustomHolder: holder, Sp: tok.Span}, true
}

func (p *Parser) parseCall() *ast.Call {
	tok := p.advance() // IDENTIFIER or RESLOC
	loc := parseResLocText(tok.Text)
	lparen := p.advance() // '('
	var args []ast.Expression
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		args = append(args, p.parseExpression())
		if p.at(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	rparen, _ := p.expect(lexer.RPAREN, "call arguments")
	sp := diagnostics.Join(tok.Span, diagnostics.Join(lparen.Span, rparen.Span))
	return &ast.Call{Target: loc, Args: args, Sp: sp}
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.at(lexer.OR_OR) {
		tok := p.advance()
		right := p.parseAnd()
		left = &ast.Binary{Op: ast.OpOr, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseEquality()
	for p.at(lexer.AND_AND) {
		tok := p.advance()
		right := p.parseEquality()
		left = &ast.Binary{Op: ast.OpAnd, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.at(lexer.EQ) || p.at(lexer.NE) {
		tok := p.advance()
		op := ast.OpEq
		if tok.Type == lexer.NE {
			op = ast.OpNe
		}
		right := p.parseRelational()
		left = &ast.Binary{Op: op, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseAdditive()
	for p.at(lexer.LT) || p.at(lexer.LE) || p.at(lexer.GT) || p.at(lexer.GE) {
		tok := p.advance()
		var op ast.BinaryOp
		switch tok.Type {
		case lexer.LT:
			op = ast.OpLt
		case lexer.LE:
			op = ast.OpLe
		case lexer.GT:
			op = ast.OpGt
		default:
			op = ast.OpGe
		}
		right := p.parseAdditive()
		left = &ast.Binary{Op: op, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Type == lexer.MINUS {
			op = ast.OpSub
		}
		right := p.parseMultiplicative()
		left = &ast.Binary{Op: op, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parsePower()
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		tok := p.advance()
		var op ast.BinaryOp
		switch tok.Type {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		right := p.parsePower()
		left = &ast.Binary{Op: op, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parsePower() ast.Expression {
	left := p.parseUnary()
	if p.at(lexer.STAR_STAR) {
		tok := p.advance()
		right := p.parsePower() // right-associative
		return &ast.Binary{Op: ast.OpPow, Left: left, Right: right, Sp: tok.Span}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur().Type {
	case lexer.MINUS:
		tok := p.advance()
		return &ast.Unary{Op: ast.UnaryNeg, Expr: p.parseUnary(), Sp: tok.Span}
	case lexer.BANG:
		tok := p.advance()
		return &ast.Unary{Op: ast.UnaryNot, Expr: p.parseUnary(), Sp: tok.Span}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case lexer.LPAREN:
		p.advance()
		e := p.parseExpression()
		p.expect(lexer.RPAREN, "parenthesised expression")
		return e
	case lexer.INTEGER:
		p.advance()
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return &ast.Literal{Value: n, Sp: tok.Span}
	case lexer.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(tok.Text, 64)
		return &ast.Literal{Value: f, Sp: tok.Span}
	case lexer.STRING:
		p.advance()
		return &ast.Literal{Value: tok.Text, Sp: tok.Span}
	case lexer.LBRACKET:
		return p.parseListLiteral()
	case lexer.DOLLAR, lexer.PERCENT, lexer.AMP:
		ref, ok := p.tryParseVarRef()
		if ok {
			return &ref
		}
	case lexer.IDENTIFIER, lexer.RESLOC:
		if p.peekN(1).Type == lexer.LPAREN {
			return p.parseCall()
		}
		ref, ok := p.tryParseVarRef()
		if ok {
			return &ref
		}
	}
	p.errUnexpected("an expression")
	p.advance()
	return &ast.Literal{Value: nil, Sp: tok.Span}
}

func (p *Parser) parseListLiteral() ast.Expression {
	open := p.advance() // '['
	var items []any
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		e := p.parseExpression()
		if lit, ok := e.(*ast.Literal); ok {
			items = append(items, lit.Value)
		}
		if p.at(lexer.COMMA) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(lexer.RBRACKET, "list literal")
	return &ast.Literal{Value: items, Sp: open.Span}
}

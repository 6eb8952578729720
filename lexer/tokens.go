package lexer

import "github.com/GMDU/zoglin/diagnostics"

// TokenType identifies a lexical token kind (§4.1).
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL

	NEWLINE // significant: terminates block-less namespace/private, separates statements

	IDENTIFIER // [A-Za-z_][A-Za-z0-9_]*
	RESLOC     // a maximal run matching the ResLoc grammar (ns:a/b/c, :a/b, ~/a, a/b)
	INTEGER
	FLOAT
	STRING       // double- or single-quoted
	COMMAND      // backtick-delimited command literal, verbatim; the parser normalises it per §4.2
	COMMENT      // '#'-led, end of line
	COMMAND_LINE // one raw line inside a /- ... -/ command block

	// keywords
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR
	KW_IN
	KW_BREAK
	KW_CONTINUE
	KW_RETURN
	KW_IMPORT
	KW_INCLUDE
	KW_RES
	KW_ASSET
	KW_FN
	KW_MODULE
	KW_NAMESPACE
	KW_PRIVATE
	KW_EXPORT
	KW_AS

	// punctuation
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COMMA
	DOT
	DOTDOT // ..
	COLON
	SEMI
	AMP_LBRACE // &{  (inline expression inside a command)

	// variable sigils
	DOLLAR     // $
	PERCENT    // %, also binary modulo in infix position — the parser
	           // disambiguates by position, the same way it disambiguates
	           // ':' then '/'
	AMP        // &

	// operators, longest-match first where they overlap
	ASSIGN      // =
	PLUS_ASSIGN // +=
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN

	EQ // ==
	NE // !=
	LT
	LE
	GT
	GE

	PLUS
	MINUS
	STAR
	SLASH
	STAR_STAR // **

	AND_AND // &&
	OR_OR   // ||
	BANG    // !

	SLASH_DASH // /-
	DASH_SLASH // -/

	AT // @ — only meaningful after a ResLoc, as the `/@` import suffix
)

var keywords = map[string]TokenType{
	"if":        KW_IF,
	"else":      KW_ELSE,
	"while":     KW_WHILE,
	"for":       KW_FOR,
	"in":        KW_IN,
	"break":     KW_BREAK,
	"continue":  KW_CONTINUE,
	"return":    KW_RETURN,
	"import":    KW_IMPORT,
	"include":   KW_INCLUDE,
	"res":       KW_RES,
	"asset":     KW_ASSET,
	"fn":        KW_FN,
	"module":    KW_MODULE,
	"namespace": KW_NAMESPACE,
	"private":   KW_PRIVATE,
	"export":    KW_EXPORT,
	"as":        KW_AS,
}

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case NEWLINE:
		return "NEWLINE"
	case IDENTIFIER:
		return "IDENTIFIER"
	case RESLOC:
		return "RESLOC"
	case INTEGER:
		return "INTEGER"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case COMMAND:
		return "COMMAND"
	case COMMENT:
		return "COMMENT"
	case COMMAND_LINE:
		return "COMMAND_LINE"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACKET:
		return "["
	case RBRACKET:
		return "]"
	case COMMA:
		return ","
	case DOT:
		return "."
	case DOTDOT:
		return ".."
	case COLON:
		return ":"
	case SEMI:
		return ";"
	case AMP_LBRACE:
		return "&{"
	case DOLLAR:
		return "$"
	case PERCENT:
		return "%"
	case AMP:
		return "&"
	case ASSIGN:
		return "="
	case PLUS_ASSIGN:
		return "+="
	case MINUS_ASSIGN:
		return "-="
	case STAR_ASSIGN:
		return "*="
	case SLASH_ASSIGN:
		return "/="
	case PERCENT_ASSIGN:
		return "%="
	case EQ:
		return "=="
	case NE:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case STAR_STAR:
		return "**"
	case AND_AND:
		return "&&"
	case OR_OR:
		return "||"
	case BANG:
		return "!"
	case SLASH_DASH:
		return "/-"
	case DASH_SLASH:
		return "-/"
	case AT:
		return "@"
	default:
		if kw, ok := reverseKeyword(t); ok {
			return kw
		}
		return "UNKNOWN"
	}
}

func reverseKeyword(t TokenType) (string, bool) {
	for text, tt := range keywords {
		if tt == t {
			return text, true
		}
	}
	return "", false
}

// Token is one lexical token: a kind tag, its lexeme (only materialised when
// the parser needs the text), and a source span (§3).
type Token struct {
	Type Type
	Text string
	Span diagnostics.Span
}

// Type is an alias kept for readability at call sites (Token.Type reads
// better than Token.TokenType).
type Type = TokenType

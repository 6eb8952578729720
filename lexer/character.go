package lexer

// ASCII classification tables, built once at package init the way the
// teacher's lexer pre-computes its lookup tables instead of branching on
// unicode.Is* in the hot loop.
var (
	isWhitespace [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isDigit      [128]bool
	isResLocPart [128]bool // characters that may continue a ResLoc atom
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r'
		isDigit[i] = ch >= '0' && ch <= '9'
		isIdentStart[i] = (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
		isResLocPart[i] = isIdentPart[i] || ch == '/' || ch == ':' || ch == '~' ||
			ch == '.' || ch == '[' || ch == ']' || ch == '-'
	}
}

func isASCII(ch byte) bool { return ch < 128 }

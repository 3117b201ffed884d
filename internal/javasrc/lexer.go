package javasrc

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// javaLexer tokenizes the subset of Java the front end understands. Method
// bodies and initializers are kept as flat token runs, so only declaration
// keywords get their own token type.
var javaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "BlockComment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "Comment", Pattern: `//[^\n]*`},

	{Name: "TextBlock", Pattern: `"""(?:[^"\\]|\\.|"[^"]|""[^"])*"""`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\\n])*"`},
	{Name: "Char", Pattern: `'(?:\\.|[^'\\\n])+'`},

	{Name: "Keyword", Pattern: `\b(?:abstract|class|default|enum|extends|final|implements|import|interface|native|non-sealed|package|permits|private|protected|public|record|sealed|static|strictfp|synchronized|throws|transient|volatile)\b`},
	{Name: "Number", Pattern: `\.?[0-9][0-9a-zA-Z_.]*`},
	{Name: "Ident", Pattern: `[\p{L}_$][\p{L}\p{N}_$]*`},

	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Punct", Pattern: `[^\s\p{L}\p{N}_$]`},

	{Name: "Whitespace", Pattern: `\s+`},
})

var elidedTokens = []string{"Whitespace", "Comment", "BlockComment"}

var elidedTypes = func() map[lexer.TokenType]bool {
	out := make(map[lexer.TokenType]bool, len(elidedTokens))
	symbols := javaLexer.Symbols()
	for _, name := range elidedTokens {
		out[symbols[name]] = true
	}
	return out
}()

// significant reports whether tok survives elision.
func significant(tok lexer.Token) bool {
	return !tok.EOF() && !elidedTypes[tok.Type]
}

package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// IRLexer tokenizes the textual SSA assembly this front end parses.
// Keywords (module, fn, alloca, add, icmp, ...) are not distinct token
// kinds; they are matched as literal Ident tokens by the grammar, the
// same approach the Kanso lexer uses for its own keywords. An "i"
// followed directly by digits lexes as the Ident "i" and an Integer, so
// an integer type such as i32 reaches the grammar as "i" "32"; for the
// same reason no identifier can begin with "i" and a digit.
var IRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"Ident", `i(?:[a-zA-Z_][a-zA-Z0-9_]*)?|[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Punct", `[{}\[\]():,%@*]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

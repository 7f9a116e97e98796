package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	ierrors "rangecheck/internal/errors"
)

var irParser = participle.MustBuild[Module](
	participle.Lexer(IRLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// ParseFile reads and parses a module from disk.
func ParseFile(path string) (*Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}

// ParseString parses module text already held in memory; filename is used
// only for diagnostic output.
func ParseString(filename, src string) (*Module, error) {
	mod, err := irParser.ParseString(filename, src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return mod, nil
}

// reportParseError prints a caret-style parse error message, the same
// rendering the compiler front end uses for malformed source.
func reportParseError(src string, err error) {
	participleErr, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pe := ierrors.NewParseError(participleErr.Position(), participleErr.Message())
	fmt.Print(ierrors.NewErrorReporter(pe.Filename, src).Format(pe))
}

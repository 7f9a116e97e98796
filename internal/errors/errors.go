// Package errors carries the one class of error the analyzer's own
// design calls out as exceptional rather than a finding: a malformed
// input module that never got far enough to be analyzed at all.
// Out-of-bounds candidates and committed reports are a different,
// non-exceptional concern and are never routed through this package —
// see internal/dataflow's report store.
package errors

import "github.com/alecthomas/participle/v2/lexer"

// ParseError wraps a grammar/lexer failure with the position it occurred
// at, so a reporter can render it without re-inspecting the parser's
// own error type.
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Message  string
}

func (e *ParseError) Error() string { return e.Message }

// NewParseError builds a ParseError from the participle error returned
// by grammar.ParseString/ParseFile.
func NewParseError(pos lexer.Position, message string) *ParseError {
	return &ParseError{Filename: pos.Filename, Line: pos.Line, Column: pos.Column, Message: message}
}

package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorReporter renders a ParseError against the source it was parsed
// from, Rust-style: a header line, the offending source line, and a
// caret pointing at the column — the same shape kanso-lang-kanso's
// compiler front end uses for its own syntax errors.
type ErrorReporter struct {
	filename string
	lines    []string
}

// NewErrorReporter builds a reporter bound to one file's source text.
func NewErrorReporter(filename, source string) *ErrorReporter {
	return &ErrorReporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders pe as a colorized, caret-pointing diagnostic.
func (er *ErrorReporter) Format(pe *ParseError) string {
	var b strings.Builder

	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	caretColor := color.New(color.FgRed, color.Bold).SprintFunc()

	b.WriteString(fmt.Sprintf("%s: %s\n", bold("error"), pe.Message))
	b.WriteString(fmt.Sprintf("  %s %s:%d:%d\n", dim("-->"), er.filename, pe.Line, pe.Column))

	if pe.Line > 0 && pe.Line <= len(er.lines) {
		line := er.lines[pe.Line-1]
		b.WriteString(fmt.Sprintf("   %s %s\n", dim("|"), line))
		marker := strings.Repeat(" ", max(0, pe.Column-1)) + caretColor("^")
		b.WriteString(fmt.Sprintf("   %s %s\n", dim("|"), marker))
	}

	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package dataflow

import (
	"fmt"
	"strings"

	"rangecheck/internal/ir"
)

// Engine threads the process-wide mutable stores the original tool kept
// at file scope — summaries, the candidate table, and the committed
// error log — as fields of one explicit value (spec §9).
type Engine struct {
	Module    *ir.Module
	Summaries *Summaries
	MaxDepth  int

	rnd Source

	candidates    map[string]map[ir.Handle]Report
	committed     []Report
	committedSeen map[string]bool
}

// NewEngine builds an engine ready to analyze mod. maxDepth bounds the
// call-context recursion depth (spec default: 2); rnd drives widening's
// entropy noise and should be pinned in tests.
func NewEngine(mod *ir.Module, rnd Source, maxDepth int) *Engine {
	e := &Engine{Module: mod, MaxDepth: maxDepth, rnd: rnd}
	e.Reset()
	return e
}

// Reset clears every mutable store, as if the engine were freshly
// constructed, without discarding the module or configuration.
func (e *Engine) Reset() {
	e.Summaries = newSummaries()
	e.candidates = make(map[string]map[ir.Handle]Report)
	e.committed = nil
	e.committedSeen = make(map[string]bool)
}

func (e *Engine) addCandidate(context []int, addr ir.Handle, r Report) {
	key := contextKey(context)
	byAddr, ok := e.candidates[key]
	if !ok {
		byAddr = make(map[ir.Handle]Report)
		e.candidates[key] = byAddr
	}
	byAddr[addr] = r
}

func (e *Engine) commitIfCandidate(context []int, addr ir.Handle) {
	byAddr, ok := e.candidates[contextKey(context)]
	if !ok {
		return
	}
	r, ok := byAddr[addr]
	if !ok {
		return
	}
	seenKey := fmt.Sprintf("%s|%s|%d|%d|%d", r.Function, contextKey(r.Context), r.Line, r.Lo, r.Hi)
	if e.committedSeen[seenKey] {
		return
	}
	e.committedSeen[seenKey] = true
	e.committed = append(e.committed, r)
}

// AnalyzeModule runs the driver over every defined function in the
// module, the batch entry point a CLI front end calls.
func (e *Engine) AnalyzeModule() {
	for _, fn := range e.Module.Functions {
		if fn.IsDeclaration {
			continue
		}
		e.Analyze(fn, nil, nil)
	}
}

// Reports returns every committed error, in commit order.
func (e *Engine) Reports() []Report {
	return e.committed
}

// FormatReports renders every committed error as one report line per
// row, in the CLI's plain-text format.
func (e *Engine) FormatReports() string {
	var b strings.Builder
	for _, r := range e.committed {
		b.WriteString(r.FormatLine())
		b.WriteString("\n")
	}
	return b.String()
}

package dataflow

import (
	"fmt"
	"strings"
)

// argKey encodes an argument-interval vector into a stable string key by
// endpoint equality. Zero-argument calls use a single bottom slot so the
// key is never empty (spec §3).
func argKey(args []Value) string {
	if len(args) == 0 {
		return "_"
	}
	parts := make([]string, len(args))
	for i, v := range args {
		if !v.HasRange {
			parts[i] = "_"
		} else {
			parts[i] = fmt.Sprintf("%d:%d", v.Lo, v.Hi)
		}
	}
	return strings.Join(parts, ",")
}

// Summaries caches, per function name, the return interval for each
// distinct argument-interval vector it has been called with.
type Summaries struct {
	table map[string]map[string]Value
}

func newSummaries() *Summaries {
	return &Summaries{table: make(map[string]map[string]Value)}
}

// Lookup reports whether fn has already been summarized for args.
func (s *Summaries) Lookup(fn string, args []Value) (Value, bool) {
	byArgs, ok := s.table[fn]
	if !ok {
		return Value{}, false
	}
	v, ok := byArgs[argKey(args)]
	return v, ok
}

// Set records the return interval for fn called with args, creating the
// recursion-guard slot on first call and overwriting it once the real
// result is known.
func (s *Summaries) Set(fn string, args []Value, ret Value) {
	byArgs, ok := s.table[fn]
	if !ok {
		byArgs = make(map[string]Value)
		s.table[fn] = byArgs
	}
	byArgs[argKey(args)] = ret
}

package dataflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Report is a single out-of-bounds finding: a candidate while it sits in
// the engine's potential-error table, committed once a load or store
// consumes the flagged address.
type Report struct {
	Function string
	Context  []int
	Line     int
	Length   int
	Lo, Hi   int64
}

// FormatLine renders the report in the CLI's plain-text output format:
// "<ctx0>[:<ctx1>...], <function>, <line>, <length>, <lo>:<hi>". The
// context field is empty (not omitted) when there is no call-site chain,
// so the line still carries its leading comma.
func (r Report) FormatLine() string {
	parts := make([]string, len(r.Context))
	for i, c := range r.Context {
		parts[i] = strconv.Itoa(c)
	}
	ctx := strings.Join(parts, ":")
	return fmt.Sprintf("%s, %s, %d, %d, %s:%s", ctx, r.Function, r.Line, r.Length, formatEndpoint(r.Lo, true), formatEndpoint(r.Hi, false))
}

func formatEndpoint(v int64, lowerBound bool) string {
	if lowerBound && v <= NEGINF {
		return "-inf"
	}
	if !lowerBound && v >= INF {
		return "inf"
	}
	return strconv.FormatInt(v, 10)
}

func contextKey(context []int) string {
	parts := make([]string, len(context))
	for i, c := range context {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ":")
}

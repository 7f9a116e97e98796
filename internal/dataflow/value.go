// Package dataflow implements the interval-based abstract interpreter:
// the interval value lattice, the per-instruction transfer function, the
// worklist-driven forward dataflow driver, interprocedural call
// summarization, and the candidate/committed out-of-bounds report store.
package dataflow

import (
	"math"

	"rangecheck/internal/ir"
)

// INF and NEGINF are the saturation sentinels: chosen small enough that
// byte-width multiplication of an endpoint cannot overflow an int64.
const (
	INF    int64 = 0x0000_FFFF_FFFF_FFFF
	NEGINF int64 = -INF
)

// P is a hash-mixing prime. Argument tuples and contexts are keyed by
// their string encodings (argKey, contextKey), so no code here uses it.
const P int64 = 32_452_657

// Value is the abstract interval: either undefined (bottom) or a closed
// range with a confidence score and the type its endpoints are
// interpreted under.
type Value struct {
	HasRange bool
	Lo, Hi   int64
	Entropy  float64
	Type     ir.Type
}

// Bottom returns the undefined value carrying t, for result slots that
// have no inferred range yet.
func Bottom(t ir.Type) Value { return Value{Type: t} }

func isSaturated(v Value) bool {
	return v.Lo <= NEGINF && v.Hi >= INF
}

func straddlesZero(v Value) bool {
	return v.Lo < 0 && v.Hi > 0
}

// FromConstant builds a singleton interval around c.
func FromConstant(c int64, t ir.Type) Value {
	return widen(Value{HasRange: true, Lo: c, Hi: c, Entropy: 0, Type: t})
}

func rangeForPredicate(pred ir.Predicate, c, lo0, hi0 int64) (lo, hi int64, ok bool) {
	switch pred {
	case ir.IEQ:
		return c, c, true
	case ir.SLT, ir.ULT:
		return lo0, c - 1, true
	case ir.SLE, ir.ULE:
		return lo0, c, true
	case ir.SGT, ir.UGT:
		return c + 1, hi0, true
	case ir.SGE, ir.UGE:
		return c, hi0, true
	default:
		return 0, 0, false
	}
}

// RefineFromConstant narrows prev by comparing it against literal c under
// pred, the predicate-refinement constructor of §4.1.
func RefineFromConstant(pred ir.Predicate, c int64, prev Value, rnd Source) Value {
	lo0, hi0 := NEGINF, INF
	if prev.HasRange {
		lo0, hi0 = prev.Lo, prev.Hi
	}
	lo, hi, ok := rangeForPredicate(pred, c, lo0, hi0)
	if !ok {
		return Bottom(prev.Type)
	}
	entropy := 0.0
	if pred != ir.IEQ {
		entropy = (rnd.Float64() + prev.Entropy) / 2
	}
	return widen(Value{HasRange: true, Lo: lo, Hi: hi, Entropy: entropy, Type: prev.Type})
}

// RefineFromInterval narrows o by applying the constant-predicate rule
// independently to its low and high endpoints, then takes the hull —
// the "refinement from another interval" constructor of §4.1.
func RefineFromInterval(pred ir.Predicate, c int64, o Value, rnd Source) Value {
	if !o.HasRange {
		return Bottom(o.Type)
	}
	lo1, hi1, ok1 := rangeForPredicate(pred, c, o.Lo, o.Lo)
	lo2, hi2, ok2 := rangeForPredicate(pred, c, o.Hi, o.Hi)
	if !ok1 && !ok2 {
		return Bottom(o.Type)
	}
	var lo, hi int64
	first := true
	for _, cand := range []struct {
		lo, hi int64
		ok     bool
	}{{lo1, hi1, ok1}, {lo2, hi2, ok2}} {
		if !cand.ok {
			continue
		}
		if first {
			lo, hi = cand.lo, cand.hi
			first = false
			continue
		}
		if cand.lo < lo {
			lo = cand.lo
		}
		if cand.hi > hi {
			hi = cand.hi
		}
	}
	entropy := (rnd.Float64() + o.Entropy) / 2
	return widen(Value{HasRange: true, Lo: lo, Hi: hi, Entropy: entropy, Type: o.Type})
}

// Unary applies a folding oracle to both endpoints of v, the unary
// transfer of §4.1.
func Unary(v Value, to ir.Type, f func(x int64, to ir.Type) (int64, bool)) Value {
	if !v.HasRange {
		return Bottom(to)
	}
	if isSaturated(v) {
		return Value{HasRange: true, Lo: v.Lo, Hi: v.Hi, Entropy: v.Entropy, Type: to}
	}
	flo, ok1 := f(v.Lo, to)
	fhi, ok2 := f(v.Hi, to)
	if !ok1 || !ok2 {
		return Bottom(to)
	}
	lo := min4(v.Lo, v.Hi, flo, fhi)
	hi := max4(v.Lo, v.Hi, flo, fhi)
	return widen(Value{HasRange: true, Lo: lo, Hi: hi, Entropy: v.Entropy, Type: to})
}

// Binary applies a folding oracle to the corners (and, where an operand
// straddles zero, the zero crossing) of a and b, the binary transfer of
// §4.1.
func Binary(a, b Value, result ir.Type, g func(x, y int64, t ir.Type) (int64, bool)) Value {
	if !a.HasRange || !b.HasRange {
		return Bottom(result)
	}
	if isSaturated(a) {
		return Value{HasRange: true, Lo: a.Lo, Hi: a.Hi, Entropy: a.Entropy, Type: result}
	}
	if isSaturated(b) {
		return Value{HasRange: true, Lo: b.Lo, Hi: b.Hi, Entropy: b.Entropy, Type: result}
	}

	xs := []int64{a.Lo, a.Hi}
	if straddlesZero(a) {
		xs = append(xs, 0)
	}
	ys := []int64{b.Lo, b.Hi}
	if straddlesZero(b) {
		ys = append(ys, 0)
	}

	var lo, hi int64
	first := true
	for _, x := range xs {
		for _, y := range ys {
			r, ok := g(x, y, result)
			if !ok {
				return Bottom(result)
			}
			if first {
				lo, hi = r, r
				first = false
				continue
			}
			if r < lo {
				lo = r
			}
			if r > hi {
				hi = r
			}
		}
	}
	entropy := (a.Entropy + b.Entropy) / 2
	return widen(Value{HasRange: true, Lo: lo, Hi: hi, Entropy: entropy, Type: result})
}

// Join computes a | b, the lattice join predecessor states are merged
// with.
func Join(a, b Value) Value {
	if a.Equal(b) {
		return a
	}
	if a.HasRange && b.HasRange {
		lo := min64(a.Lo, b.Lo)
		hi := max64(a.Hi, b.Hi)

		overlapLo, overlapHi := max64(a.Lo, b.Lo), min64(a.Hi, b.Hi)
		var overlap int64
		if overlapHi >= overlapLo {
			overlap = overlapHi - overlapLo + 1
		}
		widthA := a.Hi - a.Lo + 1
		widthB := b.Hi - b.Lo + 1
		pa, pb := 0.0, 0.0
		if widthA > 0 {
			pa = float64(overlap) / float64(widthA)
		}
		if widthB > 0 {
			pb = float64(overlap) / float64(widthB)
		}
		entropy := (1-pa)*a.Entropy + (1-pb)*b.Entropy + (pa*a.Entropy+pb*b.Entropy)/2

		t := a.Type
		if t == nil {
			t = b.Type
		}
		return widen(Value{HasRange: true, Lo: lo, Hi: hi, Entropy: entropy, Type: t})
	}
	if a.HasRange {
		return a
	}
	if b.HasRange {
		return b
	}
	t := a.Type
	if t == nil {
		t = b.Type
	}
	return Bottom(t)
}

// Equal compares endpoints only, per the equality law of §4.1.
func (v Value) Equal(o Value) bool {
	if v.HasRange != o.HasRange {
		return false
	}
	if !v.HasRange {
		return true
	}
	return v.Lo == o.Lo && v.Hi == o.Hi
}

// Hash is a Cantor-pairing scheme over the endpoints, consistent with
// Equal.
func (v Value) Hash() int64 {
	if !v.HasRange {
		return 0
	}
	a, b := v.Lo, v.Hi
	return (a+b)*(a+b+1)/2 + b
}

// widen applies the termination-forcing growth policy of §4.2.
func widen(v Value) Value {
	if !v.HasRange {
		return v
	}
	if v.Lo <= NEGINF && v.Hi >= INF {
		return v
	}
	w := v.Hi - v.Lo + 1
	if (1-v.Entropy)*float64(w) > float64(INF)/4 {
		return Value{HasRange: true, Lo: NEGINF, Hi: INF, Entropy: v.Entropy, Type: v.Type}
	}
	if v.Entropy < 0.5 {
		steps := w / 256
		if steps >= 1 {
			growth := math.Log(float64(w) / 2)
			delta := int64(float64(steps) * growth)
			lo, hi := v.Lo-delta, v.Hi+delta
			if lo < NEGINF {
				lo = NEGINF
			}
			if hi > INF {
				hi = INF
			}
			entropy := v.Entropy * (1 + float64(steps)*growth/float64(w))
			if entropy > 1 {
				entropy = 1
			}
			return Value{HasRange: true, Lo: lo, Hi: hi, Entropy: entropy, Type: v.Type}
		}
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min4(a, b, c, d int64) int64 { return min64(min64(a, b), min64(c, d)) }
func max4(a, b, c, d int64) int64 { return max64(max64(a, b), max64(c, d)) }

// Package fold provides the constant oracles the dataflow transfer
// function defers to: byte-width computation for bounds checking and
// arithmetic folding over concrete integers.
package fold

import "rangecheck/internal/ir"

// ByteWidth returns the total storage size of t, in bytes. For
// StructType it sums heterogeneous per-field widths rather than assuming
// a uniform stride, matching the original tool's getByteWidth behavior
// on aggregate types.
func ByteWidth(t ir.Type) int {
	switch v := t.(type) {
	case *ir.IntType:
		return (v.Bits + 7) / 8
	case *ir.ArrayType:
		return v.Count * ByteWidth(v.Elem)
	case *ir.StructType:
		total := 0
		for _, f := range v.Fields {
			total += ByteWidth(f)
		}
		return total
	case *ir.PointerType:
		// A pointer operand addresses Count contiguous elements of Elem;
		// Count == 0 means the bound is unknown and no check is possible.
		if v.Count <= 0 {
			return 0
		}
		return v.Count * ByteWidth(v.Elem)
	default:
		return 0
	}
}

// ElementCount returns how many addressable elements of t's element type
// exist, the bound an index instruction's offset is checked against.
// ok is false when t carries no static bound (e.g. an unsized pointer).
func ElementCount(t ir.Type) (count int, ok bool) {
	switch v := t.(type) {
	case *ir.ArrayType:
		return v.Count, true
	case *ir.PointerType:
		if v.Count <= 0 {
			return 0, false
		}
		return v.Count, true
	case *ir.StructType:
		return len(v.Fields), true
	default:
		return 0, false
	}
}

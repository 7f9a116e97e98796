package dataflow

import "rangecheck/internal/ir"

// State is the abstract state at some program point: a mapping from IR
// value handle to interval. A handle absent from the map denotes bottom.
type State map[ir.Handle]Value

// Get returns the interval bound to h, or bottom if h is untracked.
func (s State) Get(h ir.Handle) Value {
	if v, ok := s[h]; ok {
		return v
	}
	return Value{}
}

// Clone returns an independent copy, so mutating the result never
// aliases the state it was derived from.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal compares two states key-by-key using Value.Equal, ignoring
// entropy noise, the comparison the driver's fixpoint check uses.
func (s State) Equal(o State) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// JoinStates merges two states key-by-key via Join.
func JoinStates(a, b State) State {
	out := make(State, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = Join(existing, v)
		} else {
			out[k] = v
		}
	}
	return out
}

// Result is the per-function dataflow result: for each instruction
// handle, the outgoing state after that instruction; for each block
// handle, the entry state of that block.
type Result map[ir.Handle]State

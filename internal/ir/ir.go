// Package ir defines the adapter this analyzer runs against: functions,
// basic blocks, typed SSA values, and one instruction type per opcode the
// dataflow engine understands (binary op, cast, compare, branch, phi,
// call, return, index-of-element, load, store, alloca).
//
// A real front end (bitcode reader, bytecode loader, whatever produces the
// module under analysis) only needs to populate these types; the engine in
// internal/dataflow never looks past this package's interfaces.
package ir

import "fmt"

// Handle is a stable arena-assigned identity for a Value, Instruction, or
// Block. Using a flat int32 space instead of Go pointer identity keeps
// abstract-state equality a plain value comparison.
type Handle int32

type arena struct{ next Handle }

func (a *arena) alloc() Handle {
	a.next++
	return a.next
}

// Type is the static type carried by a Value or Operand.
type Type interface {
	fmt.Stringer
	isType()
}

// IntType is a fixed-width two's-complement integer type.
type IntType struct{ Bits int }

func (*IntType) isType()          {}
func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

// ArrayType is a fixed-length, uniformly-strided aggregate — the common
// case an index computation bounds-checks against.
type ArrayType struct {
	Elem  Type
	Count int
}

func (*ArrayType) isType() {}
func (t *ArrayType) String() string {
	return fmt.Sprintf("[%d x %s]", t.Count, t.Elem)
}

// StructType is a heterogeneous aggregate; each field may have its own
// byte width.
type StructType struct{ Fields []Type }

func (*StructType) isType() {}
func (t *StructType) String() string {
	s := "{"
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.String()
	}
	return s + "}"
}

// PointerType models a raw pointer into a contiguous region of Count
// addressable elements of type Elem, each as wide as Elem's byte width.
// Count == 0 means the region's bound is unknown.
type PointerType struct {
	Elem  Type
	Count int
}

func (*PointerType) isType() {}
func (t *PointerType) String() string {
	return fmt.Sprintf("%s*[%d]", t.Elem, t.Count)
}

// Value is an SSA value: a function parameter or the result of exactly one
// instruction.
type Value struct {
	ID   Handle
	Name string
	Type Type
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return "%" + v.Name
}

// Operand is either a reference to a previously defined Value or an
// inline integer constant, mirroring the adapter's "constant detection"
// requirement from the spec.
type Operand struct {
	Value   *Value
	Const   int64
	IsConst bool
	Type    Type
}

// ValueOperand wraps a defined SSA value as an operand.
func ValueOperand(v *Value) Operand {
	return Operand{Value: v, Type: v.Type}
}

// ConstOperand wraps an inline constant as an operand.
func ConstOperand(c int64, t Type) Operand {
	return Operand{IsConst: true, Const: c, Type: t}
}

func (o Operand) String() string {
	if o.IsConst {
		return fmt.Sprintf("%d", o.Const)
	}
	return o.Value.String()
}

package ir

import "strings"

// Dump renders a module in a form close to the textual assembly, for
// debug output. Compare predicates are omitted, call arguments and phi
// incoming values print as "(...)", and pointer types print as T*[N], so
// the output does not parse back.
func (m *Module) Dump() string {
	var b strings.Builder
	b.WriteString("module {\n")
	for _, fn := range m.Functions {
		b.WriteString(fn.dump())
	}
	b.WriteString("}\n")
	return b.String()
}

func (f *Function) dump() string {
	var b strings.Builder
	if f.IsDeclaration {
		b.WriteString("  declare @" + f.Name + "(")
		for i, p := range f.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteString(")\n")
		return b.String()
	}

	b.WriteString("  fn @" + f.Name + "(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") {\n")
	for _, blk := range f.Blocks {
		b.WriteString("  " + blk.Label + ":\n")
		for _, instr := range blk.Instructions {
			b.WriteString("    " + instr.String() + "\n")
		}
	}
	b.WriteString("  }\n")
	return b.String()
}

package ir

import (
	"fmt"
	"strconv"

	"rangecheck/grammar"
)

// wordType is the type assigned to function parameters and to any operand
// that carries no explicit type annotation in the textual assembly: the
// format only types aggregates and pointers explicitly, so plain
// registers default to a generic 64-bit word.
var wordType Type = &IntType{Bits: 64}

type builder struct {
	arena  arena
	mod    *Module
	values map[string]*Value
	blocks map[string]*Block
}

// Build lowers a parsed grammar module into the ir graph the dataflow
// engine runs over. It runs two passes per function: the first registers
// every block label and result register so that phi incoming values and
// branch targets resolve regardless of textual order, the second builds
// the concrete Instruction values and wires predecessor/successor edges.
func Build(gmod *grammar.Module) (*Module, error) {
	mod := &Module{byName: make(map[string]*Function)}

	for _, item := range gmod.Items {
		switch {
		case item.Declare != nil:
			b := &builder{mod: mod}
			fn := &Function{Name: item.Declare.Name, IsDeclaration: true}
			for _, p := range item.Declare.Params {
				fn.Params = append(fn.Params, &Value{ID: b.arena.alloc(), Name: p, Type: wordType})
			}
			if _, exists := mod.byName[fn.Name]; exists {
				return nil, fmt.Errorf("duplicate function name %q", fn.Name)
			}
			mod.Functions = append(mod.Functions, fn)
			mod.byName[fn.Name] = fn
		case item.Fn != nil:
			if _, exists := mod.byName[item.Fn.Name]; exists {
				return nil, fmt.Errorf("duplicate function name %q", item.Fn.Name)
			}
			fn := &Function{Name: item.Fn.Name}
			mod.Functions = append(mod.Functions, fn)
			mod.byName[fn.Name] = fn
		}
	}

	for _, item := range gmod.Items {
		if item.Fn == nil {
			continue
		}
		fn := mod.byName[item.Fn.Name]
		b := &builder{mod: mod, values: make(map[string]*Value), blocks: make(map[string]*Block)}
		if err := b.buildFunction(fn, item.Fn); err != nil {
			return nil, fmt.Errorf("function %q: %w", fn.Name, err)
		}
	}

	return mod, nil
}

func (b *builder) buildFunction(fn *Function, gfn *grammar.Function) error {
	for _, p := range gfn.Params {
		v := &Value{ID: b.arena.alloc(), Name: p, Type: wordType}
		fn.Params = append(fn.Params, v)
		b.values[p] = v
	}

	for _, gb := range gfn.Blocks {
		if _, dup := b.blocks[gb.Label]; dup {
			return fmt.Errorf("duplicate block label %q", gb.Label)
		}
		block := &Block{h: b.arena.alloc(), Label: gb.Label, Function: fn}
		fn.Blocks = append(fn.Blocks, block)
		b.blocks[gb.Label] = block
	}
	if len(fn.Blocks) > 0 {
		fn.Entry = fn.Blocks[0]
	}

	for _, gi := range gfn.Blocks {
		if err := b.registerResults(gi); err != nil {
			return err
		}
	}

	for idx, gb := range gfn.Blocks {
		block := fn.Blocks[idx]
		for _, gi := range gb.Instrs {
			instr, err := b.buildInstr(block, gi)
			if err != nil {
				return err
			}
			block.Instructions = append(block.Instructions, instr)
			b.wireEdges(block, instr)
		}
	}
	return nil
}

// registerResults pre-creates a placeholder Value for every instruction
// that produces one, so operand resolution never depends on textual order.
func (b *builder) registerResults(gb *grammar.Block) error {
	for _, gi := range gb.Instrs {
		if gi.Value == nil {
			continue
		}
		if _, dup := b.values[gi.Value.Result]; dup {
			return fmt.Errorf("register %%%s redefined", gi.Value.Result)
		}
		b.values[gi.Value.Result] = &Value{ID: b.arena.alloc(), Name: gi.Value.Result, Type: wordType}
	}
	return nil
}

func (b *builder) wireEdges(from *Block, instr Instruction) {
	switch t := instr.(type) {
	case *BranchInstr:
		from.Succs = append(from.Succs, t.TrueBlock, t.FalseBlock)
		t.TrueBlock.Preds = append(t.TrueBlock.Preds, from)
		t.FalseBlock.Preds = append(t.FalseBlock.Preds, from)
	case *JumpInstr:
		from.Succs = append(from.Succs, t.Target)
		t.Target.Preds = append(t.Target.Preds, from)
	}
}

func (b *builder) buildInstr(block *Block, gi *grammar.Instr) (Instruction, error) {
	// A value-producing instruction shares its result's handle, so the
	// interval the dataflow transfer stores under Handle() is the one its
	// users look up by Value.ID.
	var h Handle
	if gi.Value != nil {
		h = b.values[gi.Value.Result].ID
	} else {
		h = b.arena.alloc()
	}
	base := base{h: h, block: block, line: gi.Pos.Line, hasLn: gi.Pos.Line > 0}

	if gi.Value != nil {
		return b.buildValueInstr(base, gi.Value)
	}
	return b.buildVoidInstr(base, gi.Void)
}

func (b *builder) buildValueInstr(base base, v *grammar.ValueInstr) (Instruction, error) {
	result := b.values[v.Result]

	switch {
	case v.Alloca != nil:
		elem, err := b.convType(v.Alloca.Type)
		if err != nil {
			return nil, err
		}
		count := 1
		var countOp Operand
		if v.Alloca.Count != nil {
			op, err := b.resolveOperand(v.Alloca.Count)
			if err != nil {
				return nil, err
			}
			countOp = op
			if op.IsConst {
				count = int(op.Const)
			}
		} else {
			countOp = ConstOperand(1, wordType)
		}
		result.Type = &PointerType{Elem: elem, Count: count}
		return &AllocaInstr{base: base, result: result, ElemType: elem, Count: countOp}, nil

	case v.Index != nil:
		baseOp, err := b.resolveOperand(v.Index.Base)
		if err != nil {
			return nil, err
		}
		elem, err := b.convType(v.Index.ElemType)
		if err != nil {
			return nil, err
		}
		idxOp, err := b.resolveOperand(v.Index.Index)
		if err != nil {
			return nil, err
		}
		result.Type = &PointerType{Elem: elemOf(elem), Count: 1}
		return &IndexInstr{base: base, result: result, Base: baseOp, ElemType: elem, Index: idxOp}, nil

	case v.Load != nil:
		addr, err := b.resolveOperand(v.Load.Addr)
		if err != nil {
			return nil, err
		}
		if pt, ok := addr.Type.(*PointerType); ok {
			result.Type = pt.Elem
		}
		return &LoadInstr{base: base, result: result, Addr: addr}, nil

	case v.Binary != nil:
		left, err := b.resolveOperand(v.Binary.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.resolveOperand(v.Binary.Right)
		if err != nil {
			return nil, err
		}
		op, err := binOpFromString(v.Binary.Op)
		if err != nil {
			return nil, err
		}
		result.Type = wordType
		return &BinaryInstr{base: base, result: result, Op: op, Left: left, Right: right}, nil

	case v.Cast != nil:
		val, err := b.resolveOperand(v.Cast.Value)
		if err != nil {
			return nil, err
		}
		to, err := b.convType(v.Cast.To)
		if err != nil {
			return nil, err
		}
		op, err := castOpFromString(v.Cast.Op)
		if err != nil {
			return nil, err
		}
		result.Type = to
		return &CastInstr{base: base, result: result, Op: op, Value: val, To: to}, nil

	case v.Cmp != nil:
		left, err := b.resolveOperand(v.Cmp.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.resolveOperand(v.Cmp.Right)
		if err != nil {
			return nil, err
		}
		pred, err := predicateFromString(v.Cmp.Pred)
		if err != nil {
			return nil, err
		}
		result.Type = &IntType{Bits: 1}
		return &CompareInstr{base: base, result: result, Pred: pred, Left: left, Right: right}, nil

	case v.Call != nil:
		callee, ok := b.mod.Lookup(v.Call.Callee)
		if !ok {
			return nil, fmt.Errorf("call to undefined function @%s", v.Call.Callee)
		}
		args := make([]Operand, len(v.Call.Args))
		for i, a := range v.Call.Args {
			op, err := b.resolveOperand(a)
			if err != nil {
				return nil, err
			}
			args[i] = op
		}
		result.Type = wordType
		return &CallInstr{base: base, result: result, Callee: callee, Args: args}, nil

	case v.Phi != nil:
		incoming := make([]PhiEdge, len(v.Phi.Args))
		for i, a := range v.Phi.Args {
			op, err := b.resolveOperand(a.Value)
			if err != nil {
				return nil, err
			}
			pred, ok := b.blocks[a.Block]
			if !ok {
				return nil, fmt.Errorf("phi references unknown block %q", a.Block)
			}
			incoming[i] = PhiEdge{Value: op, Pred: pred}
		}
		return &PhiInstr{base: base, result: result, Incoming: incoming}, nil
	}
	return nil, fmt.Errorf("unrecognized value instruction at line %d", base.line)
}

func (b *builder) buildVoidInstr(base base, v *grammar.VoidInstr) (Instruction, error) {
	switch {
	case v.Store != nil:
		val, err := b.resolveOperand(v.Store.Value)
		if err != nil {
			return nil, err
		}
		addr, err := b.resolveOperand(v.Store.Addr)
		if err != nil {
			return nil, err
		}
		return &StoreInstr{base: base, Addr: addr, Value: val}, nil

	case v.Ret != nil:
		ret := &ReturnInstr{base: base}
		if v.Ret.Value != nil {
			val, err := b.resolveOperand(v.Ret.Value)
			if err != nil {
				return nil, err
			}
			ret.Value = val
			ret.HasVal = true
		}
		return ret, nil

	case v.Br != nil:
		cond, err := b.resolveOperand(v.Br.Cond)
		if err != nil {
			return nil, err
		}
		tb, ok := b.blocks[v.Br.True]
		if !ok {
			return nil, fmt.Errorf("br references unknown block %q", v.Br.True)
		}
		fb, ok := b.blocks[v.Br.False]
		if !ok {
			return nil, fmt.Errorf("br references unknown block %q", v.Br.False)
		}
		return &BranchInstr{base: base, Cond: cond, TrueBlock: tb, FalseBlock: fb}, nil

	case v.Jmp != nil:
		target, ok := b.blocks[v.Jmp.Target]
		if !ok {
			return nil, fmt.Errorf("jmp references unknown block %q", v.Jmp.Target)
		}
		return &JumpInstr{base: base, Target: target}, nil
	}
	return nil, fmt.Errorf("unrecognized void instruction at line %d", base.line)
}

func (b *builder) resolveOperand(op *grammar.Operand) (Operand, error) {
	if op.Ident != nil {
		v, ok := b.values[*op.Ident]
		if !ok {
			return Operand{}, fmt.Errorf("reference to undefined register %%%s", *op.Ident)
		}
		return ValueOperand(v), nil
	}
	n, err := strconv.ParseInt(*op.Int, 10, 64)
	if err != nil {
		return Operand{}, fmt.Errorf("malformed integer literal %q: %w", *op.Int, err)
	}
	return ConstOperand(n, wordType), nil
}

func (b *builder) convType(t *grammar.Type) (Type, error) {
	var base Type
	switch {
	case t.Base.Int != nil:
		bits, err := strconv.Atoi(t.Base.Int.Bits)
		if err != nil {
			return nil, fmt.Errorf("malformed integer width %q: %w", t.Base.Int.Bits, err)
		}
		base = &IntType{Bits: bits}
	case t.Base.Array != nil:
		count, err := strconv.Atoi(t.Base.Array.Count)
		if err != nil {
			return nil, fmt.Errorf("malformed array length %q: %w", t.Base.Array.Count, err)
		}
		elem, err := b.convType(t.Base.Array.Elem)
		if err != nil {
			return nil, err
		}
		base = &ArrayType{Elem: elem, Count: count}
	case t.Base.Struct != nil:
		fields := make([]Type, len(t.Base.Struct.Fields))
		for i, f := range t.Base.Struct.Fields {
			ft, err := b.convType(f)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		base = &StructType{Fields: fields}
	default:
		return nil, fmt.Errorf("malformed type")
	}

	for range t.Stars {
		base = &PointerType{Elem: base, Count: 0}
	}
	return base, nil
}

// elemOf returns the per-element type an index instruction addresses:
// the array's element type, or the plain type itself for a scalar index.
func elemOf(t Type) Type {
	if at, ok := t.(*ArrayType); ok {
		return at.Elem
	}
	return t
}

func binOpFromString(s string) (BinOp, error) {
	switch s {
	case "add":
		return Add, nil
	case "sub":
		return Sub, nil
	case "mul":
		return Mul, nil
	case "sdiv":
		return SDiv, nil
	case "srem":
		return SRem, nil
	case "and":
		return And, nil
	case "or":
		return Or, nil
	case "xor":
		return Xor, nil
	case "shl":
		return Shl, nil
	case "ashr":
		return AShr, nil
	case "lshr":
		return LShr, nil
	}
	return 0, fmt.Errorf("unknown binary opcode %q", s)
}

func castOpFromString(s string) (CastOp, error) {
	switch s {
	case "trunc":
		return Trunc, nil
	case "sext":
		return SExt, nil
	case "zext":
		return ZExt, nil
	}
	return 0, fmt.Errorf("unknown cast opcode %q", s)
}

func predicateFromString(s string) (Predicate, error) {
	switch s {
	case "eq":
		return IEQ, nil
	case "ne":
		return INE, nil
	case "slt":
		return SLT, nil
	case "sle":
		return SLE, nil
	case "sgt":
		return SGT, nil
	case "sge":
		return SGE, nil
	case "ult":
		return ULT, nil
	case "ule":
		return ULE, nil
	case "ugt":
		return UGT, nil
	case "uge":
		return UGE, nil
	}
	return 0, fmt.Errorf("unknown predicate %q", s)
}

package dataflow

import "rangecheck/internal/ir"
import "rangecheck/internal/fold"

// resolveOperandValue reads an operand's interval out of S, or builds a
// singleton for an inline constant.
func resolveOperandValue(op ir.Operand, S State) Value {
	if op.IsConst {
		return FromConstant(op.Const, op.Type)
	}
	if op.Value == nil {
		return Value{}
	}
	return S.Get(op.Value.ID)
}

// widthsFor returns the per-element byte width at the low and high ends
// of an indexable aggregate and its element-count bound, the "byte-width
// oracle" result the index transfer checks against.
func widthsFor(t ir.Type) (first, last, length int, ok bool) {
	switch v := t.(type) {
	case *ir.ArrayType:
		w := fold.ByteWidth(v.Elem)
		return w, w, v.Count, true
	case *ir.StructType:
		if len(v.Fields) == 0 {
			return 0, 0, 0, false
		}
		return fold.ByteWidth(v.Fields[0]), fold.ByteWidth(v.Fields[len(v.Fields)-1]), len(v.Fields), true
	case *ir.PointerType:
		if v.Count <= 0 {
			return 0, 0, 0, false
		}
		w := fold.ByteWidth(v.Elem)
		return w, w, v.Count, true
	default:
		return 0, 0, 0, false
	}
}

// checkError implements §4.3's address-bounds check: whether the index
// operand can be proven in range, and if not, the offending range.
func checkError(idx ir.Operand, length int, S State) (Value, bool) {
	if idx.IsConst {
		k := idx.Const
		if k < 0 || k >= int64(length) {
			return Value{HasRange: true, Lo: k, Hi: k}, true
		}
		return Value{}, false
	}
	if idx.Value == nil {
		return Value{}, false
	}
	v := S.Get(idx.Value.ID)
	if !v.HasRange {
		return Value{HasRange: true, Lo: NEGINF, Hi: INF}, true
	}
	if v.Lo < 0 || v.Hi >= int64(length) {
		return Value{HasRange: true, Lo: v.Lo, Hi: v.Hi}, true
	}
	return Value{}, false
}

// handleIndex implements the index-computation branch of §4.3: bounds
// check the offset and, on failure, record a candidate report keyed on
// the resulting address value.
func (e *Engine) handleIndex(fnName string, instr *ir.IndexInstr, S State, context []int) {
	first, last, length, ok := widthsFor(instr.ElemType)
	resultType := instr.Result().Type
	if !ok {
		S[instr.Handle()] = Bottom(resultType)
		return
	}

	rep, flagged := checkError(instr.Index, length, S)
	S[instr.Handle()] = Bottom(resultType)
	if !flagged {
		return
	}
	line, hasLine := instr.Line()
	if !hasLine {
		return
	}
	report := Report{
		Function: fnName,
		Context:  append([]int(nil), context...),
		Line:     line,
		Length:   length,
		Lo:       rep.Lo * int64(first),
		Hi:       rep.Hi * int64(last),
	}
	e.addCandidate(context, instr.Result().ID, report)
}

func (e *Engine) handleLoad(instr *ir.LoadInstr, S State, context []int) {
	S[instr.Handle()] = Bottom(instr.Result().Type)
	if instr.Addr.IsConst || instr.Addr.Value == nil {
		return
	}
	e.commitIfCandidate(context, instr.Addr.Value.ID)
}

func (e *Engine) handleStore(instr *ir.StoreInstr, context []int) {
	if instr.Addr.IsConst || instr.Addr.Value == nil {
		return
	}
	e.commitIfCandidate(context, instr.Addr.Value.ID)
}

func (e *Engine) handleBinary(instr *ir.BinaryInstr, S State) {
	left := resolveOperandValue(instr.Left, S)
	right := resolveOperandValue(instr.Right, S)
	S[instr.Handle()] = Binary(left, right, instr.Result().Type, func(x, y int64, t ir.Type) (int64, bool) {
		return fold.Binary(instr.Op, x, y, t)
	})
}

func (e *Engine) handleCast(instr *ir.CastInstr, S State) {
	v := resolveOperandValue(instr.Value, S)
	fromType := instr.Value.Type
	S[instr.Handle()] = Unary(v, instr.To, func(x int64, to ir.Type) (int64, bool) {
		return fold.Unary(instr.Op, x, fromType, to)
	})
}

func (e *Engine) handleAlloca(instr *ir.AllocaInstr, S State) {
	v := resolveOperandValue(instr.Count, S)
	v.Type = instr.Result().Type
	S[instr.Handle()] = v
}

// handleCompare implements §4.7's compare/branch refinement: when
// exactly one operand is a literal, it writes the refined interval back
// onto the variable operand and reports which value it refined so the
// driver can derive the bound_checked successor-skip flag.
func (e *Engine) handleCompare(instr *ir.CompareInstr, S State) (refined ir.Handle, didRefine bool) {
	S[instr.Handle()] = Bottom(instr.Result().Type)

	leftLit, rightLit := instr.Left.IsConst, instr.Right.IsConst
	switch {
	case leftLit && rightLit:
		return 0, false
	case !leftLit && !rightLit:
		return 0, false
	case rightLit && instr.Left.Value != nil:
		prev := S.Get(instr.Left.Value.ID)
		S[instr.Left.Value.ID] = RefineFromConstant(instr.Pred, instr.Right.Const, prev, e.rnd)
		return instr.Left.Value.ID, true
	case leftLit && instr.Right.Value != nil:
		prev := S.Get(instr.Right.Value.ID)
		S[instr.Right.Value.ID] = RefineFromConstant(instr.Pred, instr.Left.Const, prev, e.rnd)
		return instr.Right.Value.ID, true
	default:
		return 0, false
	}
}

// handlePhi implements §4.5: an explicit join over incoming values, each
// looked up in the block's (already predecessor-merged) entry state.
func (e *Engine) handlePhi(instr *ir.PhiInstr, S State) {
	var acc Value
	first := true
	for _, edge := range instr.Incoming {
		var v Value
		switch {
		case edge.Value.IsConst:
			v = FromConstant(edge.Value.Const, edge.Value.Type)
		case edge.Value.Value != nil:
			if _, tracked := S[edge.Value.Value.ID]; !tracked {
				continue
			}
			v = S.Get(edge.Value.Value.ID)
		default:
			continue
		}
		if first {
			acc = v
			first = false
		} else {
			acc = Join(acc, v)
		}
	}
	if first {
		acc = Bottom(instr.Result().Type)
	}
	S[instr.Handle()] = acc
}

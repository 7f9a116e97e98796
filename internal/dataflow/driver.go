package dataflow

import "rangecheck/internal/ir"

// Analyze runs the forward dataflow driver over fn (spec §4.4), seeded
// with a parameter binding built positionally from args, and prefixed by
// context — the chain of caller source lines that got us here.
func (e *Engine) Analyze(fn *ir.Function, context []int, args []Value) Result {
	result := make(Result)
	for _, b := range fn.Blocks {
		result[b.Handle()] = State{}
		for _, instr := range b.Instructions {
			result[instr.Handle()] = State{}
		}
	}

	paramState := State{}
	for i, p := range fn.Params {
		if i < len(args) {
			paramState[p.ID] = args[i]
		}
	}

	visited := make(map[ir.Handle]bool)

	queue := append([]*ir.Block(nil), fn.ReversePostOrder()...)
	inQueue := make(map[ir.Handle]bool, len(queue))
	for _, b := range queue {
		inQueue[b.Handle()] = true
	}

	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		inQueue[b.Handle()] = false

		oldEntry := result[b.Handle()]
		var oldExit State
		if term := b.Terminator(); term != nil {
			oldExit = result[term.Handle()]
		}

		entry := e.mergePredecessors(b, result, visited)
		for _, p := range fn.Params {
			if _, ok := entry[p.ID]; !ok {
				entry[p.ID] = paramState.Get(p.ID)
			}
		}

		if visited[b.Handle()] && entry.Equal(oldEntry) {
			continue
		}
		visited[b.Handle()] = true
		result[b.Handle()] = entry

		S := entry.Clone()
		var refinedHandle ir.Handle
		var didRefine bool

		for _, instr := range b.Instructions {
			switch t := instr.(type) {
			case *ir.PhiInstr:
				e.handlePhi(t, S)
			case *ir.IndexInstr:
				e.handleIndex(fn.Name, t, S, context)
			case *ir.LoadInstr:
				e.handleLoad(t, S, context)
			case *ir.StoreInstr:
				e.handleStore(t, context)
			case *ir.BinaryInstr:
				e.handleBinary(t, S)
			case *ir.CastInstr:
				e.handleCast(t, S)
			case *ir.AllocaInstr:
				e.handleAlloca(t, S)
			case *ir.CompareInstr:
				refinedHandle, didRefine = e.handleCompare(t, S)
			case *ir.CallInstr:
				e.handleCall(t, S, context)
			case *ir.ReturnInstr:
				e.handleReturn(fn.Name, args, t, S)
			case *ir.BranchInstr, *ir.JumpInstr:
				// terminators carry no generic transfer of their own; the
				// branch's bound_checked effect is derived below.
			default:
				if instr.Result() != nil {
					if _, ok := S[instr.Handle()]; !ok {
						S[instr.Handle()] = Bottom(instr.Result().Type)
					}
				}
			}
			result[instr.Handle()] = S.Clone()
		}

		boundChecked := false
		if _, isBranch := b.Terminator().(*ir.BranchInstr); isBranch && didRefine {
			if _, present := entry[refinedHandle]; !present {
				boundChecked = true
			}
		}

		var exit State
		if term := b.Terminator(); term != nil {
			exit = result[term.Handle()]
		}

		if exit.Equal(oldExit) || boundChecked {
			continue
		}
		for _, s := range b.Succs {
			if !inQueue[s.Handle()] {
				queue = append(queue, s)
				inQueue[s.Handle()] = true
			}
		}
	}

	return result
}

func (e *Engine) mergePredecessors(b *ir.Block, result Result, visited map[ir.Handle]bool) State {
	var entry State
	first := true
	for _, p := range b.Preds {
		if !visited[p.Handle()] {
			continue
		}
		term := p.Terminator()
		if term == nil {
			continue
		}
		ps := result[term.Handle()]
		if first {
			entry = ps.Clone()
			first = false
			continue
		}
		entry = JoinStates(entry, ps)
	}
	if first {
		entry = State{}
	}
	return entry
}

// handleCall implements §4.6: cache on argument-interval tuple, pre-insert
// a bottom summary to terminate recursion, then recurse into the callee
// when under the context-depth bound and a call-site line is available.
func (e *Engine) handleCall(instr *ir.CallInstr, S State, context []int) {
	args := make([]Value, len(instr.Args))
	for i, a := range instr.Args {
		args[i] = resolveOperandValue(a, S)
	}

	callee := instr.Callee
	if callee.IsDeclaration {
		S[instr.Handle()] = Bottom(instr.Result().Type)
		return
	}

	if ret, ok := e.Summaries.Lookup(callee.Name, args); ok {
		S[instr.Handle()] = ret
		return
	}

	e.Summaries.Set(callee.Name, args, Bottom(instr.Result().Type))

	line, hasLine := instr.Line()
	if len(context) <= e.MaxDepth && hasLine {
		childContext := append(append([]int(nil), context...), line)
		e.Analyze(callee, childContext, args)
	}

	ret, _ := e.Summaries.Lookup(callee.Name, args)
	S[instr.Handle()] = ret
}

// handleReturn implements the return-instruction half of §4.6: write the
// current function's summary slot for its own call-site arguments.
func (e *Engine) handleReturn(fnName string, args []Value, instr *ir.ReturnInstr, S State) {
	var ret Value
	switch {
	case !instr.HasVal:
		ret = Value{}
	case instr.Value.IsConst:
		ret = FromConstant(instr.Value.Const, instr.Value.Type)
	case instr.Value.Value != nil:
		ret = S.Get(instr.Value.Value.ID)
	default:
		ret = Value{}
	}
	e.Summaries.Set(fnName, args, ret)
}

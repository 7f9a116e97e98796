package ir

import (
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// Block is a basic block: a straight-line instruction sequence ending in
// exactly one terminator.
type Block struct {
	h            Handle
	Label        string
	Function     *Function
	Instructions []Instruction
	Preds        []*Block
	Succs        []*Block
}

func (b *Block) Handle() Handle { return b.h }

// Terminator returns the block's final instruction, which must satisfy
// IsTerminator.
func (b *Block) Terminator() Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Function is a defined or declared function. Declarations carry a name
// and arity only; the dataflow driver never descends into one.
type Function struct {
	Name          string
	IsDeclaration bool
	Params        []*Value
	Blocks        []*Block
	Entry         *Block
}

// ReversePostOrder returns this function's basic blocks in reverse
// post-order starting from Entry, the seeding order the worklist driver
// uses for fast convergence (spec §4.4 step 3). The traversal itself is
// delegated to a depth-first search over a lightweight label graph built
// from the CFG edges, rather than hand-rolled recursion.
func (f *Function) ReversePostOrder() []*Block {
	if f.Entry == nil {
		return nil
	}
	if len(f.Blocks) == 1 {
		return []*Block{f.Entry}
	}

	g := core.NewGraph(core.WithDirected(true))
	byLabel := make(map[string]*Block, len(f.Blocks))
	for _, b := range f.Blocks {
		if err := g.AddVertex(b.Label); err != nil {
			return append([]*Block(nil), f.Blocks...)
		}
		byLabel[b.Label] = b
	}
	for _, b := range f.Blocks {
		for _, s := range b.Succs {
			if _, err := g.AddEdge(b.Label, s.Label, 0); err != nil {
				return append([]*Block(nil), f.Blocks...)
			}
		}
	}

	var postorder []string
	_, err := dfs.DFS(g, f.Entry.Label, dfs.WithOnExit(func(id string) error {
		postorder = append(postorder, id)
		return nil
	}))
	if err != nil {
		// Disconnected or malformed CFG: fall back to declaration order,
		// which still terminates, just without the fast-convergence benefit.
		return append([]*Block(nil), f.Blocks...)
	}

	rpo := make([]*Block, len(postorder))
	for i, label := range postorder {
		rpo[len(postorder)-1-i] = byLabel[label]
	}
	return rpo
}

// Module is a collection of functions sharing a namespace of call targets.
type Module struct {
	Functions []*Function
	byName    map[string]*Function
}

// Lookup resolves a callee by name.
func (m *Module) Lookup(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

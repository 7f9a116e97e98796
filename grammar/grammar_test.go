package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangecheck/grammar"
)

const sample = `
module {
  declare @sink(%x)

  fn @h(%y) {
  entry:
    %a = alloca [10 x i32]
    %p = index %a, [10 x i32], %y
    store 0, %p
    %v = load %p
    ret %v
  }
}
`

func TestParseModule(t *testing.T) {
	mod, err := grammar.ParseString("sample.ir", sample)
	require.NoError(t, err)
	require.Len(t, mod.Items, 2)

	assert.NotNil(t, mod.Items[0].Declare)
	assert.Equal(t, "sink", mod.Items[0].Declare.Name)
	assert.Equal(t, []string{"x"}, mod.Items[0].Declare.Params)

	fn := mod.Items[1].Fn
	require.NotNil(t, fn)
	assert.Equal(t, "h", fn.Name)
	require.Len(t, fn.Blocks, 1)

	block := fn.Blocks[0]
	assert.Equal(t, "entry", block.Label)
	require.Len(t, block.Instrs, 5)

	alloca := block.Instrs[0].Value
	require.NotNil(t, alloca)
	assert.Equal(t, "a", alloca.Result)
	require.NotNil(t, alloca.Alloca)
	require.NotNil(t, alloca.Alloca.Type.Base.Array)
	assert.Equal(t, "10", alloca.Alloca.Type.Base.Array.Count)

	index := block.Instrs[1].Value
	require.NotNil(t, index)
	require.NotNil(t, index.Index)
	assert.Equal(t, "a", *index.Index.Base.Ident)

	store := block.Instrs[2].Void
	require.NotNil(t, store)
	require.NotNil(t, store.Store)
	assert.Equal(t, "0", *store.Store.Value.Int)
}

func TestParseNegativeConstant(t *testing.T) {
	const src = `
module {
  fn @g() {
  entry:
    %p = alloca [4 x i32]
    %q = index %p, [4 x i32], -1
    ret
  }
}
`
	mod, err := grammar.ParseString("neg.ir", src)
	require.NoError(t, err)
	index := mod.Items[0].Fn.Blocks[0].Instrs[1].Value.Index
	require.NotNil(t, index)
	assert.Equal(t, "-1", *index.Index.Int)
}

func TestParseRejectsMalformedModule(t *testing.T) {
	_, err := grammar.ParseString("bad.ir", `module { fn @h( { } }`)
	assert.Error(t, err)
}

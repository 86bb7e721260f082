package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunk_WriteConstant_ShortForm(t *testing.T) {
	c := NewChunk()
	c.WriteConstant(NumberVal(1), 1)

	require.Equal(t, []byte{byte(OP_CONSTANT), 0}, c.Code)
	require.Len(t, c.Constants, 1)
}

func TestChunk_WriteConstant_LongForm(t *testing.T) {
	c := NewChunk()
	for i := 0; i < 257; i++ {
		c.WriteConstant(NumberVal(float64(i)), 1)
	}

	// The 257th constant (index 256) no longer fits in one byte.
	require.Equal(t, 257, len(c.Constants))

	// Find the last emitted instruction: it must be OP_CONSTANT_LONG with a
	// 3-byte little-endian operand encoding index 256.
	lastOp := Opcode(c.Code[len(c.Code)-4])
	require.Equal(t, OP_CONSTANT_LONG, lastOp)
	idx := int(c.Code[len(c.Code)-3]) | int(c.Code[len(c.Code)-2])<<8 | int(c.Code[len(c.Code)-1])<<16
	require.Equal(t, 256, idx)
}

func TestChunk_LineAt(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OP_NIL, 1)
	c.WriteOp(OP_NIL, 1)
	c.WriteOp(OP_NIL, 2)
	c.WriteOp(OP_NIL, 5)

	require.Equal(t, 1, c.LineAt(0))
	require.Equal(t, 1, c.LineAt(1))
	require.Equal(t, 2, c.LineAt(2))
	require.Equal(t, 5, c.LineAt(3))
}

func TestChunk_AddConstant_ReturnsSequentialIndex(t *testing.T) {
	c := NewChunk()
	require.Equal(t, 0, c.AddConstant(NumberVal(1)))
	require.Equal(t, 1, c.AddConstant(NumberVal(2)))
}

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func internedString(s string) *ObjString {
	return &ObjString{Chars: s, Hash: fnvHash(s)}
}

func TestTable_SetGetDelete(t *testing.T) {
	tbl := NewTable()
	key := internedString("foo")

	_, ok := tbl.Get(key)
	require.False(t, ok)

	isNew := tbl.Set(key, NumberVal(42))
	require.True(t, isNew)

	val, ok := tbl.Get(key)
	require.True(t, ok)
	require.Equal(t, float64(42), val.AsNumber())

	isNew = tbl.Set(key, NumberVal(43))
	require.False(t, isNew)

	require.True(t, tbl.Delete(key))
	_, ok = tbl.Get(key)
	require.False(t, ok)
}

func TestTable_TombstoneDoesNotBreakProbing(t *testing.T) {
	tbl := NewTable()
	a := internedString("a")
	b := internedString("b")
	tbl.Set(a, NumberVal(1))
	tbl.Set(b, NumberVal(2))

	tbl.Delete(a)

	val, ok := tbl.Get(b)
	require.True(t, ok)
	require.Equal(t, float64(2), val.AsNumber())
}

func TestTable_GrowsPastLoadFactor(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 100; i++ {
		tbl.Set(internedString(string(rune('a'+i%26))+string(rune(i))), NumberVal(float64(i)))
	}
	require.Equal(t, 100, tbl.count)
}

func TestTable_FindString(t *testing.T) {
	tbl := NewTable()
	key := internedString("hello")
	tbl.Set(key, NilVal())

	found := tbl.FindString("hello", fnvHash("hello"))
	require.Same(t, key, found)

	require.Nil(t, tbl.FindString("nope", fnvHash("nope")))
}

func TestTable_AddAll(t *testing.T) {
	from := NewTable()
	to := NewTable()
	key := internedString("x")
	from.Set(key, NumberVal(1))

	from.AddAll(to)

	val, ok := to.Get(key)
	require.True(t, ok)
	require.Equal(t, float64(1), val.AsNumber())
}

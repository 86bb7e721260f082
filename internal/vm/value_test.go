package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_IsFalsey(t *testing.T) {
	require.True(t, NilVal().IsFalsey())
	require.True(t, BoolVal(false).IsFalsey())
	require.False(t, BoolVal(true).IsFalsey())
	require.False(t, NumberVal(0).IsFalsey())
	require.False(t, NumberVal(0).IsFalsey())
}

func TestValue_Equals_Scalars(t *testing.T) {
	require.True(t, NilVal().Equals(NilVal()))
	require.True(t, BoolVal(true).Equals(BoolVal(true)))
	require.False(t, BoolVal(true).Equals(BoolVal(false)))
	require.True(t, NumberVal(1).Equals(NumberVal(1)))
	require.False(t, NumberVal(1).Equals(NumberVal(2)))
	require.False(t, NumberVal(1).Equals(BoolVal(true)))
}

func TestValue_Equals_NaN(t *testing.T) {
	nan := NumberVal(nanValue())
	require.False(t, nan.Equals(nan))
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestValue_Equals_InternedStringsByIdentity(t *testing.T) {
	a := &ObjString{Chars: "hi", Hash: fnvHash("hi")}
	b := &ObjString{Chars: "hi", Hash: fnvHash("hi")}

	require.False(t, ObjVal(a).Equals(ObjVal(b)), "distinct *ObjString with equal content must not compare equal without interning")
	require.True(t, ObjVal(a).Equals(ObjVal(a)))
}

func TestPrint_Scalars(t *testing.T) {
	require.Equal(t, "nil", Print(NilVal()))
	require.Equal(t, "true", Print(BoolVal(true)))
	require.Equal(t, "false", Print(BoolVal(false)))
	require.Equal(t, "3.14", Print(NumberVal(3.14)))
	require.Equal(t, "1", Print(NumberVal(1)))
}

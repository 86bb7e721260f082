package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGC_NewGC_DefaultsWhenZero(t *testing.T) {
	gc := NewGC(nil, 0, 0)
	require.Equal(t, int64(defaultNextGC), gc.nextGC)
	require.Equal(t, defaultGrowthFactor, gc.growthFactor)
}

func TestGC_NewGC_HonorsTuning(t *testing.T) {
	gc := NewGC(nil, 4096, 3.0)
	require.Equal(t, int64(4096), gc.nextGC)
	require.Equal(t, int64(4096), gc.floor)
	require.Equal(t, 3.0, gc.growthFactor)
}

func TestGC_CollectSweepsUnreachableStrings(t *testing.T) {
	machine := NewVM(nil)

	// Intern a string, then let it become unreachable (nothing on the
	// stack/globals references it) and confirm a collection sweeps it from
	// the intern table.
	machine.internString("transient")
	_, found := machine.strings.Get(&ObjString{Chars: "transient", Hash: fnvHash("transient")})
	require.False(t, found, "Table.Get compares pointer identity, not content")
	require.NotNil(t, machine.strings.FindString("transient", fnvHash("transient")))

	machine.gc.Collect(machine)

	require.Nil(t, machine.strings.FindString("transient", fnvHash("transient")),
		"an interned string with no remaining roots must be swept")
}

func TestGC_CollectKeepsReachableGlobal(t *testing.T) {
	machine := NewVM(nil)
	name := machine.internString("kept")
	machine.globals.Set(name, NumberVal(1))

	machine.gc.Collect(machine)

	require.NotNil(t, machine.strings.FindString("kept", fnvHash("kept")))
	v, ok := machine.globals.Get(name)
	require.True(t, ok)
	require.Equal(t, float64(1), v.AsNumber())
}

func TestGC_StressModeCollectsOnEveryAllocation(t *testing.T) {
	flags := &DebugFlags{StressGC: true}
	machine := NewVM(flags)

	result := machine.Interpret(`
var s = "a" + "b" + "c";
print s;
`)
	require.Equal(t, InterpretOK, result)
}

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, source string) *ObjFunction {
	t.Helper()
	machine := NewVM(nil)
	fn, ok := Compile(source, machine)
	require.True(t, ok, "expected %q to compile", source)
	return fn
}

func TestCompile_EmitsConstantForNumberLiteral(t *testing.T) {
	fn := compileOK(t, `print 42;`)
	require.Contains(t, fn.Chunk.Constants, NumberVal(42))
}

func TestCompile_TernaryNeverEmitsOpConditional(t *testing.T) {
	fn := compileOK(t, `print true ? 1 : 2;`)
	for _, b := range fn.Chunk.Code {
		require.NotEqual(t, byte(OP_CONDITIONAL), b, "ternary must compile via jumps, never OP_CONDITIONAL")
	}
}

func TestCompile_CompoundComparisonOpcodes(t *testing.T) {
	// != compiles to OP_EQUAL + OP_NOT; >= to OP_LESS + OP_NOT; <= to
	// OP_GREATER + OP_NOT (clox's compound-opcode strategy).
	fn := compileOK(t, `print 1 != 2;`)
	require.Contains(t, fn.Chunk.Code, byte(OP_EQUAL))
	require.Contains(t, fn.Chunk.Code, byte(OP_NOT))

	fn = compileOK(t, `print 1 >= 2;`)
	require.Contains(t, fn.Chunk.Code, byte(OP_LESS))

	fn = compileOK(t, `print 1 <= 2;`)
	require.Contains(t, fn.Chunk.Code, byte(OP_GREATER))
}

func TestCompile_ErrorOnTooManyLocals(t *testing.T) {
	src := "{\n"
	for i := 0; i < 257; i++ {
		src += "var a" + itoa(i) + " = 0;\n"
	}
	src += "}\n"

	machine := NewVM(nil)
	_, ok := Compile(src, machine)
	require.False(t, ok, "257 locals in one scope must fail to compile")
}

func TestCompile_ErrorOnReturnOutsideFunction(t *testing.T) {
	machine := NewVM(nil)
	_, ok := Compile(`return 1;`, machine)
	require.False(t, ok)
}

func TestCompile_ErrorOnContinueOutsideLoop(t *testing.T) {
	machine := NewVM(nil)
	_, ok := Compile(`continue;`, machine)
	require.False(t, ok)
}

func TestCompile_ErrorOnThisOutsideClass(t *testing.T) {
	machine := NewVM(nil)
	_, ok := Compile(`print this;`, machine)
	require.False(t, ok)
}

func TestCompile_ErrorOnTooManyParameters(t *testing.T) {
	src := "fun f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "a" + itoa(i)
	}
	src += ") {}\n"

	machine := NewVM(nil)
	_, ok := Compile(src, machine)
	require.False(t, ok, "256 parameters must fail to compile")
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

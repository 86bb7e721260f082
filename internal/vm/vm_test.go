package vm

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runAndCapture interprets source on a fresh VM, returning everything
// written via OP_PRINT.
func runAndCapture(t *testing.T, source string) (string, InterpretResult) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	machine := NewVM(nil)
	machine.Out = w

	result := machine.Interpret(source)
	w.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return sb.String(), result
}

func TestInterpret_ArithmeticAndPrint(t *testing.T) {
	out, result := runAndCapture(t, `print 1 + 2 * 3;`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "7\n", out)
}

func TestInterpret_StringConcatenation(t *testing.T) {
	out, result := runAndCapture(t, `print "foo" + "bar";`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "foobar\n", out)
}

func TestInterpret_GlobalAndLocalVariables(t *testing.T) {
	out, result := runAndCapture(t, `
var x = 10;
{
	var x = 20;
	print x;
}
print x;
`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "20\n10\n", out)
}

func TestInterpret_Closures(t *testing.T) {
	out, result := runAndCapture(t, `
fun makeCounter() {
	var i = 0;
	fun count() {
		i = i + 1;
		print i;
	}
	return count;
}
var counter = makeCounter();
counter();
counter();
`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "1\n2\n", out)
}

func TestInterpret_ClassesAndInheritance(t *testing.T) {
	out, result := runAndCapture(t, `
class Animal {
	init(name) {
		this.name = name;
	}
	speak() {
		print this.name + " makes a sound.";
	}
}
class Dog < Animal {
	init(name) {
		super.init(name);
	}
	speak() {
		super.speak();
		print this.name + " barks.";
	}
}
var d = Dog("Rex");
d.speak();
`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "Rex makes a sound.\nRex barks.\n", out)
}

func TestInterpret_ForLoopAndContinue(t *testing.T) {
	out, result := runAndCapture(t, `
for (var i = 0; i < 5; i = i + 1) {
	if (i == 2) continue;
	print i;
}
`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "0\n1\n3\n4\n", out)
}

func TestInterpret_SwitchStatement(t *testing.T) {
	out, result := runAndCapture(t, `
var x = 2;
switch (x) {
	case 1: print "one";
	case 2: print "two";
	default: print "other";
}
`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "two\n", out)
}

func TestInterpret_TernaryConditional(t *testing.T) {
	out, result := runAndCapture(t, `print 1 < 2 ? "yes" : "no";`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "yes\n", out)
}

func TestInterpret_CompileError(t *testing.T) {
	_, result := runAndCapture(t, `var = ;`)
	require.Equal(t, InterpretCompileError, result)
}

func TestInterpret_RuntimeError_UndefinedVariable(t *testing.T) {
	_, result := runAndCapture(t, `print undefinedThing;`)
	require.Equal(t, InterpretRuntimeError, result)
}

func TestInterpret_RuntimeError_CallNonCallable(t *testing.T) {
	_, result := runAndCapture(t, `var x = 1; x();`)
	require.Equal(t, InterpretRuntimeError, result)
}

func TestInterpret_ModulusTruncatedTowardZero(t *testing.T) {
	out, result := runAndCapture(t, `print -7 % 2;`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "-1\n", out)
}

func TestInterpret_FrameOverflow(t *testing.T) {
	_, result := runAndCapture(t, `
fun recurse() {
	return recurse();
}
recurse();
`)
	require.Equal(t, InterpretRuntimeError, result)
}

package vm

import (
	"fmt"
	"strings"
)

// traceLine prints the operand stack and the next instruction, the way
// DEBUG_TRACE_EXECUTION does in clox. Gated behind vm.Flags.TraceExecution;
// never called on the hot path otherwise.
func (vm *VM) traceLine() {
	var sb strings.Builder
	sb.WriteString("          ")
	for i := 0; i < vm.sp; i++ {
		fmt.Fprintf(&sb, "[ %s ]", Print(vm.stack[i]))
	}
	fmt.Println(sb.String())

	frame := vm.currentFrame()
	var out strings.Builder
	disassembleInstruction(&out, frame.closure.Function.Chunk, frame.ip)
	fmt.Print(out.String())
}

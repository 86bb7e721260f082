package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of chunk's bytecode, the way
// DEBUG_PRINT_CODE dumps a freshly compiled function. It is a pure debug
// collaborator: the VM never consults it to execute anything.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if offset > 0 && chunk.LineAt(offset) == chunk.LineAt(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", chunk.LineAt(offset))
	}

	op := Opcode(chunk.Code[offset])
	switch op {
	case OP_CONSTANT:
		return constantInstruction(sb, chunk, offset, false)
	case OP_CONSTANT_LONG:
		return constantInstruction(sb, chunk, offset, true)
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE, OP_CALL:
		return byteInstruction(sb, op, chunk, offset)
	case OP_GET_GLOBAL, OP_DEFINE_GLOBAL, OP_SET_GLOBAL,
		OP_GET_PROPERTY, OP_SET_PROPERTY, OP_GET_SUPER, OP_CLASS, OP_METHOD:
		return constantInstruction(sb, chunk, offset, false)
	case OP_INVOKE, OP_SUPER_INVOKE:
		return invokeInstruction(sb, op, chunk, offset)
	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstruction(sb, op, 1, chunk, offset)
	case OP_LOOP:
		return jumpInstruction(sb, op, -1, chunk, offset)
	case OP_CLOSURE:
		return closureInstruction(sb, chunk, offset)
	default:
		return simpleInstruction(sb, op, offset)
	}
}

func simpleInstruction(sb *strings.Builder, op Opcode, offset int) int {
	fmt.Fprintf(sb, "%s\n", op)
	return offset + 1
}

func byteInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(sb, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(sb *strings.Builder, op Opcode, sign int, chunk *Chunk, offset int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(sb, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func constantInstruction(sb *strings.Builder, chunk *Chunk, offset int, long bool) int {
	var idx, width int
	if long {
		idx = int(chunk.Code[offset+1]) | int(chunk.Code[offset+2])<<8 | int(chunk.Code[offset+3])<<16
		width = 4
	} else {
		idx = int(chunk.Code[offset+1])
		width = 2
	}
	op := Opcode(chunk.Code[offset])
	fmt.Fprintf(sb, "%-16s %4d '%s'\n", op, idx, Print(chunk.Constants[idx]))
	return offset + width
}

func invokeInstruction(sb *strings.Builder, op Opcode, chunk *Chunk, offset int) int {
	constant := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(sb, "%-16s (%d args) %4d '%s'\n", op, argCount, constant, Print(chunk.Constants[constant]))
	return offset + 3
}

func closureInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	offset++
	constant := chunk.Code[offset]
	offset++
	fmt.Fprintf(sb, "%-16s %4d '%s'\n", OP_CLOSURE, constant, Print(chunk.Constants[constant]))

	fn := chunk.Constants[constant].Obj.(*ObjFunction)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(sb, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}

// Package vm implements the bytecode chunk format, compiler, virtual
// machine and garbage collector for Ember.
package vm

// Opcode identifies a single VM instruction.
type Opcode byte

const (
	OP_CONSTANT      Opcode = iota // u8 idx
	OP_CONSTANT_LONG               // u24 idx, little-endian
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_DUP

	OP_GET_LOCAL  // u8 slot
	OP_SET_LOCAL  // u8 slot
	OP_GET_GLOBAL // u8 name_idx
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_GET_UPVALUE // u8 slot
	OP_SET_UPVALUE
	OP_GET_PROPERTY // u8 name_idx
	OP_SET_PROPERTY
	OP_GET_SUPER // u8 name_idx

	OP_EQUAL
	OP_GREATER
	OP_LESS

	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_MODULUS

	OP_NOT
	OP_NEGATE

	OP_PRINT

	OP_JUMP          // u16 offset, big-endian
	OP_JUMP_IF_FALSE // u16 offset, big-endian
	OP_LOOP          // u16 offset, big-endian

	OP_CALL   // u8 argc
	OP_INVOKE // u8 name_idx, u8 argc
	OP_SUPER_INVOKE

	OP_CLOSURE // u8 fn_idx, then N*(u8 is_local, u8 index)
	OP_CLOSE_UPVALUE
	OP_RETURN

	OP_CLASS // u8 name_idx
	OP_INHERIT
	OP_METHOD // u8 name_idx

	OP_CONDITIONAL
)

var opcodeNames = map[Opcode]string{
	OP_CONSTANT:      "OP_CONSTANT",
	OP_CONSTANT_LONG: "OP_CONSTANT_LONG",
	OP_NIL:           "OP_NIL",
	OP_TRUE:          "OP_TRUE",
	OP_FALSE:         "OP_FALSE",
	OP_POP:           "OP_POP",
	OP_DUP:           "OP_DUP",

	OP_GET_LOCAL:      "OP_GET_LOCAL",
	OP_SET_LOCAL:      "OP_SET_LOCAL",
	OP_GET_GLOBAL:     "OP_GET_GLOBAL",
	OP_DEFINE_GLOBAL:  "OP_DEFINE_GLOBAL",
	OP_SET_GLOBAL:     "OP_SET_GLOBAL",
	OP_GET_UPVALUE:    "OP_GET_UPVALUE",
	OP_SET_UPVALUE:    "OP_SET_UPVALUE",
	OP_GET_PROPERTY:   "OP_GET_PROPERTY",
	OP_SET_PROPERTY:   "OP_SET_PROPERTY",
	OP_GET_SUPER:      "OP_GET_SUPER",

	OP_EQUAL:   "OP_EQUAL",
	OP_GREATER: "OP_GREATER",
	OP_LESS:    "OP_LESS",

	OP_ADD:      "OP_ADD",
	OP_SUBTRACT: "OP_SUBTRACT",
	OP_MULTIPLY: "OP_MULTIPLY",
	OP_DIVIDE:   "OP_DIVIDE",
	OP_MODULUS:  "OP_MODULUS",

	OP_NOT:    "OP_NOT",
	OP_NEGATE: "OP_NEGATE",

	OP_PRINT: "OP_PRINT",

	OP_JUMP:          "OP_JUMP",
	OP_JUMP_IF_FALSE: "OP_JUMP_IF_FALSE",
	OP_LOOP:          "OP_LOOP",

	OP_CALL:         "OP_CALL",
	OP_INVOKE:       "OP_INVOKE",
	OP_SUPER_INVOKE: "OP_SUPER_INVOKE",

	OP_CLOSURE:       "OP_CLOSURE",
	OP_CLOSE_UPVALUE: "OP_CLOSE_UPVALUE",
	OP_RETURN:        "OP_RETURN",

	OP_CLASS:   "OP_CLASS",
	OP_INHERIT: "OP_INHERIT",
	OP_METHOD:  "OP_METHOD",

	OP_CONDITIONAL: "OP_CONDITIONAL",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "OP_UNKNOWN"
}

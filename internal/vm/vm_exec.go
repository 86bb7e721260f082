package vm

import "fmt"

func (vm *VM) currentFrame() *CallFrame {
	return &vm.frames[vm.frameCount-1]
}

func (f *CallFrame) readByte(vm *VM) byte {
	b := f.closure.Function.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (f *CallFrame) readShort(vm *VM) uint16 {
	hi := f.closure.Function.Chunk.Code[f.ip]
	lo := f.closure.Function.Chunk.Code[f.ip+1]
	f.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (f *CallFrame) readConstantIndex(vm *VM, long bool) int {
	if !long {
		return int(f.readByte(vm))
	}
	b0 := int(f.readByte(vm))
	b1 := int(f.readByte(vm))
	b2 := int(f.readByte(vm))
	return b0 | b1<<8 | b2<<16
}

func (f *CallFrame) readConstant(vm *VM, long bool) Value {
	return f.closure.Function.Chunk.Constants[f.readConstantIndex(vm, long)]
}

func (f *CallFrame) readString(vm *VM) *ObjString {
	idx := f.readByte(vm)
	return f.closure.Function.Chunk.Constants[idx].Obj.(*ObjString)
}

// run is the fetch-decode-execute loop: it reads one opcode byte from the
// current frame and dispatches on it until OP_RETURN unwinds the last
// frame, or an opcode handler returns a runtime error.
func (vm *VM) run() error {
	for {
		if vm.Flags.TraceExecution {
			vm.traceLine()
		}

		frame := vm.currentFrame()
		op := Opcode(frame.readByte(vm))

		switch op {
		case OP_CONSTANT:
			vm.push(frame.readConstant(vm, false))
		case OP_CONSTANT_LONG:
			vm.push(frame.readConstant(vm, true))
		case OP_NIL:
			vm.push(NilVal())
		case OP_TRUE:
			vm.push(BoolVal(true))
		case OP_FALSE:
			vm.push(BoolVal(false))
		case OP_POP:
			vm.pop()
		case OP_DUP:
			vm.push(vm.peek(0))

		case OP_GET_LOCAL:
			slot := int(frame.readByte(vm))
			vm.push(vm.stack[frame.base+slot])
		case OP_SET_LOCAL:
			slot := int(frame.readByte(vm))
			vm.stack[frame.base+slot] = vm.peek(0)

		case OP_GET_GLOBAL:
			name := frame.readString(vm)
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case OP_DEFINE_GLOBAL:
			name := frame.readString(vm)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case OP_SET_GLOBAL:
			name := frame.readString(vm)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OP_GET_UPVALUE:
			slot := int(frame.readByte(vm))
			uv := frame.closure.Upvalues[slot]
			if uv.isClosed {
				vm.push(uv.Closed)
			} else {
				vm.push(vm.stack[uv.Location])
			}
		case OP_SET_UPVALUE:
			slot := int(frame.readByte(vm))
			uv := frame.closure.Upvalues[slot]
			if uv.isClosed {
				uv.Closed = vm.peek(0)
			} else {
				vm.stack[uv.Location] = vm.peek(0)
			}

		case OP_GET_PROPERTY:
			name := frame.readString(vm)
			instance, ok := vm.peek(0).Obj.(*ObjInstance)
			if !vm.peek(0).IsObj() || !ok {
				return vm.runtimeError("Only instances have properties.")
			}
			if field, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(field)
				break
			}
			if err := vm.bindMethod(instance.Class, name, vm.peek(0)); err != nil {
				return err
			}
		case OP_SET_PROPERTY:
			name := frame.readString(vm)
			instance, ok := vm.peek(1).Obj.(*ObjInstance)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError("Only instances have fields.")
			}
			instance.Fields.Set(name, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case OP_GET_SUPER:
			name := frame.readString(vm)
			superclass := vm.pop().Obj.(*ObjClass)
			if err := vm.bindMethod(superclass, name, vm.peek(0)); err != nil {
				return err
			}

		case OP_EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(a.Equals(b)))
		case OP_GREATER, OP_LESS:
			if err := vm.numericBinary(op); err != nil {
				return err
			}

		case OP_ADD:
			if err := vm.add(); err != nil {
				return err
			}
		case OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE, OP_MODULUS:
			if err := vm.numericBinary(op); err != nil {
				return err
			}

		case OP_NOT:
			vm.push(BoolVal(vm.pop().IsFalsey()))
		case OP_NEGATE:
			if err := vm.negate(); err != nil {
				return err
			}

		case OP_PRINT:
			fmt.Fprintln(vm.Out, Print(vm.pop()))

		case OP_JUMP:
			offset := frame.readShort(vm)
			frame.ip += int(offset)
		case OP_JUMP_IF_FALSE:
			offset := frame.readShort(vm)
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case OP_LOOP:
			offset := frame.readShort(vm)
			frame.ip -= int(offset)

		case OP_CALL:
			argCount := int(frame.readByte(vm))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
		case OP_INVOKE:
			name := frame.readString(vm)
			argCount := int(frame.readByte(vm))
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
		case OP_SUPER_INVOKE:
			name := frame.readString(vm)
			argCount := int(frame.readByte(vm))
			superclass := vm.pop().Obj.(*ObjClass)
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}

		case OP_CLOSURE:
			fn := frame.readConstant(vm, false).Obj.(*ObjFunction)
			closure := vm.newClosure(fn)
			vm.push(ObjVal(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte(vm)
				index := frame.readByte(vm)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case OP_CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case OP_RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.sp = frame.base
			vm.push(result)

		case OP_CLASS:
			name := frame.readString(vm)
			vm.push(ObjVal(vm.newClass(name)))
		case OP_INHERIT:
			superVal := vm.peek(1)
			superclass, ok := superVal.Obj.(*ObjClass)
			if !superVal.IsObj() || !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := vm.peek(0).Obj.(*ObjClass)
			superclass.Methods.AddAll(subclass.Methods)
			vm.pop() // subclass only; superclass value stays for further use
		case OP_METHOD:
			name := frame.readString(vm)
			vm.defineMethod(name)

		case OP_CONDITIONAL:
			// Operands are precomputed by the compiler as two jump targets;
			// OP_CONDITIONAL itself never appears in emitted bytecode (see
			// compiler_expressions.go conditional()) and exists only to round out the
			// opcode table per §6.
			return vm.runtimeError("OP_CONDITIONAL is not directly executable.")

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}

		vm.collectIfNeeded()
	}
}

// defineMethod pops a just-compiled closure off the stack and binds it into
// the class beneath it on the stack; if the method's name is `init`, it
// also becomes the class's cached initializer (§4.6).
func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0)
	class := vm.peek(1).Obj.(*ObjClass)
	class.Methods.Set(name, method)
	if name == vm.initString {
		class.Initializer = method
	}
	vm.pop()
}

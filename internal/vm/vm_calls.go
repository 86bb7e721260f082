package vm

// call pushes a new CallFrame for closure, reusing the argCount values
// already on the stack (plus slot 0, the callee/receiver) as its locals.
func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == vm.maxFrames {
		return vm.runtimeError("%s", errStackOverflow.Error())
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.sp - argCount - 1
	return nil
}

// callValue implements the polymorphic CALL/INVOKE calling convention of
// §4.5: bound methods rebind `this` into slot 0, classes construct an
// Instance and dispatch to their cached initializer, closures get an
// ordinary call frame, and natives are invoked directly.
func (vm *VM) callValue(callee Value, argCount int) error {
	if callee.Kind == ValObj {
		switch c := callee.Obj.(type) {
		case *ObjBoundMethod:
			vm.stack[vm.sp-argCount-1] = c.Receiver
			return vm.call(c.Method, argCount)
		case *ObjClass:
			instance := vm.newInstance(c)
			vm.stack[vm.sp-argCount-1] = ObjVal(instance)
			if !c.Initializer.IsNil() {
				init := c.Initializer.Obj.(*ObjClosure)
				return vm.call(init, argCount)
			}
			if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case *ObjClosure:
			return vm.call(c, argCount)
		case *ObjNative:
			args := vm.stack[vm.sp-argCount : vm.sp]
			result, err := c.Fn(vm, args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.sp -= argCount + 1
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

// bindMethod looks up name on class, binds it to receiver, and pushes the
// resulting BoundMethod. Returns an error if the method is not found.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString, receiver Value) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.newBoundMethod(receiver, method.Obj.(*ObjClosure))
	vm.pop()
	vm.push(ObjVal(bound))
	return nil
}

// invoke fuses property access and call: OP_INVOKE first checks for a field
// shadowing the method name (a stored closure value), else dispatches the
// class method directly without allocating an intermediate BoundMethod.
func (vm *VM) invoke(name *ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	instance, ok := receiver.Obj.(*ObjInstance)
	if !receiver.IsObj() || !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.sp-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.Obj.(*ObjClosure), argCount)
}

// captureUpvalue finds or creates the Upvalue for stack slot `location`,
// keeping the VM's open-upvalue list sorted by descending stack address so
// at most one open Upvalue ever references a given slot.
func (vm *VM) captureUpvalue(location int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && uv.Location > location {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == location {
		return uv
	}

	created := vm.newUpvalue(location)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose slot is >= last, copying the
// stack value into the upvalue itself and detaching it from the stack.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= last {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.Location]
		uv.isClosed = true
		vm.openUpvalues = uv.Next
	}
}

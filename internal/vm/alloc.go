package vm

// This file collects the constructors for every heap Object variant. All of
// them route through vm.allocate so every new object is immediately linked
// into the GC's allocation list and charged against the allocation budget,
// per §4.2's allocator contract.

func (vm *VM) newFunction() *ObjFunction {
	fn := &ObjFunction{Chunk: NewChunk()}
	vm.allocate(fn)
	return fn
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
	vm.allocate(c)
	return c
}

func (vm *VM) newUpvalue(location int) *ObjUpvalue {
	uv := &ObjUpvalue{Location: location, Closed: NilVal()}
	vm.allocate(uv)
	return uv
}

func (vm *VM) newNativeObj(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	vm.allocate(n)
	return n
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable(), Initializer: NilVal()}
	vm.allocate(c)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	vm.allocate(i)
	return i
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	vm.allocate(b)
	return b
}

// concatenatedString interns str as a newly built string (used by the '+'
// concatenation path). It pushes nothing itself: the caller pushes the
// result onto the stack before the VM's next collection point.
func (vm *VM) concatenatedString(str string) *ObjString {
	return vm.internString(str)
}

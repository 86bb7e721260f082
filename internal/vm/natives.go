package vm

import "time"

// registerNatives installs the two built-ins spec.md allows beyond the
// language core: clock() and deleteField(instance, name).
func registerNatives(vm *VM) {
	define := func(name string, fn NativeFn) {
		n := vm.newNativeObj(name, fn)
		vm.globals.Set(vm.internString(name), ObjVal(n))
	}

	define("clock", nativeClock)
	define("deleteField", nativeDeleteField)
}

func nativeClock(vm *VM, args []Value) (Value, error) {
	return NumberVal(time.Since(clockStart).Seconds()), nil
}

// nativeDeleteField removes a field from an instance. Misuse (wrong arity,
// wrong types, missing field) is defined to silently return Nil rather than
// error — see spec.md's Open Questions.
func nativeDeleteField(vm *VM, args []Value) (Value, error) {
	if len(args) != 2 {
		return NilVal(), nil
	}
	instance, ok := args[0].Obj.(*ObjInstance)
	if !args[0].IsObj() || !ok {
		return NilVal(), nil
	}
	name, ok := args[1].Obj.(*ObjString)
	if !args[1].IsObj() || !ok {
		return NilVal(), nil
	}
	instance.Fields.Delete(name)
	return NilVal(), nil
}

package vm

import "math"

// add implements '+': polymorphic over two numbers (numeric add) or two
// strings (concatenation, producing a new interned string). Anything else
// is a runtime error.
func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)

	if a.IsNumber() && b.IsNumber() {
		vm.pop()
		vm.pop()
		vm.push(NumberVal(a.AsNumber() + b.AsNumber()))
		return nil
	}
	as, aOK := a.Obj.(*ObjString)
	bs, bOK := b.Obj.(*ObjString)
	if a.IsObj() && b.IsObj() && aOK && bOK {
		// Concatenate first, pop after: keeps the operands reachable as GC
		// roots for the duration of the allocation, per §4.8.6.
		result := vm.concatenatedString(as.Chars + bs.Chars)
		vm.pop()
		vm.pop()
		vm.push(ObjVal(result))
		return nil
	}
	return vm.runtimeError("Operands must be two numbers or two strings.")
}

func (vm *VM) numericBinary(op Opcode) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	x, y := a.AsNumber(), b.AsNumber()

	switch op {
	case OP_SUBTRACT:
		vm.push(NumberVal(x - y))
	case OP_MULTIPLY:
		vm.push(NumberVal(x * y))
	case OP_DIVIDE:
		if y == 0 {
			return vm.runtimeError("Division by zero.")
		}
		vm.push(NumberVal(x / y))
	case OP_MODULUS:
		if x != math.Trunc(x) || y != math.Trunc(y) {
			return vm.runtimeError("Modulo requires integer operands.")
		}
		if y == 0 {
			return vm.runtimeError("Modulo by zero.")
		}
		// Truncated-toward-zero semantics, matching Go's integer %.
		vm.push(NumberVal(float64(int64(x) % int64(y))))
	case OP_GREATER:
		vm.push(BoolVal(x > y))
	case OP_LESS:
		vm.push(BoolVal(x < y))
	}
	return nil
}

func (vm *VM) negate() error {
	v := vm.peek(0)
	if !v.IsNumber() {
		return vm.runtimeError("Operand must be a number.")
	}
	vm.pop()
	vm.push(NumberVal(-v.AsNumber()))
	return nil
}

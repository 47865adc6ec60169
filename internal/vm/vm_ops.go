package vm

import "errors"

// errReturn ends the dispatch loop normally.
var errReturn = errors.New("return")

// add handles both numeric addition and string concatenation. The
// operands stay on the stack until the result exists, so a collection
// triggered by the concatenation cannot free them.
func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsObjType(OBJ_STRING) && b.IsObjType(OBJ_STRING):
		result := vm.heap.Concat(Narrow[*ObjString](a.Obj), Narrow[*ObjString](b.Obj))
		vm.pop()
		vm.pop()
		vm.push(ObjVal(result))
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(NumberVal(a.AsNumber() + b.AsNumber()))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) binaryNumeric(op Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()

	switch op {
	case OP_SUB:
		vm.push(NumberVal(a - b))
	case OP_MUL:
		vm.push(NumberVal(a * b))
	case OP_DIV:
		vm.push(NumberVal(a / b))
	case OP_GT:
		vm.push(BoolVal(a > b))
	case OP_LT:
		vm.push(BoolVal(a < b))
	}
	return nil
}

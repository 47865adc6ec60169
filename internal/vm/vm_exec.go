package vm

import "fmt"

func (vm *VM) run() error {
	for {
		if vm.ip >= len(vm.chunk.Code) {
			return vm.runtimeError("%s.", capitalize(errTruncatedBytecode.Error()))
		}
		if vm.trace {
			vm.traceExecution()
		}

		op := Opcode(vm.readByte())
		if err := vm.executeOneOp(op); err != nil {
			if err == errReturn {
				return nil
			}
			return err
		}
	}
}

// executeOneOp executes a single opcode
func (vm *VM) executeOneOp(op Opcode) error {
	switch op {
	case OP_CONST:
		v, err := vm.readConstant()
		if err != nil {
			return err
		}
		vm.push(v)

	case OP_POP:
		vm.pop()

	case OP_ADD:
		return vm.add()

	case OP_SUB, OP_MUL, OP_DIV, OP_GT, OP_LT:
		return vm.binaryNumeric(op)

	case OP_NEGATE:
		if !vm.peek(0).IsNumber() {
			return vm.runtimeError("Operand must be a number.")
		}
		vm.push(NumberVal(-vm.pop().AsNumber()))

	case OP_NOT:
		vm.push(BoolVal(vm.pop().IsFalsey()))

	case OP_EQ:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.Equals(b)))

	case OP_DEFINE_GLOBAL:
		name, err := vm.readString()
		if err != nil {
			return err
		}
		vm.globals[name] = vm.peek(0)
		vm.pop()

	case OP_GET_GLOBAL:
		name, err := vm.readString()
		if err != nil {
			return err
		}
		value, ok := vm.globals[name]
		if !ok {
			return vm.runtimeError("Undefined variable '%s'.", name.Chars)
		}
		vm.push(value)

	case OP_SET_GLOBAL:
		name, err := vm.readString()
		if err != nil {
			return err
		}
		if _, ok := vm.globals[name]; !ok {
			return vm.runtimeError("Undefined variable '%s'.", name.Chars)
		}
		// Assignment is an expression: the value stays on the stack.
		vm.globals[name] = vm.peek(0)

	case OP_PRINT:
		PrintValue(vm.out, vm.pop())
		fmt.Fprintln(vm.out)

	case OP_RETURN:
		return errReturn

	default:
		return vm.runtimeError("Unknown opcode %d.", byte(op))
	}
	return nil
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readConstant() (Value, error) {
	if vm.ip >= len(vm.chunk.Code) {
		return NilVal(), vm.runtimeError("%s.", capitalize(errTruncatedBytecode.Error()))
	}
	idx := int(vm.readByte())
	if idx >= len(vm.chunk.Constants) {
		return NilVal(), vm.runtimeError("%s %d.", capitalize(errInvalidConstantIndex.Error()), idx)
	}
	return vm.chunk.Constants[idx], nil
}

func (vm *VM) readString() (*ObjString, error) {
	v, err := vm.readConstant()
	if err != nil {
		return nil, err
	}
	name, ok := SafeNarrow[*ObjString](v.Obj)
	if !v.IsObj() || !ok {
		return nil, vm.runtimeError("Global name must be a string, got %s.", v.typeName())
	}
	return name, nil
}

package vm

// SetGlobal binds name to value, defining it if needed.
func (vm *VM) SetGlobal(name string, value Value) {
	vm.push(value)
	key := vm.heap.CopyString(name)
	vm.globals[key] = vm.pop()
}

// Global looks up a global by name.
func (vm *VM) Global(name string) (Value, bool) {
	key, ok := vm.heap.strings[name]
	if !ok {
		return NilVal(), false
	}
	v, ok := vm.globals[key]
	return v, ok
}

// Globals returns a snapshot of every global, keyed by name.
func (vm *VM) Globals() map[string]Value {
	out := make(map[string]Value, len(vm.globals))
	for name, v := range vm.globals {
		out[name.Chars] = v
	}
	return out
}

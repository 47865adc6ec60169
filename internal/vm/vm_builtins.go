package vm

import "time"

var processStart = time.Now()

// clockNative returns the seconds elapsed since the process started.
func clockNative(argCount int, args []Value) Value {
	return NumberVal(time.Since(processStart).Seconds())
}

// Natives lists the names of every global bound to a native function.
func (vm *VM) Natives() []string {
	var names []string
	for name, v := range vm.globals {
		if v.IsObjType(OBJ_NATIVE) {
			names = append(names, name.Chars)
		}
	}
	return names
}

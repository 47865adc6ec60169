package loxide

import (
	"fmt"
	"reflect"

	"github.com/funvibe/loxide/internal/vm"
)

// Marshaller converts between Go values and Lox values. Strings are
// interned in the heap it was created for.
type Marshaller struct {
	heap *vm.Heap
}

func NewMarshaller(heap *vm.Heap) *Marshaller {
	return &Marshaller{heap: heap}
}

// ToValue converts a Go value to a Lox value. Every Go number becomes a
// Lox number.
func (m *Marshaller) ToValue(val interface{}) (vm.Value, error) {
	if val == nil {
		return vm.NilVal(), nil
	}
	if v, ok := val.(vm.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.NumberVal(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return vm.NumberVal(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return vm.NumberVal(v.Float()), nil
	case reflect.Bool:
		return vm.BoolVal(v.Bool()), nil
	case reflect.String:
		return vm.ObjVal(m.heap.CopyString(v.String())), nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return vm.NilVal(), nil
		}
		return m.ToValue(v.Elem().Interface())
	default:
		return vm.NilVal(), fmt.Errorf("cannot convert %T to a Lox value", val)
	}
}

// FromValue converts a Lox value to Go: nil, bool, float64 or string.
// Functions and other heap objects have no Go counterpart.
func (m *Marshaller) FromValue(v vm.Value) (interface{}, error) {
	switch {
	case v.IsNil():
		return nil, nil
	case v.IsBool():
		return v.AsBool(), nil
	case v.IsNumber():
		return v.AsNumber(), nil
	case v.IsObjType(vm.OBJ_STRING):
		return vm.Narrow[*vm.ObjString](v.Obj).Chars, nil
	default:
		return nil, fmt.Errorf("unsupported type for conversion: %s", v)
	}
}

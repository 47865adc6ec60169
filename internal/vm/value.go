package vm

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// ValueType identifies the type of value stored in the Value struct
type ValueType uint8

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj // Heap object (String, Function, ...)
)

// Value is a stack-allocated tagged union.
// Primitives live in Data; heap objects are referenced through Obj.
type Value struct {
	Type ValueType
	Data uint64 // Stores float64 bits or bool (0/1)
	Obj  Object
}

// Constructors

func NilVal() Value {
	return Value{Type: ValNil}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func NumberVal(v float64) Value {
	return Value{Type: ValNumber, Data: math.Float64bits(v)}
}

func ObjVal(o Object) Value {
	return Value{Type: ValObj, Obj: o}
}

// Accessors

func (v Value) AsBool() bool {
	return v.Data == 1
}

func (v Value) AsNumber() float64 {
	return math.Float64frombits(v.Data)
}

func (v Value) AsObj() Object {
	return v.Obj
}

// Type checking helpers

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

// IsObjType reports whether v holds a heap object tagged t.
func (v Value) IsObjType(t ObjType) bool {
	return v.Type == ValObj && Is(v.Obj, t)
}

// IsFalsey follows Lox truthiness: only nil and false are falsey.
func (v Value) IsFalsey() bool {
	return v.Type == ValNil || (v.Type == ValBool && !v.AsBool())
}

// Equals implements the == operator.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return v.Data == other.Data
	case ValNumber:
		// IEEE comparison: NaN is never equal to itself.
		return v.AsNumber() == other.AsNumber()
	case ValObj:
		if a, ok := SafeNarrow[*ObjString](v.Obj); ok {
			if b, ok := SafeNarrow[*ObjString](other.Obj); ok {
				return a.Equals(b)
			}
			return false
		}
		return v.Obj == other.Obj
	default:
		return false
	}
}

// String renders the value the way OP_PRINT does.
func (v Value) String() string {
	var sb strings.Builder
	PrintValue(&sb, v)
	return sb.String()
}

// PrintValue writes the printed form of v to w.
func PrintValue(w io.Writer, v Value) {
	switch v.Type {
	case ValNil:
		io.WriteString(w, "nil")
	case ValBool:
		fmt.Fprintf(w, "%t", v.AsBool())
	case ValNumber:
		fmt.Fprintf(w, "%g", v.AsNumber())
	case ValObj:
		PrintObject(w, v.Obj)
	default:
		io.WriteString(w, "<?>")
	}
}

// typeName is used in runtime error messages and logs.
func (v Value) typeName() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValObj:
		if v.Obj == nil {
			return "<nil obj>"
		}
		return v.Obj.Type().String()
	default:
		return "unknown"
	}
}

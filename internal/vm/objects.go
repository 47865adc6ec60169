package vm

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
)

// ObjType tags every heap object with its variant.
type ObjType uint8

const (
	OBJ_STRING ObjType = iota
	OBJ_FUNCTION
	OBJ_NATIVE
	OBJ_CLOSURE
	OBJ_UPVALUE
)

var objTypeNames = [...]string{
	OBJ_STRING:   "string",
	OBJ_FUNCTION: "function",
	OBJ_NATIVE:   "native",
	OBJ_CLOSURE:  "closure",
	OBJ_UPVALUE:  "upvalue",
}

func (t ObjType) String() string {
	if int(t) < len(objTypeNames) {
		return objTypeNames[t]
	}
	return fmt.Sprintf("ObjType(%d)", uint8(t))
}

// Handle is the index of an object in its heap's registry.
type Handle uint32

// ObjHeader is shared by every heap object. The mark bit and the
// allocation list live in the Heap registry, addressed by Handle.
type ObjHeader struct {
	Tag    ObjType
	Handle Handle
}

// Header widens any variant to its common header. It never allocates.
func (h *ObjHeader) Header() *ObjHeader { return h }

// Type returns the runtime tag.
func (h *ObjHeader) Type() ObjType { return h.Tag }

// Object is a heap value. The set of implementations is closed: only the
// variants in this file satisfy it.
type Object interface {
	Header() *ObjHeader
	Type() ObjType
	variantTag() ObjType
}

// Variant constrains Narrow and SafeNarrow to concrete object variants.
type Variant interface {
	Object
	*ObjString | *ObjFunction | *ObjNative | *ObjClosure | *ObjUpvalue
}

// ObjString is an immutable interned string.
type ObjString struct {
	ObjHeader
	Chars string
	Hash  uint32
}

func (*ObjString) variantTag() ObjType { return OBJ_STRING }

// Len returns the length in bytes.
func (s *ObjString) Len() int { return len(s.Chars) }

// Equals compares length and bytes.
func (s *ObjString) Equals(other *ObjString) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.Len() == other.Len() && s.Hash == other.Hash && s.Chars == other.Chars
}

func (s *ObjString) String() string { return objectString(s) }

// ObjFunction is a compiled function. It owns its chunk.
type ObjFunction struct {
	ObjHeader
	Arity        int
	UpvalueCount int
	Name         *ObjString // nil for the top-level script
	Chunk        *Chunk
}

func (*ObjFunction) variantTag() ObjType { return OBJ_FUNCTION }

// DisplayName is the name used by the disassembler and stack traces.
func (f *ObjFunction) DisplayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}

func (f *ObjFunction) String() string { return objectString(f) }

// NativeFn is the signature of host-provided builtins.
type NativeFn func(argCount int, args []Value) Value

// ObjNative wraps a Go function as a Lox value.
type ObjNative struct {
	ObjHeader
	Name string
	Fn   NativeFn
}

func (*ObjNative) variantTag() ObjType { return OBJ_NATIVE }

func (n *ObjNative) String() string { return objectString(n) }

// ObjClosure pairs a shared function with its captured upvalues.
type ObjClosure struct {
	ObjHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue // len == Function.UpvalueCount
}

func (*ObjClosure) variantTag() ObjType { return OBJ_CLOSURE }

func (c *ObjClosure) String() string { return objectString(c) }

// ObjUpvalue is a captured variable. While open it names a stack slot;
// once closed, Location is -1 and the value lives in Closed.
type ObjUpvalue struct {
	Location int
	Closed   Value

	// Next links the VM's open upvalues, sorted by Location.
	Next *ObjUpvalue

	ObjHeader
}

func (*ObjUpvalue) variantTag() ObjType { return OBJ_UPVALUE }

// IsOpen reports whether the upvalue still refers to a stack slot.
func (u *ObjUpvalue) IsOpen() bool { return u.Location >= 0 }

func (u *ObjUpvalue) String() string { return objectString(u) }

// Is reports whether o is tagged t.
func Is(o Object, t ObjType) bool {
	return o != nil && o.Type() == t
}

// Narrow reinterprets o as variant T. With the default build a tag
// mismatch is a programming error and panics; building with the
// "unchecked" tag skips the tag comparison and yields nil on mismatch.
func Narrow[T Variant](o Object) T {
	if checkedNarrow {
		var zero T
		if o == nil || o.Type() != zero.variantTag() {
			panic(fmt.Sprintf("vm: narrowing %s to %s", describeObject(o), zero.variantTag()))
		}
	}
	t, _ := o.(T)
	return t
}

// SafeNarrow is the non-panicking counterpart of Narrow.
func SafeNarrow[T Variant](o Object) (T, bool) {
	var zero T
	if o == nil || o.Type() != zero.variantTag() {
		return zero, false
	}
	t, ok := o.(T)
	return t, ok
}

func describeObject(o Object) string {
	if o == nil {
		return "<nil>"
	}
	return o.Type().String()
}

// PrintObject writes the printed form of o. It is the only place that
// dispatches on the variant set; adding a variant means extending ObjType,
// Variant and this switch.
func PrintObject(w io.Writer, o Object) {
	switch obj := o.(type) {
	case nil:
		io.WriteString(w, "<nil obj>")
	case *ObjString:
		fmt.Fprintf(w, "\"%s\"", obj.Chars)
	case *ObjFunction:
		printFunction(w, obj)
	case *ObjNative:
		io.WriteString(w, "<native fn>")
	case *ObjClosure:
		printFunction(w, obj.Function)
	case *ObjUpvalue:
		io.WriteString(w, "upvalue")
	default:
		panic(fmt.Sprintf("vm: unhandled object variant %T", o))
	}
}

func printFunction(w io.Writer, f *ObjFunction) {
	if f == nil || f.Name == nil {
		io.WriteString(w, "<script>")
		return
	}
	fmt.Fprintf(w, "<fn %s>", f.Name.Chars)
}

func objectString(o Object) string {
	var sb strings.Builder
	PrintObject(&sb, o)
	return sb.String()
}

// hashString is 32-bit FNV-1a.
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

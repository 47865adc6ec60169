package vm

import (
	"strings"
	"testing"
)

func TestObjType_String(t *testing.T) {
	if OBJ_CLOSURE.String() != "closure" {
		t.Errorf("got %q", OBJ_CLOSURE.String())
	}
	if got := ObjType(99).String(); got != "ObjType(99)" {
		t.Errorf("got %q", got)
	}
}

func TestIsAndNarrow(t *testing.T) {
	heap := NewHeap()
	str := heap.CopyString("s")
	fn := heap.NewFunction()

	objects := []struct {
		obj Object
		tag ObjType
	}{
		{str, OBJ_STRING},
		{fn, OBJ_FUNCTION},
		{heap.NewNative("n", clockNative), OBJ_NATIVE},
		{heap.NewClosure(fn), OBJ_CLOSURE},
		{heap.NewUpvalue(0), OBJ_UPVALUE},
	}

	for _, o := range objects {
		t.Run(o.tag.String(), func(t *testing.T) {
			if !Is(o.obj, o.tag) {
				t.Errorf("Is(%s) = false", o.tag)
			}
			if o.obj.Type() != o.tag || o.obj.Header().Tag != o.tag {
				t.Errorf("header tag %s, want %s", o.obj.Header().Tag, o.tag)
			}
			_, isString := SafeNarrow[*ObjString](o.obj)
			if isString != (o.tag == OBJ_STRING) {
				t.Errorf("SafeNarrow to string = %v", isString)
			}
		})
	}

	if got := Narrow[*ObjString](Object(str)); got != str {
		t.Error("Narrow returned a different object")
	}
	if Is(nil, OBJ_STRING) {
		t.Error("nil is not a string")
	}
	if _, ok := SafeNarrow[*ObjFunction](nil); ok {
		t.Error("SafeNarrow(nil) should fail")
	}
}

func TestHeader_WidenIsIdentity(t *testing.T) {
	heap := NewHeap()
	str := heap.CopyString("x")
	if str.Header() != &str.ObjHeader {
		t.Error("Header must return the embedded header")
	}
}

func TestNarrow_PanicsOnMismatch(t *testing.T) {
	heap := NewHeap()
	obj := Object(heap.NewFunction())

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "narrowing function to string") {
			t.Errorf("unexpected panic %v", r)
		}
	}()
	Narrow[*ObjString](obj)
}

func TestPrintObject(t *testing.T) {
	heap := NewHeap()
	named := heap.NewFunction()
	named.Name = heap.CopyString("add")
	script := heap.NewFunction()

	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"string", heap.CopyString("hello"), `"hello"`},
		{"empty string", heap.CopyString(""), `""`},
		{"function", named, "<fn add>"},
		{"script", script, "<script>"},
		{"native", heap.NewNative("clock", clockNative), "<native fn>"},
		{"closure", heap.NewClosure(named), "<fn add>"},
		{"script closure", heap.NewClosure(script), "<script>"},
		{"upvalue", heap.NewUpvalue(3), "upvalue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			PrintObject(&sb, tt.obj)
			if sb.String() != tt.want {
				t.Errorf("got %q, want %q", sb.String(), tt.want)
			}
		})
	}
}

func TestObjString_EqualsAndHash(t *testing.T) {
	a := &ObjString{ObjHeader: ObjHeader{Tag: OBJ_STRING}, Chars: "abc", Hash: hashString("abc")}
	b := &ObjString{ObjHeader: ObjHeader{Tag: OBJ_STRING}, Chars: "abc", Hash: hashString("abc")}
	c := &ObjString{ObjHeader: ObjHeader{Tag: OBJ_STRING}, Chars: "abd", Hash: hashString("abd")}

	if !a.Equals(b) {
		t.Error("structurally equal strings differ")
	}
	if a.Equals(c) {
		t.Error("different strings compare equal")
	}
	if a.Equals(nil) {
		t.Error("string equals nil")
	}
	if a.Len() != 3 {
		t.Errorf("Len = %d", a.Len())
	}

	// 32-bit FNV-1a reference values.
	if h := hashString(""); h != 0x811c9dc5 {
		t.Errorf("hash(\"\") = %#x", h)
	}
	if h := hashString("a"); h != 0xe40c292c {
		t.Errorf("hash(\"a\") = %#x", h)
	}
}

func TestClosure_UpvalueSlots(t *testing.T) {
	heap := NewHeap()
	fn := heap.NewFunction()
	fn.UpvalueCount = 2
	closure := heap.NewClosure(fn)
	if len(closure.Upvalues) != 2 {
		t.Errorf("closure has %d upvalue slots, want 2", len(closure.Upvalues))
	}

	uv := heap.NewUpvalue(5)
	if !uv.IsOpen() || uv.Location != 5 {
		t.Errorf("new upvalue should be open at 5: %+v", uv)
	}
}

func TestValue_Equals(t *testing.T) {
	heap := NewHeap()
	fn := heap.NewFunction()
	loose := &ObjString{ObjHeader: ObjHeader{Tag: OBJ_STRING}, Chars: "k", Hash: hashString("k")}

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil", NilVal(), NilVal(), true},
		{"bools", BoolVal(true), BoolVal(true), true},
		{"bool vs nil", BoolVal(false), NilVal(), false},
		{"numbers", NumberVal(1.5), NumberVal(1.5), true},
		{"strings by content", ObjVal(heap.CopyString("k")), ObjVal(loose), true},
		{"functions by identity", ObjVal(fn), ObjVal(fn), true},
		{"different functions", ObjVal(fn), ObjVal(heap.NewFunction()), false},
		{"string vs function", ObjVal(loose), ObjVal(fn), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

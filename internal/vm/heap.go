package vm

import (
	"github.com/sirupsen/logrus"
)

// Default collector tuning.
const (
	DefaultGCThreshold  = 1024 * 1024
	DefaultGCGrowFactor = 2
)

// Approximate per-object costs used for GC pacing.
const (
	sizeString   = 32
	sizeFunction = 64
	sizeNative   = 48
	sizeClosure  = 40
	sizeUpvalue  = 48
	sizePointer  = 8
)

// RootSet is anything that can report the objects it keeps alive.
type RootSet interface {
	MarkRoots(m *Marker)
}

type heapSlot struct {
	obj    Object
	marked bool
}

// Heap owns every object allocated for a compilation or VM session.
// Objects are tracked in a registry addressed by Handle; a mark/sweep pass
// over the registry reclaims whatever the pinned root sets no longer reach.
type Heap struct {
	objects []heapSlot
	free    []Handle
	live    int

	// Interned strings, keyed by content. Entries do not keep strings alive.
	strings map[string]*ObjString

	roots  map[int]RootSet
	rootID int

	gray []Object

	bytesAllocated int
	nextGC         int
	threshold      int
	growFactor     int
	stress         bool
	collections    int

	log *logrus.Entry
}

// HeapOption configures a Heap.
type HeapOption func(*Heap)

// WithStressGC collects before every allocation.
func WithStressGC(on bool) HeapOption {
	return func(h *Heap) { h.stress = on }
}

// WithGCThreshold sets the allocation volume that triggers the first
// collection. Zero keeps the default.
func WithGCThreshold(bytes int) HeapOption {
	return func(h *Heap) {
		if bytes > 0 {
			h.threshold = bytes
		}
	}
}

// WithGCGrowFactor sets how far the next threshold moves past the bytes
// still live after a collection.
func WithGCGrowFactor(factor int) HeapOption {
	return func(h *Heap) {
		if factor >= 2 {
			h.growFactor = factor
		}
	}
}

// WithHeapLogger routes collector logs to entry.
func WithHeapLogger(entry *logrus.Entry) HeapOption {
	return func(h *Heap) {
		if entry != nil {
			h.log = entry
		}
	}
}

// NewHeap creates an empty heap.
func NewHeap(opts ...HeapOption) *Heap {
	h := &Heap{
		objects:    make([]heapSlot, 0, 256),
		strings:    make(map[string]*ObjString),
		roots:      make(map[int]RootSet),
		threshold:  DefaultGCThreshold,
		growFactor: DefaultGCGrowFactor,
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.nextGC = h.threshold
	h.log = h.log.WithField("component", "heap")
	return h
}

// Pin registers r as a root until the returned function is called.
func (h *Heap) Pin(r RootSet) (unpin func()) {
	h.rootID++
	id := h.rootID
	h.roots[id] = r
	return func() { delete(h.roots, id) }
}

// CopyString returns the interned string with the given content,
// allocating it on first use.
func (h *Heap) CopyString(s string) *ObjString {
	if interned, ok := h.strings[s]; ok {
		return interned
	}
	str := &ObjString{ObjHeader: ObjHeader{Tag: OBJ_STRING}, Chars: s, Hash: hashString(s)}
	h.register(str, sizeString+len(s))
	h.strings[s] = str
	return str
}

// Concat interns the concatenation of a and b.
func (h *Heap) Concat(a, b *ObjString) *ObjString {
	return h.CopyString(a.Chars + b.Chars)
}

// NewFunction allocates a function with an empty owned chunk.
func (h *Heap) NewFunction() *ObjFunction {
	fn := &ObjFunction{ObjHeader: ObjHeader{Tag: OBJ_FUNCTION}, Chunk: NewChunk()}
	h.register(fn, sizeFunction)
	return fn
}

// NewNative wraps a Go function.
func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	native := &ObjNative{ObjHeader: ObjHeader{Tag: OBJ_NATIVE}, Name: name, Fn: fn}
	h.register(native, sizeNative)
	return native
}

// NewClosure allocates a closure over fn with UpvalueCount empty slots.
// fn must already be reachable from a root.
func (h *Heap) NewClosure(fn *ObjFunction) *ObjClosure {
	closure := &ObjClosure{
		ObjHeader: ObjHeader{Tag: OBJ_CLOSURE},
		Function:  fn,
		Upvalues:  make([]*ObjUpvalue, fn.UpvalueCount),
	}
	h.register(closure, sizeClosure+sizePointer*fn.UpvalueCount)
	return closure
}

// NewUpvalue allocates an open upvalue for the given stack slot.
func (h *Heap) NewUpvalue(slot int) *ObjUpvalue {
	uv := &ObjUpvalue{ObjHeader: ObjHeader{Tag: OBJ_UPVALUE}, Location: slot}
	h.register(uv, sizeUpvalue)
	return uv
}

// Get resolves a handle to its live object.
func (h *Heap) Get(handle Handle) (Object, bool) {
	if int(handle) >= len(h.objects) {
		return nil, false
	}
	obj := h.objects[handle].obj
	return obj, obj != nil
}

// Len returns the number of live objects.
func (h *Heap) Len() int { return h.live }

// BytesAllocated returns the current pacing estimate of live bytes.
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }

// Collections returns how many collections have run.
func (h *Heap) Collections() int { return h.collections }

// Interned returns the number of strings in the intern table.
func (h *Heap) Interned() int { return len(h.strings) }

func (h *Heap) register(o Object, size int) {
	h.bytesAllocated += size
	if h.stress || h.bytesAllocated > h.nextGC {
		h.Collect()
	}

	var handle Handle
	if n := len(h.free); n > 0 {
		handle = h.free[n-1]
		h.free = h.free[:n-1]
		h.objects[handle] = heapSlot{obj: o}
	} else {
		handle = Handle(len(h.objects))
		h.objects = append(h.objects, heapSlot{obj: o})
	}
	o.Header().Handle = handle
	h.live++
}

// Collect runs a full mark/sweep cycle.
func (h *Heap) Collect() {
	before := h.bytesAllocated
	m := &Marker{heap: h}

	for _, r := range h.roots {
		r.MarkRoots(m)
	}
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		o := h.gray[n]
		h.gray = h.gray[:n]
		m.blacken(o)
	}

	for s, str := range h.strings {
		if !h.objects[str.Handle].marked {
			delete(h.strings, s)
		}
	}
	freed := h.sweep()

	h.nextGC = max(h.bytesAllocated*h.growFactor, h.threshold)
	h.collections++

	h.log.WithFields(logrus.Fields{
		"freed_objects": freed,
		"live_objects":  h.live,
		"bytes_before":  before,
		"bytes_after":   h.bytesAllocated,
		"next_gc":       h.nextGC,
	}).Debug("gc cycle")
}

func (h *Heap) sweep() int {
	freed := 0
	for i := range h.objects {
		slot := &h.objects[i]
		if slot.obj == nil {
			continue
		}
		if slot.marked {
			slot.marked = false
			continue
		}
		h.bytesAllocated -= sizeOf(slot.obj)
		*slot = heapSlot{}
		h.free = append(h.free, Handle(i))
		h.live--
		freed++
	}
	return freed
}

func sizeOf(o Object) int {
	switch obj := o.(type) {
	case *ObjString:
		return sizeString + obj.Len()
	case *ObjFunction:
		return sizeFunction
	case *ObjNative:
		return sizeNative
	case *ObjClosure:
		return sizeClosure + sizePointer*len(obj.Upvalues)
	case *ObjUpvalue:
		return sizeUpvalue
	default:
		return 0
	}
}

// Marker is handed to root sets during the mark phase.
type Marker struct {
	heap *Heap
}

// MarkValue marks v if it refers to a heap object.
func (m *Marker) MarkValue(v Value) {
	if v.IsObj() {
		m.MarkObject(v.Obj)
	}
}

// MarkObject marks o and queues it for tracing. Objects owned by another
// heap are ignored.
func (m *Marker) MarkObject(o Object) {
	if o == nil {
		return
	}
	handle := o.Header().Handle
	if int(handle) >= len(m.heap.objects) {
		return
	}
	slot := &m.heap.objects[handle]
	if slot.obj != o || slot.marked {
		return
	}
	slot.marked = true
	m.heap.gray = append(m.heap.gray, o)
}

func (m *Marker) blacken(o Object) {
	switch obj := o.(type) {
	case *ObjString, *ObjNative:
	case *ObjFunction:
		if obj.Name != nil {
			m.MarkObject(obj.Name)
		}
		if obj.Chunk != nil {
			obj.Chunk.MarkRoots(m)
		}
	case *ObjClosure:
		if obj.Function != nil {
			m.MarkObject(obj.Function)
		}
		for _, uv := range obj.Upvalues {
			if uv != nil {
				m.MarkObject(uv)
			}
		}
	case *ObjUpvalue:
		m.MarkValue(obj.Closed)
	}
}

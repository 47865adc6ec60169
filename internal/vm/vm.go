package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/loxide/internal/config"
)

var (
	// ErrCompile wraps the diagnostics of a failed compile.
	ErrCompile = errors.New("compile error")
	// ErrRuntime is matched by every *RuntimeError.
	ErrRuntime = errors.New("runtime error")
)

var errStackUnderflow = errors.New("stack underflow")
var errStackOverflow = errors.New("stack overflow")
var errTruncatedBytecode = errors.New("truncated bytecode")
var errInvalidConstantIndex = errors.New("invalid constant index")

// Initial operand stack capacity
const InitialStackSize = 256

// Maximum operand stack size to prevent OOM
const MaxStackSize = 64 * 1024

// RuntimeError is a failure raised while executing bytecode.
type RuntimeError struct {
	Message string
	Line    int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d] in script", e.Message, e.Line)
}

func (e *RuntimeError) Unwrap() error { return ErrRuntime }

// VM is the virtual machine that executes bytecode
type VM struct {
	heap *Heap

	stack []Value

	// Globals are keyed by interned name, so pointer identity is
	// content identity.
	globals map[*ObjString]Value

	// Current script
	closure *ObjClosure
	chunk   *Chunk
	ip      int

	// Output writer (defaults to os.Stdout)
	out io.Writer

	trace       bool
	log         *logrus.Entry
	compileOpts []Option

	unpin func()
}

// VMOption configures a VM.
type VMOption func(*VM)

// WithOutput sets where print writes.
func WithOutput(w io.Writer) VMOption {
	return func(vm *VM) { vm.out = w }
}

// WithTrace logs every executed instruction and the stack at debug level.
func WithTrace(on bool) VMOption {
	return func(vm *VM) { vm.trace = on }
}

// WithVMLogger routes VM logs to entry.
func WithVMLogger(entry *logrus.Entry) VMOption {
	return func(vm *VM) {
		if entry != nil {
			vm.log = entry
		}
	}
}

// WithCompilerOptions sets the options Interpret compiles with.
func WithCompilerOptions(opts ...Option) VMOption {
	return func(vm *VM) { vm.compileOpts = append(vm.compileOpts, opts...) }
}

// New creates a VM allocating into heap. The VM stays registered as a GC
// root until Close.
func New(heap *Heap, opts ...VMOption) *VM {
	vm := &VM{
		heap:    heap,
		stack:   make([]Value, 0, InitialStackSize),
		globals: make(map[*ObjString]Value),
		out:     os.Stdout,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.log = vm.log.WithField("component", "vm")
	vm.unpin = heap.Pin(vm)

	vm.DefineNative(config.ClockFuncName, clockNative)
	return vm
}

// SetOutput sets the output writer for the VM
func (vm *VM) SetOutput(w io.Writer) {
	vm.out = w
}

// Heap returns the heap the VM allocates into.
func (vm *VM) Heap() *Heap { return vm.heap }

// Close unregisters the VM from its heap's roots.
func (vm *VM) Close() {
	if vm.unpin != nil {
		vm.unpin()
		vm.unpin = nil
	}
}

// Interpret compiles and runs source. Globals persist across calls.
func (vm *VM) Interpret(source string) error {
	fn, err := CompileScript(vm.heap, source, vm.compileOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCompile, err)
	}
	return vm.Run(fn)
}

// Run executes a compiled script function.
func (vm *VM) Run(fn *ObjFunction) (err error) {
	vm.push(ObjVal(fn))
	closure := vm.heap.NewClosure(fn)
	vm.pop()

	vm.closure = closure
	vm.chunk = fn.Chunk
	vm.ip = 0
	vm.push(ObjVal(closure))

	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !(errors.Is(e, errStackUnderflow) || errors.Is(e, errStackOverflow)) {
				panic(r)
			}
			err = vm.runtimeError("%s.", capitalize(e.Error()))
		}
		vm.resetStack()
	}()

	return vm.run()
}

// DefineNative binds a Go function to a global name.
func (vm *VM) DefineNative(name string, fn NativeFn) {
	vm.push(ObjVal(vm.heap.CopyString(name)))
	vm.push(ObjVal(vm.heap.NewNative(name, fn)))
	vm.globals[Narrow[*ObjString](vm.peek(1).Obj)] = vm.peek(0)
	vm.pop()
	vm.pop()
}

// MarkRoots marks the stack, the globals and the running closure.
func (vm *VM) MarkRoots(m *Marker) {
	for _, v := range vm.stack {
		m.MarkValue(v)
	}
	for name, v := range vm.globals {
		m.MarkObject(name)
		m.MarkValue(v)
	}
	if vm.closure != nil {
		m.MarkObject(vm.closure)
	}
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.closure = nil
	vm.chunk = nil
}

func (vm *VM) push(v Value) {
	if len(vm.stack) >= MaxStackSize {
		panic(errStackOverflow)
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() Value {
	n := len(vm.stack)
	if n == 0 {
		panic(errStackUnderflow)
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) peek(distance int) Value {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		panic(errStackUnderflow)
	}
	return vm.stack[idx]
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	line := 0
	if vm.chunk != nil && vm.ip > 0 && vm.ip-1 < len(vm.chunk.Lines) {
		line = vm.chunk.Lines[vm.ip-1]
	}
	err := &RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
	vm.log.WithField("line", line).Debug(err.Message)
	return err
}

func (vm *VM) traceExecution() {
	var sb strings.Builder
	sb.WriteString("          ")
	for _, v := range vm.stack {
		sb.WriteString("[ ")
		sb.WriteString(v.String())
		sb.WriteString(" ]")
	}
	instr, _ := DisassembleInstruction(vm.chunk, vm.ip)
	vm.log.Debug(sb.String())
	vm.log.Debug(instr)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

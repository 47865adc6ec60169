// Package loxide embeds the Lox interpreter in Go programs.
package loxide

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/loxide/internal/vm"
)

// VM is a Lox interpreter with a Go-facing API. Globals persist across
// Eval calls.
type VM struct {
	machine    *vm.VM
	heap       *vm.Heap
	marshaller *Marshaller
}

type settings struct {
	out         io.Writer
	diagnostics io.Writer
	stressGC    bool
	log         *logrus.Entry
}

// Option configures a VM.
type Option func(*settings)

// WithOutput sets where print writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithDiagnostics mirrors compile errors to w in addition to returning them.
func WithDiagnostics(w io.Writer) Option {
	return func(s *settings) { s.diagnostics = w }
}

// WithStressGC collects garbage before every allocation.
func WithStressGC(on bool) Option {
	return func(s *settings) { s.stressGC = on }
}

// WithLogger routes interpreter logs to entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(s *settings) { s.log = entry }
}

// New creates a new Lox VM instance.
func New(opts ...Option) *VM {
	s := &settings{out: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	heap := vm.NewHeap(vm.WithStressGC(s.stressGC), vm.WithHeapLogger(s.log))
	machine := vm.New(heap,
		vm.WithOutput(s.out),
		vm.WithVMLogger(s.log),
		vm.WithCompilerOptions(vm.WithDiagnostics(s.diagnostics), vm.WithLogger(s.log)),
	)
	return &VM{machine: machine, heap: heap, marshaller: NewMarshaller(heap)}
}

// Close releases the VM's hold on its heap.
func (v *VM) Close() { v.machine.Close() }

// Eval compiles and runs source. Compile errors wrap vm.ErrCompile and
// carry every diagnostic; runtime errors wrap vm.ErrRuntime.
func (v *VM) Eval(source string) error {
	return v.machine.Interpret(source)
}

// EvalFile reads and evaluates a script.
func (v *VM) EvalFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return v.Eval(string(data))
}

// Set binds a Go value to a global.
func (v *VM) Set(name string, value interface{}) error {
	val, err := v.marshaller.ToValue(value)
	if err != nil {
		return fmt.Errorf("global %s: %w", name, err)
	}
	v.machine.SetGlobal(name, val)
	return nil
}

// Get returns a global converted to Go.
func (v *VM) Get(name string) (interface{}, error) {
	val, ok := v.machine.Global(name)
	if !ok {
		return nil, fmt.Errorf("undefined global %q", name)
	}
	return v.marshaller.FromValue(val)
}

// Globals lists the names of every defined global in order.
func (v *VM) Globals() []string {
	names := make([]string, 0)
	for name := range v.machine.Globals() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/loxide/internal/cache"
	"github.com/funvibe/loxide/internal/config"
	"github.com/funvibe/loxide/internal/diagnostics"
	"github.com/funvibe/loxide/internal/vm"
)

const usage = `Usage: loxide [options] [script]

  loxide                    start the REPL
  loxide <file.lox>         compile and run a script
  loxide -c <file.lox>      compile to <file>.loxc
  loxide -r <file.loxc>     run a compiled bundle
  loxide -d <file.lox>      print the bytecode of a script
  loxide -v                 print the version
  loxide -h                 show this help

Options:
  --config <path>           use this loxide.yaml instead of searching for one
`

// app carries the streams and settings of one CLI invocation.
type app struct {
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg   *config.Config
	log   *logrus.Entry
	color bool
}

// Run is the entry point of the loxide binary.
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Main runs the CLI with the given arguments and streams and returns the
// process exit code.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	args, configPath, err := extractConfigFlag(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usage)
		return config.ExitUsage
	}
	a.args = args

	if err := a.loadConfig(configPath); err != nil {
		fmt.Fprintf(stderr, "Config error: %s\n", err)
		return config.ExitUsage
	}
	a.setupLogging()

	for _, handle := range []func() (int, bool){
		a.handleHelp,
		a.handleVersion,
		a.handleCompile,
		a.handleRunCompiled,
		a.handleDisasm,
	} {
		if code, handled := handle(); handled {
			return code
		}
	}

	switch len(a.args) {
	case 0:
		return a.repl()
	case 1:
		if strings.HasPrefix(a.args[0], "-") {
			fmt.Fprintf(stderr, "Unknown option: %s\n", a.args[0])
			fmt.Fprint(stderr, usage)
			return config.ExitUsage
		}
		return a.runFile(a.args[0])
	default:
		fmt.Fprint(stderr, usage)
		return config.ExitUsage
	}
}

// extractConfigFlag removes "--config <path>" from args.
func extractConfigFlag(args []string) ([]string, string, error) {
	rest := make([]string, 0, len(args))
	path := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config":
			if i+1 >= len(args) {
				return nil, "", errors.New("--config requires a path")
			}
			path = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--config="):
			path = strings.TrimPrefix(args[i], "--config=")
		default:
			rest = append(rest, args[i])
		}
	}
	return rest, path, nil
}

func (a *app) loadConfig(path string) error {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			a.cfg = config.Default()
			return nil
		}
		found, err := config.Find(wd)
		if err != nil {
			return err
		}
		path = found
	}
	if path == "" {
		a.cfg = config.Default()
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) setupLogging() {
	logger := logrus.New()
	logger.SetOutput(a.stderr)
	if level, err := logrus.ParseLevel(a.cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if a.cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	// Tracing and code dumps are only visible at debug level.
	if (a.cfg.Debug.PrintCode || a.cfg.Debug.TraceExecution) && !logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.SetLevel(logrus.DebugLevel)
	}
	a.log = logrus.NewEntry(logger)

	f, _ := a.stderr.(*os.File)
	a.color = diagnostics.ColorEnabled(a.cfg.Diagnostics.Color, f)
}

func (a *app) newHeap() *vm.Heap {
	return vm.NewHeap(
		vm.WithStressGC(a.cfg.GC.Stress),
		vm.WithGCThreshold(a.cfg.GC.InitialThreshold),
		vm.WithGCGrowFactor(a.cfg.GC.GrowFactor),
		vm.WithHeapLogger(a.log),
	)
}

func (a *app) compilerOptions() []vm.Option {
	return []vm.Option{
		vm.WithDiagnostics(a.stderr),
		vm.WithColor(a.color),
		vm.WithLogger(a.log),
		vm.WithPrintCode(a.cfg.Debug.PrintCode),
	}
}

func (a *app) newVM(heap *vm.Heap) *vm.VM {
	return vm.New(heap,
		vm.WithOutput(a.stdout),
		vm.WithTrace(a.cfg.Debug.TraceExecution),
		vm.WithVMLogger(a.log),
		vm.WithCompilerOptions(a.compilerOptions()...),
	)
}

func (a *app) handleHelp() (int, bool) {
	if len(a.args) < 1 {
		return 0, false
	}
	switch a.args[0] {
	case "-h", "-help", "--help", "help":
		fmt.Fprint(a.stdout, usage)
		return 0, true
	}
	return 0, false
}

func (a *app) handleVersion() (int, bool) {
	if len(a.args) != 1 {
		return 0, false
	}
	switch a.args[0] {
	case "-v", "-version", "--version":
		fmt.Fprintln(a.stdout, "loxide "+config.Version)
		return 0, true
	}
	return 0, false
}

func (a *app) handleCompile() (int, bool) {
	if len(a.args) < 2 || (a.args[0] != "-c" && a.args[0] != "--compile") {
		return 0, false
	}
	sourcePath := a.args[1]

	source, code := a.readFile(sourcePath)
	if code != 0 {
		return code, true
	}

	heap := a.newHeap()
	fn, err := a.compile(heap, source)
	if err != nil {
		return config.ExitCompileError, true
	}

	bundle, err := vm.NewBundle(fn, sourcePath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Serialization error: %s\n", err)
		return config.ExitCompileError, true
	}
	data, err := bundle.Serialize()
	if err != nil {
		fmt.Fprintf(a.stderr, "Serialization error: %s\n", err)
		return config.ExitCompileError, true
	}

	outputPath := config.TrimSourceExt(sourcePath) + config.BytecodeFileExt
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Fprintf(a.stderr, "Error writing bytecode file: %s\n", err)
		return config.ExitIOError, true
	}

	fmt.Fprintf(a.stdout, "Compiled %s -> %s (%d bytes)\n", sourcePath, outputPath, len(data))
	return 0, true
}

func (a *app) handleRunCompiled() (int, bool) {
	if len(a.args) < 2 || (a.args[0] != "-r" && a.args[0] != "--run") {
		return 0, false
	}
	bytecodePath := a.args[1]

	data, err := os.ReadFile(bytecodePath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error reading bytecode file: %s\n", err)
		return config.ExitIOError, true
	}
	bundle, err := vm.Deserialize(data)
	if err != nil {
		fmt.Fprintf(a.stderr, "Deserialization error: %s\n", err)
		return config.ExitIOError, true
	}

	heap := a.newHeap()
	machine := a.newVM(heap)
	defer machine.Close()

	fn, err := bundle.Load(heap)
	if err != nil {
		fmt.Fprintf(a.stderr, "Deserialization error: %s\n", err)
		return config.ExitIOError, true
	}
	return a.execute(machine, fn), true
}

func (a *app) handleDisasm() (int, bool) {
	if len(a.args) < 2 || (a.args[0] != "-d" && a.args[0] != "--disasm") {
		return 0, false
	}
	sourcePath := a.args[1]

	source, code := a.readFile(sourcePath)
	if code != 0 {
		return code, true
	}
	fn, err := a.compile(a.newHeap(), source)
	if err != nil {
		return config.ExitCompileError, true
	}
	fmt.Fprint(a.stdout, vm.Disassemble(fn.Chunk, sourcePath))
	return 0, true
}

func (a *app) runFile(path string) int {
	source, code := a.readFile(path)
	if code != 0 {
		return code
	}

	heap := a.newHeap()
	machine := a.newVM(heap)
	defer machine.Close()

	fn, err := a.compileCached(context.Background(), heap, source, path)
	if err != nil {
		return config.ExitCompileError
	}
	return a.execute(machine, fn)
}

func (a *app) readFile(path string) (string, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "Could not open file \"%s\": %s\n", path, err)
		return "", config.ExitIOError
	}
	return string(data), 0
}

// compile reports diagnostics to stderr and returns an ErrCompile-wrapped
// error on failure.
func (a *app) compile(heap *vm.Heap, source string) (*vm.ObjFunction, error) {
	fn, err := vm.CompileScript(heap, source, a.compilerOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vm.ErrCompile, err)
	}
	return fn, nil
}

// compileCached consults the compile cache when it is enabled. Cache
// failures are logged and fall back to a plain compile.
func (a *app) compileCached(ctx context.Context, heap *vm.Heap, source, path string) (*vm.ObjFunction, error) {
	if !a.cfg.Cache.Enabled {
		return a.compile(heap, source)
	}

	c, err := cache.Open(ctx, a.cfg.Cache.Path)
	if err != nil {
		a.log.WithError(err).Warn("compile cache unavailable")
		return a.compile(heap, source)
	}
	defer c.Close()
	c.SetLogger(a.log)

	if bundle, ok, err := c.Get(ctx, source); err != nil {
		a.log.WithError(err).Warn("compile cache lookup failed")
	} else if ok {
		fn, err := bundle.Load(heap)
		if err == nil {
			return fn, nil
		}
		a.log.WithError(err).Warn("cached bundle rejected")
	}

	fn, err := a.compile(heap, source)
	if err != nil {
		return nil, err
	}
	if bundle, err := vm.NewBundle(fn, path); err == nil {
		if err := c.Put(ctx, source, bundle); err != nil {
			a.log.WithError(err).Warn("compile cache store failed")
		}
	}
	return fn, nil
}

func (a *app) execute(machine *vm.VM, fn *vm.ObjFunction) int {
	if err := machine.Run(fn); err != nil {
		fmt.Fprintln(a.stderr, err)
		return config.ExitRuntimeError
	}
	return 0
}

package vm

import (
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/funvibe/loxide/internal/diagnostics"
	"github.com/funvibe/loxide/internal/lexer"
	"github.com/funvibe/loxide/internal/token"
)

// TokenSource produces one token per call. *lexer.Lexer implements it.
type TokenSource interface {
	NextToken() token.Token
}

// Parser is the cursor shared by every parsing function of one compile.
type Parser struct {
	current  token.Token
	previous token.Token

	hadError  bool // sticky for the whole compile
	panicMode bool // set by the first error, cleared by synchronize
}

// Compiler is a single-pass compiler from tokens to bytecode.
// A Compiler may be reused, but never concurrently.
type Compiler struct {
	parser Parser
	source TokenSource
	chunk  *Chunk
	heap   *Heap

	// Diagnostics
	diagOut io.Writer
	color   bool
	sink    *diagnostics.Sink
	errs    *multierror.Error

	log       *logrus.Entry
	printCode bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDiagnostics sets where error lines are written. Defaults to stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(c *Compiler) { c.diagOut = w }
}

// WithColor enables ANSI colour in diagnostics.
func WithColor(on bool) Option {
	return func(c *Compiler) { c.color = on }
}

// WithLogger routes compiler logs to entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Compiler) {
		if entry != nil {
			c.log = entry
		}
	}
}

// WithPrintCode logs the disassembly of every successful compile.
func WithPrintCode(on bool) Option {
	return func(c *Compiler) { c.printCode = on }
}

// NewCompiler creates a compiler allocating into heap.
func NewCompiler(heap *Heap, opts ...Option) *Compiler {
	c := &Compiler{
		heap:    heap,
		diagOut: os.Stderr,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sink = diagnostics.NewSink(c.diagOut, c.color)
	c.log = c.log.WithField("component", "compiler")
	return c
}

// Compile compiles source into chunk. It returns false if any error was
// reported; the chunk must then be discarded.
func (c *Compiler) Compile(source string, chunk *Chunk) bool {
	return c.CompileTokens(lexer.New(source), chunk)
}

// CompileTokens is Compile over an arbitrary token source.
func (c *Compiler) CompileTokens(src TokenSource, chunk *Chunk) bool {
	c.parser = Parser{}
	c.errs = nil
	c.source = src
	c.chunk = chunk

	// Constants are reachable as soon as they enter the pool.
	unpin := c.heap.Pin(chunk)
	defer unpin()

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.endCompiler()

	c.source = nil
	c.chunk = nil
	return !c.parser.hadError
}

// Errors returns every diagnostic of the last compile, or nil.
func (c *Compiler) Errors() error {
	return c.errs.ErrorOrNil()
}

func (c *Compiler) endCompiler() {
	c.emitReturn()

	fields := logrus.Fields{
		"bytes":     c.chunk.Len(),
		"constants": len(c.chunk.Constants),
	}
	if c.parser.hadError {
		c.log.WithFields(fields).WithField("errors", c.errs.Len()).Debug("compile failed")
		return
	}
	c.log.WithFields(fields).Debug("compiled")
	if c.printCode {
		c.log.Debug("\n" + Disassemble(c.chunk, "code"))
	}
}

// CompileScript compiles source into the chunk of a fresh script function.
// On failure it returns the aggregated diagnostics.
func CompileScript(heap *Heap, source string, opts ...Option) (*ObjFunction, error) {
	fn := heap.NewFunction()
	unpin := heap.Pin(rootFunc(func(m *Marker) { m.MarkObject(fn) }))
	defer unpin()

	c := NewCompiler(heap, opts...)
	if !c.Compile(source, fn.Chunk) {
		return nil, c.Errors()
	}
	return fn, nil
}

// rootFunc adapts a plain function to RootSet.
type rootFunc func(m *Marker)

func (f rootFunc) MarkRoots(m *Marker) { f(m) }

// Token cursor

func (c *Compiler) advance() {
	c.parser.previous = c.parser.current
	for {
		c.parser.current = c.source.NextToken()
		if c.parser.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(c.parser.current.Lexeme)
	}
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.parser.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.parser.current.Type == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

package vm

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int

	// Constants pool - literals and global names.
	// Operands index it with a single byte.
	Constants []Value
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Lines:     make([]int, 0, 256),
		Constants: make([]Value, 0, 64),
	}
}

// Write adds a byte to the chunk with line info
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// AddConstant adds a constant to the pool and returns its index.
// It does not enforce the one-byte operand limit; the compiler does.
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// Len returns the number of bytes in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

// MarkRoots marks every constant, so a chunk under construction can be
// pinned while the compiler allocates.
func (c *Chunk) MarkRoots(m *Marker) {
	for _, v := range c.Constants {
		m.MarkValue(v)
	}
}

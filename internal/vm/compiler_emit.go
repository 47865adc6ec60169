package vm

import (
	"github.com/funvibe/loxide/internal/config"
	"github.com/funvibe/loxide/internal/token"
)

// All emitted bytes carry the line of the token just consumed.

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.parser.previous.Line)
}

func (c *Compiler) emitBytes(b1, b2 byte) {
	c.emitByte(b1)
	c.emitByte(b2)
}

func (c *Compiler) emitOp(op Opcode) {
	c.chunk.WriteOp(op, c.parser.previous.Line)
}

func (c *Compiler) emitOps(ops ...Opcode) {
	for _, op := range ops {
		c.emitOp(op)
	}
}

func (c *Compiler) emitReturn() {
	c.emitOp(OP_RETURN)
}

func (c *Compiler) emitConstant(value Value) {
	c.emitBytes(byte(OP_CONST), c.makeConstant(value))
}

// makeConstant adds value to the pool. When the pool is full it reports
// an error and returns 0 without adding anything.
func (c *Compiler) makeConstant(value Value) byte {
	if len(c.chunk.Constants) >= config.MaxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(c.chunk.AddConstant(value))
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(ObjVal(c.heap.CopyString(name.Lexeme)))
}

package vm

import (
	"golang.org/x/exp/slices"

	"github.com/funvibe/loxide/internal/token"
)

// statementStarts are the lookahead tokens at which synchronize stops.
var statementStarts = []token.TokenType{
	token.CLASS,
	token.FUN,
	token.VAR,
	token.FOR,
	token.IF,
	token.WHILE,
	token.PRINT,
	token.RETURN,
}

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.parser.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitConstant(NilVal())
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.IDENT, message)
	return c.identifierConstant(c.parser.previous)
}

func (c *Compiler) defineVariable(global byte) {
	c.emitBytes(byte(OP_DEFINE_GLOBAL), global)
}

func (c *Compiler) statement() {
	if c.match(token.PRINT) {
		c.printStatement()
		return
	}
	c.expressionStatement()
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emitOp(OP_PRINT)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emitOp(OP_POP)
}

// synchronize skips tokens until a statement boundary so that one error
// does not produce a cascade of follow-on diagnostics.
func (c *Compiler) synchronize() {
	c.parser.panicMode = false

	for c.parser.current.Type != token.EOF {
		if c.parser.previous.Type == token.SEMICOLON {
			return
		}
		if slices.Contains(statementStarts, c.parser.current.Type) {
			return
		}
		c.advance()
	}
}

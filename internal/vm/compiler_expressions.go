package vm

import (
	"strconv"

	"github.com/funvibe/loxide/internal/token"
)

func (c *Compiler) expression() {
	c.parsePrecedence(PREC_ASSIGNMENT)
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	operator := c.parser.previous.Type

	c.parsePrecedence(PREC_UNARY)

	switch operator {
	case token.MINUS:
		c.emitOp(OP_NEGATE)
	case token.BANG:
		c.emitOp(OP_NOT)
	}
}

// binary compiles the right operand one level tighter than the operator,
// which makes every binary operator left-associative.
func (c *Compiler) binary(canAssign bool) {
	operator := c.parser.previous.Type
	rule := getRule(operator)
	c.parsePrecedence(rule.precedence + 1)

	switch operator {
	case token.PLUS:
		c.emitOp(OP_ADD)
	case token.MINUS:
		c.emitOp(OP_SUB)
	case token.ASTERISK:
		c.emitOp(OP_MUL)
	case token.SLASH:
		c.emitOp(OP_DIV)
	case token.EQ:
		c.emitOp(OP_EQ)
	case token.NOT_EQ:
		c.emitOps(OP_EQ, OP_NOT)
	case token.GT:
		c.emitOp(OP_GT)
	case token.GTE:
		// a >= b is !(a < b); assumes no NaN operands.
		c.emitOps(OP_LT, OP_NOT)
	case token.LT:
		c.emitOp(OP_LT)
	case token.LTE:
		c.emitOps(OP_GT, OP_NOT)
	}
}

func (c *Compiler) number(canAssign bool) {
	value, err := strconv.ParseFloat(c.parser.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number.")
		return
	}
	c.emitConstant(NumberVal(value))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.parser.previous.Type {
	case token.TRUE:
		c.emitConstant(BoolVal(true))
	case token.FALSE:
		c.emitConstant(BoolVal(false))
	case token.NIL:
		c.emitConstant(NilVal())
	}
}

func (c *Compiler) string(canAssign bool) {
	lexeme := c.parser.previous.Lexeme
	str := c.heap.CopyString(lexeme[1 : len(lexeme)-1])
	c.emitConstant(ObjVal(str))
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.parser.previous, canAssign)
}

// namedVariable compiles a global read, or a write when the name is in an
// assignable position and followed by '='.
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	arg := c.identifierConstant(name)

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitBytes(byte(OP_SET_GLOBAL), arg)
		return
	}
	c.emitBytes(byte(OP_GET_GLOBAL), arg)
}

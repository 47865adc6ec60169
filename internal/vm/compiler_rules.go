package vm

import (
	"github.com/funvibe/loxide/internal/token"
)

// Precedence orders binding strength, lowest first.
type Precedence uint8

const (
	PREC_NONE       Precedence = iota
	PREC_ASSIGNMENT            // =
	PREC_OR                    // or
	PREC_AND                   // and
	PREC_EQUALITY              // == !=
	PREC_COMPARISON            // < > <= >=
	PREC_TERM                  // + -
	PREC_FACTOR                // * /
	PREC_UNARY                 // ! -
	PREC_CALL                  // . ()
	PREC_PRIMARY
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is indexed by token type. Types without an entry get the zero
// rule: no handlers, PREC_NONE. Built in init because the handlers refer
// back to the table through parsePrecedence.
var rules [token.COUNT]parseRule

func init() {
	rules = [token.COUNT]parseRule{
		token.LPAREN:   {(*Compiler).grouping, nil, PREC_NONE},
		token.MINUS:    {(*Compiler).unary, (*Compiler).binary, PREC_TERM},
		token.PLUS:     {nil, (*Compiler).binary, PREC_TERM},
		token.SLASH:    {nil, (*Compiler).binary, PREC_FACTOR},
		token.ASTERISK: {nil, (*Compiler).binary, PREC_FACTOR},
		token.BANG:     {(*Compiler).unary, nil, PREC_NONE},
		token.NOT_EQ:   {nil, (*Compiler).binary, PREC_EQUALITY},
		token.EQ:       {nil, (*Compiler).binary, PREC_EQUALITY},
		token.GT:       {nil, (*Compiler).binary, PREC_COMPARISON},
		token.GTE:      {nil, (*Compiler).binary, PREC_COMPARISON},
		token.LT:       {nil, (*Compiler).binary, PREC_COMPARISON},
		token.LTE:      {nil, (*Compiler).binary, PREC_COMPARISON},
		token.IDENT:    {(*Compiler).variable, nil, PREC_NONE},
		token.STRING:   {(*Compiler).string, nil, PREC_NONE},
		token.NUMBER:   {(*Compiler).number, nil, PREC_NONE},
		token.FALSE:    {(*Compiler).literal, nil, PREC_NONE},
		token.NIL:      {(*Compiler).literal, nil, PREC_NONE},
		token.TRUE:     {(*Compiler).literal, nil, PREC_NONE},
	}
}

func getRule(t token.TokenType) *parseRule {
	return &rules[t]
}

func (c *Compiler) parsePrecedence(min Precedence) {
	c.advance()
	prefix := getRule(c.parser.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := min <= PREC_ASSIGNMENT
	prefix(c, canAssign)

	for min <= getRule(c.parser.current.Type).precedence {
		c.advance()
		infix := getRule(c.parser.previous.Type).infix
		if infix == nil {
			panic("vm: operator " + c.parser.previous.Type.String() + " has a precedence but no infix handler")
		}
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

// Package vm implements the Lox bytecode compiler, heap object model and
// the stack machine that executes compiled chunks.
package vm

import "fmt"

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push constant from pool: CONST idx
	OP_POP                 // Discard top of stack

	// Arithmetic
	OP_ADD    // +
	OP_SUB    // -
	OP_MUL    // *
	OP_DIV    // /
	OP_NEGATE // Unary minus

	// Comparison. != >= <= are emitted as EQ/LT/GT followed by NOT.
	OP_EQ // ==
	OP_GT // >
	OP_LT // <

	// Logic
	OP_NOT // !

	// Globals, keyed by a string constant
	OP_DEFINE_GLOBAL // DEFINE_GLOBAL nameIdx
	OP_GET_GLOBAL    // GET_GLOBAL nameIdx
	OP_SET_GLOBAL    // SET_GLOBAL nameIdx

	// Statements
	OP_PRINT  // Pop and print
	OP_RETURN // Return from the script
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_CONST: "CONST",
	OP_POP:   "POP",

	OP_ADD:    "ADD",
	OP_SUB:    "SUB",
	OP_MUL:    "MUL",
	OP_DIV:    "DIV",
	OP_NEGATE: "NEGATE",

	OP_EQ: "EQ",
	OP_GT: "GT",
	OP_LT: "LT",

	OP_NOT: "NOT",

	OP_DEFINE_GLOBAL: "DEFINE_GLOBAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",

	OP_PRINT:  "PRINT",
	OP_RETURN: "RETURN",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(op))
}

// operandWidth returns the number of operand bytes following op.
func (op Opcode) operandWidth() int {
	switch op {
	case OP_CONST, OP_DEFINE_GLOBAL, OP_GET_GLOBAL, OP_SET_GLOBAL:
		return 1
	default:
		return 0
	}
}

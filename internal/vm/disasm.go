package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

// DisassembleInstruction renders the instruction at offset and returns it
// (without trailing newline) together with the offset of the next one.
func DisassembleInstruction(chunk *Chunk, offset int) (string, int) {
	var sb strings.Builder
	next := disassembleInstruction(&sb, chunk, offset)
	return strings.TrimSuffix(sb.String(), "\n"), next
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Lines[offset]))
	}

	op := Opcode(chunk.Code[offset])
	if _, known := OpcodeNames[op]; !known {
		sb.WriteString(fmt.Sprintf("%s\n", op))
		return offset + 1
	}

	switch op.operandWidth() {
	case 1:
		return constantInstruction(sb, op.String(), chunk, offset)
	default:
		return simpleInstruction(sb, op.String(), offset)
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	sb.WriteString(fmt.Sprintf("%s\n", name))
	return offset + 1
}

func constantInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	if offset+1 >= len(chunk.Code) {
		sb.WriteString(fmt.Sprintf("%-16s (truncated)\n", name))
		return offset + 1
	}
	idx := int(chunk.Code[offset+1])

	if idx < len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", name, idx, chunk.Constants[idx]))
	} else {
		sb.WriteString(fmt.Sprintf("%-16s %4d (invalid)\n", name, idx))
	}

	return offset + 2
}

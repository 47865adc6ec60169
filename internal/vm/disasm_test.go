package vm

import (
	"strings"
	"testing"
)

func TestDisassemble(t *testing.T) {
	chunk, ok, diag := compileSource(t, nil, "print 1 + 2;\nvar x;")
	if !ok {
		t.Fatalf("compile failed: %s", diag)
	}

	want := strings.Join([]string{
		"== test ==",
		"0000    1 CONST               0 '1'",
		"0002    | CONST               1 '2'",
		"0004    | ADD",
		"0005    | PRINT",
		"0006    2 CONST               3 'nil'",
		"0008    | DEFINE_GLOBAL       2 '\"x\"'",
		"0010    | RETURN",
	}, "\n") + "\n"

	if got := Disassemble(chunk, "test"); got != want {
		t.Errorf("disassembly mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassembleInstruction(t *testing.T) {
	chunk := NewChunk()
	chunk.WriteOp(OP_GET_GLOBAL, 7)
	chunk.Write(5, 7)
	chunk.WriteOp(OP_NEGATE, 8)
	chunk.Write(250, 8)
	chunk.WriteOp(OP_CONST, 9)

	tests := []struct {
		offset int
		want   string
		next   int
	}{
		{0, "0000    7 GET_GLOBAL          5 (invalid)", 2},
		{2, "0002    8 NEGATE", 3},
		{3, "0003    | UNKNOWN(250)", 4},
		{4, "0004    9 CONST            (truncated)", 5},
	}

	for _, tt := range tests {
		got, next := DisassembleInstruction(chunk, tt.offset)
		if got != tt.want || next != tt.next {
			t.Errorf("offset %d: got (%q, %d), want (%q, %d)", tt.offset, got, next, tt.want, tt.next)
		}
	}
}

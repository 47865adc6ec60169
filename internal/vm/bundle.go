package vm

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/funvibe/loxide/internal/config"
)

// ErrBadBundle is returned for data that is not a loadable bundle.
var ErrBadBundle = errors.New("invalid bytecode bundle")

// bytecodeVersion is bumped whenever the instruction set or the bundle
// layout changes.
const bytecodeVersion byte = 0x01

// bundleMagic prefixes every serialized bundle.
var bundleMagic = [4]byte{'L', 'O', 'X', 'B'}

// ConstKind tags a serialized constant.
type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstNumber
	ConstString
)

// BundleConstant is the heap-independent form of a constant pool entry.
type BundleConstant struct {
	Kind   ConstKind
	Bool   bool
	Number float64
	String string
}

// Bundle is a compiled script detached from any heap, ready to be written
// to disk or a cache.
type Bundle struct {
	Version byte

	// BuildID identifies one compile; two bundles of the same source get
	// different IDs.
	BuildID uuid.UUID

	// SourceFile is the path the bundle was compiled from.
	SourceFile string

	Code      []byte
	Lines     []int
	Constants []BundleConstant
}

// NewBundle snapshots the chunk of a compiled script.
func NewBundle(fn *ObjFunction, sourceFile string) (*Bundle, error) {
	chunk := fn.Chunk
	b := &Bundle{
		Version:    bytecodeVersion,
		BuildID:    uuid.New(),
		SourceFile: sourceFile,
		Code:       append([]byte(nil), chunk.Code...),
		Lines:      append([]int(nil), chunk.Lines...),
		Constants:  make([]BundleConstant, 0, len(chunk.Constants)),
	}

	for i, v := range chunk.Constants {
		c, err := bundleConstant(v)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		b.Constants = append(b.Constants, c)
	}
	return b, nil
}

func bundleConstant(v Value) (BundleConstant, error) {
	switch v.Type {
	case ValNil:
		return BundleConstant{Kind: ConstNil}, nil
	case ValBool:
		return BundleConstant{Kind: ConstBool, Bool: v.AsBool()}, nil
	case ValNumber:
		return BundleConstant{Kind: ConstNumber, Number: v.AsNumber()}, nil
	case ValObj:
		if s, ok := SafeNarrow[*ObjString](v.Obj); ok {
			return BundleConstant{Kind: ConstString, String: s.Chars}, nil
		}
	}
	return BundleConstant{}, fmt.Errorf("cannot serialize %s constant", v.typeName())
}

// Serialize converts a Bundle to binary format.
// Format:
// - Magic number (4 bytes): "LOXB"
// - Version (1 byte)
// - Gob-encoded Bundle data
func (b *Bundle) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)

	buf.Write(bundleMagic[:])
	buf.WriteByte(bytecodeVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("bundle gob encoding failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Deserialize reads data written by Serialize and validates it.
func Deserialize(data []byte) (*Bundle, error) {
	if len(data) < len(bundleMagic)+1 {
		return nil, fmt.Errorf("%w: data too short", ErrBadBundle)
	}
	if !bytes.Equal(data[:len(bundleMagic)], bundleMagic[:]) {
		return nil, fmt.Errorf("%w: invalid magic number, expected LOXB", ErrBadBundle)
	}
	if version := data[len(bundleMagic)]; version != bytecodeVersion {
		return nil, fmt.Errorf("%w: unsupported bytecode version %d", ErrBadBundle, version)
	}

	var b Bundle
	dec := gob.NewDecoder(bytes.NewReader(data[len(bundleMagic)+1:]))
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks that every instruction and operand is well formed.
func (b *Bundle) Validate() error {
	if len(b.Code) != len(b.Lines) {
		return fmt.Errorf("%w: %d code bytes but %d line entries", ErrBadBundle, len(b.Code), len(b.Lines))
	}
	if len(b.Constants) > config.MaxConstants {
		return fmt.Errorf("%w: %d constants", ErrBadBundle, len(b.Constants))
	}

	for offset := 0; offset < len(b.Code); {
		op := Opcode(b.Code[offset])
		if _, ok := OpcodeNames[op]; !ok {
			return fmt.Errorf("%w: unknown opcode %d at %04d", ErrBadBundle, byte(op), offset)
		}
		width := op.operandWidth()
		if offset+width >= len(b.Code) && width > 0 {
			return fmt.Errorf("%w: truncated %s at %04d", ErrBadBundle, op, offset)
		}
		if width == 1 {
			idx := int(b.Code[offset+1])
			if idx >= len(b.Constants) {
				return fmt.Errorf("%w: %s at %04d refers to constant %d", ErrBadBundle, op, offset, idx)
			}
			if op != OP_CONST && b.Constants[idx].Kind != ConstString {
				return fmt.Errorf("%w: %s at %04d needs a string name", ErrBadBundle, op, offset)
			}
		}
		offset += 1 + width
	}
	return nil
}

// Load rebuilds a script function in heap, interning its strings.
func (b *Bundle) Load(heap *Heap) (*ObjFunction, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	fn := heap.NewFunction()
	unpin := heap.Pin(rootFunc(func(m *Marker) { m.MarkObject(fn) }))
	defer unpin()

	chunk := fn.Chunk
	chunk.Code = append(chunk.Code, b.Code...)
	chunk.Lines = append(chunk.Lines, b.Lines...)
	for _, c := range b.Constants {
		switch c.Kind {
		case ConstNil:
			chunk.AddConstant(NilVal())
		case ConstBool:
			chunk.AddConstant(BoolVal(c.Bool))
		case ConstNumber:
			chunk.AddConstant(NumberVal(c.Number))
		case ConstString:
			chunk.AddConstant(ObjVal(heap.CopyString(c.String)))
		default:
			return nil, fmt.Errorf("%w: unknown constant kind %d", ErrBadBundle, c.Kind)
		}
	}
	return fn, nil
}

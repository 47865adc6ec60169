package config

import "strings"

// Version is reported by `loxide --version`.
// Can be overridden at build time using: -ldflags "-X github.com/funvibe/loxide/internal/config.Version=..."
var Version = "0.3.0"

const SourceFileExt = ".lox"

// BytecodeFileExt is the extension of serialized bundles written by `loxide -c`.
const BytecodeFileExt = ".loxc"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".lox"}

// ConfigFileNames are probed (in order) by Find in every directory.
var ConfigFileNames = []string{"loxide.yaml", "loxide.yml"}

// Bytecode format limits
const (
	// MaxConstants is the constant pool size of a single chunk.
	// Constant operands are encoded in one byte.
	MaxConstants = 256
)

// Process exit codes (sysexits.h)
const (
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
	ExitIOError      = 74
)

// Built-in native function names
const (
	ClockFuncName = "clock"
)

// TrimSourceExt removes a recognized source extension from path.
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

//go:build unchecked

package vm

const checkedNarrow = false

//go:build !unchecked

package vm

// checkedNarrow makes Narrow verify the runtime tag before converting.
const checkedNarrow = true

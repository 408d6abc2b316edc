//go:build !permbypass

package access

const bypass = false

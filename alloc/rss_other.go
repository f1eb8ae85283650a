//go:build !linux

package alloc

// RSS returns the memory obtained from the OS by the Go runtime. It is used
// where the resident set size is not available.
func RSS() uintptr {
	return runtimeRSS()
}

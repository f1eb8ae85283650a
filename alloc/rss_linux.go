//go:build linux

package alloc

import (
	"bytes"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// RSS returns the resident set size of the process, read from /proc.
func RSS() uintptr {
	buf, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return runtimeRSS()
	}

	fields := bytes.Fields(buf)
	if len(fields) < 2 {
		return runtimeRSS()
	}

	pages, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return runtimeRSS()
	}

	return uintptr(pages) * uintptr(unix.Getpagesize())
}

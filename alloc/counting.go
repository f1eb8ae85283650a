package alloc

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/EinfachAndy/rehashmap/shared"
)

// wordSize is the granularity allocations are accounted in.
const wordSize = 8

// OOMHandler is called with the size of a request that exceeds the limit.
type OOMHandler func(size uintptr)

var oomHandler atomic.Pointer[OOMHandler]

func defaultOOMHandler(size uintptr) {
	shared.Fatal(&shared.FatalError{
		Kind: shared.OutOfMemory,
		Msg:  fmt.Sprintf("trying to allocate %d bytes", size),
	})
}

// SetOOMHandler installs fn as the process wide out of memory handler and
// returns the previous one. A nil fn restores the default, which raises a
// shared.OutOfMemory fatal error.
func SetOOMHandler(fn OOMHandler) OOMHandler {
	if fn == nil {
		fn = defaultOOMHandler
	}
	prev := oomHandler.Swap(&fn)
	if prev == nil {
		return defaultOOMHandler
	}
	return *prev
}

func outOfMemory(size uintptr) {
	if fn := oomHandler.Load(); fn != nil {
		(*fn)(size)
		return
	}
	defaultOOMHandler(size)
}

// Counting is an Allocator that tracks the used memory and enforces an
// optional limit. It is safe for concurrent use.
type Counting struct {
	_     cpu.CacheLinePad
	used  atomic.Uint64
	_     cpu.CacheLinePad
	limit atomic.Uint64
}

// Default is the allocator used by data structures that were not given one.
var Default = NewCounting(0)

// NewCounting returns an allocator limited to limit bytes, 0 means unlimited.
func NewCounting(limit uintptr) *Counting {
	c := &Counting{}
	c.limit.Store(uint64(limit))
	return c
}

func roundUp(size uintptr) uint64 {
	n := uint64(size)
	if rem := n & (wordSize - 1); rem != 0 {
		n += wordSize - rem
	}
	return n
}

func (c *Counting) charge(size uintptr) {
	n := roundUp(size)
	used := c.used.Add(n)
	if limit := c.limit.Load(); limit != 0 && used > limit {
		outOfMemory(size)
	}
}

// Allocate implements Allocator.
func (c *Counting) Allocate(size uintptr) {
	c.charge(size)
}

// AllocateZeroed implements Allocator.
func (c *Counting) AllocateZeroed(size uintptr) {
	c.charge(size)
}

// Release implements Allocator.
func (c *Counting) Release(size uintptr) {
	c.used.Add(^(roundUp(size) - 1))
}

// Used returns the number of bytes currently charged.
func (c *Counting) Used() uintptr {
	return uintptr(c.used.Load())
}

// SetLimit changes the limit, 0 means unlimited. Memory already charged is
// not checked against the new limit.
func (c *Counting) SetLimit(limit uintptr) {
	c.limit.Store(uint64(limit))
}

// Limit returns the current limit.
func (c *Counting) Limit() uintptr {
	return uintptr(c.limit.Load())
}

// FragmentationRatio returns rss divided by the used memory of c.
func (c *Counting) FragmentationRatio(rss uintptr) float64 {
	used := c.Used()
	if used == 0 {
		return 0
	}
	return float64(rss) / float64(used)
}

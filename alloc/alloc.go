// Package alloc accounts for the memory handed out to data structures.
//
// Go memory is owned by the garbage collector, so an Allocator does not
// produce memory itself: it is charged before an object is made and refunded
// when the object is dropped. The typed helpers in this package do both
// steps. An allocator that cannot grant a charge must call its out of memory
// handler instead of returning silently.
package alloc

import (
	"unsafe"
)

// Allocator is charged for every object a data structure allocates.
type Allocator interface {
	// Allocate charges size bytes whose contents the caller initializes.
	Allocate(size uintptr)
	// AllocateZeroed charges size bytes that are handed out zeroed.
	AllocateZeroed(size uintptr)
	// Release refunds size bytes charged before.
	Release(size uintptr)
}

// New charges a for one T and returns a pointer to a new T.
func New[T any](a Allocator) *T {
	var zero T
	a.Allocate(unsafe.Sizeof(zero))
	return new(T)
}

// Free refunds the memory of one T to a. p must not be used afterwards.
func Free[T any](a Allocator, p *T) {
	if p != nil {
		a.Release(unsafe.Sizeof(*p))
	}
}

// MakeZeroed charges a for n zeroed elements and returns the slice.
func MakeZeroed[T any](a Allocator, n int) []T {
	var zero T
	a.AllocateZeroed(uintptr(n) * unsafe.Sizeof(zero))
	return make([]T, n)
}

// FreeSlice refunds the memory of s to a.
func FreeSlice[T any](a Allocator, s []T) {
	var zero T
	a.Release(uintptr(cap(s)) * unsafe.Sizeof(zero))
}

// Strdup returns a copy of s charged to a.
func Strdup(a Allocator, s string) string {
	a.Allocate(uintptr(len(s)))
	b := make([]byte, len(s))
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// FreeString refunds a string made by Strdup.
func FreeString(a Allocator, s string) {
	a.Release(uintptr(len(s)))
}

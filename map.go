// Package rehashmap implements a chained hash map that grows and shrinks
// by incremental rehashing. The full dictionary lives in package dict, this
// package offers the plain map view on top of it.
package rehashmap

import (
	"github.com/EinfachAndy/rehashmap/dict"
	"github.com/EinfachAndy/rehashmap/shared"
)

// IHashMap collects the basic hash maps operations as function points.
type IHashMap[K comparable, V any] struct {
	Get     func(key K) (V, bool)
	Reserve func(n uintptr)
	Load    func() float32
	Put     func(key K, val V) bool
	Remove  func(key K) bool
	Clear   func()
	Size    func() int
	Each    func(fn func(key K, val V) bool)
}

// Map is a hash map for comparable keys backed by a dict.Dict. Keys and
// values are stored by value, nothing is duplicated or destroyed.
type Map[K comparable, V any] struct {
	d *dict.Dict[K, V]
}

// New creates a ready to use map with the default hasher of K.
func New[K comparable, V any](opts ...dict.Option) *Map[K, V] {
	return NewWithHasher[K, V](shared.GetHasher[K](), opts...)
}

// NewWithHasher same as `New` but with a given hash function.
func NewWithHasher[K comparable, V any](hasher shared.HashFn[K], opts ...dict.Option) *Map[K, V] {
	return &Map[K, V]{
		d: dict.New[K, V](dict.NewType[K, V](hasher), nil, opts...),
	}
}

// Dict returns the underlying dictionary.
func (m *Map[K, V]) Dict() *dict.Dict[K, V] {
	return m.d
}

// Get returns the value stored for this key, or false if not found.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.d.FetchValue(key)
}

// Put maps the given key to the given value. If the key already exists its
// value will be overwritten with the new value.
// Returns true, if the element is a new item in the hash map.
func (m *Map[K, V]) Put(key K, val V) bool {
	return m.d.Replace(key, val)
}

// Remove removes the specified key-value pair from the map.
// Returns true, if the element was in the hash map.
func (m *Map[K, V]) Remove(key K) bool {
	return m.d.Delete(key) == nil
}

// Reserve sets the number of buckets to the most appropriate to contain at least n elements.
// If n is lower than that, the function may have no effect. A running
// rehash is finished first.
func (m *Map[K, V]) Reserve(n uintptr) {
	for m.d.Rehash(100) {
	}
	if uintptr(m.d.Slots()) < shared.TableSize(n) {
		_ = m.d.Expand(n)
	}
}

// Clear removes all key-value pairs from the map.
func (m *Map[K, V]) Clear() {
	m.d.Empty(nil)
}

// Size returns the number of items in the map.
func (m *Map[K, V]) Size() int {
	return m.d.Size()
}

// Load return the current load of the hash map.
func (m *Map[K, V]) Load() float32 {
	return m.d.Load()
}

// Each calls 'fn' on every key-value pair in the hash map in no particular order.
// If 'fn' returns true, the iteration stops. fn may remove keys.
func (m *Map[K, V]) Each(fn func(key K, val V) bool) {
	m.d.Each(fn)
}

// View returns the function pointer view of m.
func (m *Map[K, V]) View() IHashMap[K, V] {
	return IHashMap[K, V]{
		Get:     m.Get,
		Reserve: m.Reserve,
		Load:    m.Load,
		Put:     m.Put,
		Remove:  m.Remove,
		Clear:   m.Clear,
		Size:    m.Size,
		Each:    m.Each,
	}
}

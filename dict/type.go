package dict

import (
	"github.com/EinfachAndy/rehashmap/alloc"
	"github.com/EinfachAndy/rehashmap/shared"
)

// Type tells a Dict how to hash, compare, copy and destroy its keys and
// values. privdata is the value the Dict was created with.
type Type[K comparable, V any] interface {
	Hash(key K) uintptr
	KeyEqual(privdata any, a, b K) bool
	KeyDup(privdata any, key K) K
	ValDup(privdata any, val V) V
	KeyDestroy(privdata any, key K)
	ValDestroy(privdata any, val V)
}

// BaseType implements Type with the given hasher, == comparison, shallow
// copies and no-op destructors. Embed it to override single operations.
type BaseType[K comparable, V any] struct {
	Hasher shared.HashFn[K]
}

// NewType returns a BaseType using hasher.
func NewType[K comparable, V any](hasher shared.HashFn[K]) BaseType[K, V] {
	return BaseType[K, V]{Hasher: hasher}
}

func (t BaseType[K, V]) Hash(key K) uintptr { return t.Hasher(key) }

func (BaseType[K, V]) KeyEqual(_ any, a, b K) bool { return a == b }

func (BaseType[K, V]) KeyDup(_ any, key K) K { return key }

func (BaseType[K, V]) ValDup(_ any, val V) V { return val }

func (BaseType[K, V]) KeyDestroy(any, K) {}

func (BaseType[K, V]) ValDestroy(any, V) {}

// StringCopyKeyType copies keys into memory charged to Alloc on insert and
// refunds it on delete. Values are stored as given.
type StringCopyKeyType[V any] struct {
	BaseType[string, V]
	Alloc alloc.Allocator
}

// NewStringCopyKeyType returns a StringCopyKeyType hashing with GenHash.
func NewStringCopyKeyType[V any](a alloc.Allocator) *StringCopyKeyType[V] {
	return &StringCopyKeyType[V]{
		BaseType: NewType[string, V](shared.GenHashString),
		Alloc:    a,
	}
}

func (t *StringCopyKeyType[V]) KeyDup(_ any, key string) string {
	return alloc.Strdup(t.Alloc, key)
}

func (t *StringCopyKeyType[V]) KeyDestroy(_ any, key string) {
	alloc.FreeString(t.Alloc, key)
}

// HeapStringsType takes ownership of keys and values that were made with
// alloc.Strdup and refunds them when they leave the dictionary.
type HeapStringsType struct {
	BaseType[string, string]
	Alloc alloc.Allocator
}

// NewHeapStringsType returns a HeapStringsType hashing with GenHash.
func NewHeapStringsType(a alloc.Allocator) *HeapStringsType {
	return &HeapStringsType{
		BaseType: NewType[string, string](shared.GenHashString),
		Alloc:    a,
	}
}

func (t *HeapStringsType) KeyDestroy(_ any, key string) {
	alloc.FreeString(t.Alloc, key)
}

func (t *HeapStringsType) ValDestroy(_ any, val string) {
	alloc.FreeString(t.Alloc, val)
}

// StringCopyKeyValueType copies keys and values on insert and refunds both
// when they leave the dictionary.
type StringCopyKeyValueType struct {
	HeapStringsType
}

// NewStringCopyKeyValueType returns a StringCopyKeyValueType hashing with GenHash.
func NewStringCopyKeyValueType(a alloc.Allocator) *StringCopyKeyValueType {
	return &StringCopyKeyValueType{HeapStringsType: *NewHeapStringsType(a)}
}

func (t *StringCopyKeyValueType) KeyDup(_ any, key string) string {
	return alloc.Strdup(t.Alloc, key)
}

func (t *StringCopyKeyValueType) ValDup(_ any, val string) string {
	return alloc.Strdup(t.Alloc, val)
}

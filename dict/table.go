package dict

// table is an array of entry chains. size is zero or a power of two.
type table[K comparable, V any] struct {
	buckets []*Entry[K, V]
	size    uintptr
	// sizemask is used for a bitwise AND on the hash value,
	// because the size of the underlying array is a power of two value
	sizemask uintptr
	// used stores the number of entries linked into the table
	used uintptr
}

func (t *table[K, V]) reset() {
	*t = table[K, V]{}
}

//go:inline
func pushFront[K comparable, V any](head **Entry[K, V], e *Entry[K, V]) {
	e.next = *head
	*head = e
}

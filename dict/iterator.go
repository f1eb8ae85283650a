package dict

import (
	"unsafe"

	"github.com/EinfachAndy/rehashmap/shared"
)

// Iterator walks all entries of a Dict: bucket by bucket in ascending order,
// each chain from its most recent entry, the old table before the new one.
//
// A safe iterator suspends incremental rehashing while it is live and lets
// the caller delete the entry it just returned. An unsafe iterator allows no
// mutation at all: Release raises a shared.IteratorMisuse fatal error if the
// dictionary changed in between.
type Iterator[K comparable, V any] struct {
	d           *Dict[K, V]
	table       int
	index       int
	safe        bool
	entry       *Entry[K, V]
	nextEntry   *Entry[K, V]
	fingerprint uint64
}

// Iterator returns an unsafe iterator over d.
func (d *Dict[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{
		d:           d,
		index:       -1,
		fingerprint: d.fingerprint(),
	}
}

// SafeIterator returns a safe iterator over d.
func (d *Dict[K, V]) SafeIterator() *Iterator[K, V] {
	d.iterators++
	return &Iterator[K, V]{
		d:     d,
		index: -1,
		safe:  true,
	}
}

// Next returns the next entry, or nil when the iteration is done.
func (it *Iterator[K, V]) Next() *Entry[K, V] {
	for {
		if it.entry == nil {
			ht := &it.d.ht[it.table]
			it.index++
			if it.index >= int(ht.size) {
				if !it.d.IsRehashing() || it.table != 0 {
					return nil
				}
				it.table++
				it.index = 0
				ht = &it.d.ht[1]
			}
			it.entry = ht.buckets[it.index]
		} else {
			it.entry = it.nextEntry
		}

		if it.entry != nil {
			// the caller of a safe iterator may delete the returned entry
			it.nextEntry = it.entry.next
			return it.entry
		}
	}
}

// Release ends the iteration.
func (it *Iterator[K, V]) Release() {
	if it.safe {
		it.d.iterators--
		return
	}

	if it.fingerprint != it.d.fingerprint() {
		shared.Fatal(&shared.FatalError{
			Kind: shared.IteratorMisuse,
			Msg:  "dictionary modified during unsafe iteration",
		})
	}
}

// Each calls 'fn' on every key-value pair in the dictionary in no particular order.
// If 'fn' returns true, the iteration stops. fn may delete the key it was called with.
func (d *Dict[K, V]) Each(fn func(key K, val V) bool) {
	it := d.SafeIterator()
	defer it.Release()

	for e := it.Next(); e != nil; e = it.Next() {
		if stop := fn(e.key, e.val); stop {
			// stop iteration
			return
		}
	}
}

// fingerprint mixes identity, size and used count of both tables into one
// value. Any insert, delete or rehash step changes it.
func (d *Dict[K, V]) fingerprint() uint64 {
	integers := [6]uint64{
		uint64(uintptr(unsafe.Pointer(unsafe.SliceData(d.ht[0].buckets)))),
		uint64(d.ht[0].size),
		uint64(d.ht[0].used),
		uint64(uintptr(unsafe.Pointer(unsafe.SliceData(d.ht[1].buckets)))),
		uint64(d.ht[1].size),
		uint64(d.ht[1].used),
	}

	// Thomas Wang's 64 bit integer hash, applied to the running sum, so the
	// order of the inputs matters.
	var hash uint64
	for _, v := range integers {
		hash += v
		hash = (^hash) + (hash << 21) // hash = (hash << 21) - hash - 1
		hash ^= hash >> 24
		hash = (hash + (hash << 3)) + (hash << 8) // hash * 265
		hash ^= hash >> 14
		hash = (hash + (hash << 2)) + (hash << 4) // hash * 21
		hash ^= hash >> 28
		hash += hash << 31
	}

	return hash
}

package dict

import "github.com/EinfachAndy/rehashmap/shared"

// ScanFunc is called by Scan for every visited entry.
type ScanFunc[K comparable, V any] func(e *Entry[K, V])

func scanBucket[K comparable, V any](head *Entry[K, V], fn ScanFunc[K, V]) {
	for current := head; current != nil; {
		e := current
		current = current.next
		fn(e)
	}
}

// Scan visits the bucket(s) addressed by cursor and returns the cursor of
// the next call. A traversal starts with cursor 0 and is done when 0 is
// returned. Every entry present during the whole traversal is visited at
// least once, even if the dictionary grows or shrinks in between; entries
// may be visited more than once.
//
// The cursor is incremented in reverse bit order: the high bits are
// counted, so all buckets sharing the current low bits are done before
// moving on. A table of twice or half the size maps those buckets onto
// buckets that share the same low bits, which keeps the already visited
// ones behind the cursor.
func (d *Dict[K, V]) Scan(cursor uintptr, fn ScanFunc[K, V]) uintptr {
	if d.Size() == 0 {
		return 0
	}

	var m0 uintptr
	if !d.IsRehashing() {
		t0 := &d.ht[0]
		m0 = t0.sizemask
		scanBucket(t0.buckets[cursor&m0], fn)
	} else {
		t0, t1 := &d.ht[0], &d.ht[1]
		// make sure t0 is the smaller and t1 the bigger table
		if t0.size > t1.size {
			t0, t1 = t1, t0
		}
		m0 = t0.sizemask
		m1 := t1.sizemask

		scanBucket(t0.buckets[cursor&m0], fn)

		// visit every bucket of the bigger table that is an expansion of
		// the bucket of the smaller one
		for {
			scanBucket(t1.buckets[cursor&m1], fn)

			// increment the bits not covered by the smaller mask
			cursor = (((cursor | m0) + 1) &^ m0) | (cursor & m0)
			if cursor&(m0^m1) == 0 {
				break
			}
		}
	}

	// set the unmasked bits so incrementing the reversed cursor operates
	// on the masked bits only
	cursor |= ^m0
	cursor = shared.Rev(cursor)
	cursor++
	cursor = shared.Rev(cursor)

	return cursor
}

package dict

import (
	"math/rand"

	"github.com/EinfachAndy/rehashmap/shared"
)

// RandomKey returns a random entry, or nil if the dictionary is empty. A
// non-empty bucket is picked uniformly over both tables, then an entry
// uniformly within its chain, so entries in long chains are less likely.
func (d *Dict[K, V]) RandomKey() *Entry[K, V] {
	if d.Size() == 0 {
		return nil
	}
	if d.IsRehashing() {
		d.rehashStep()
	}

	var he *Entry[K, V]
	if d.IsRehashing() {
		// buckets of ht[0] below rehashIdx are empty and get skipped
		slots := int64(d.ht[0].size + d.ht[1].size)
		for he == nil {
			h := uintptr(rand.Int63n(slots))
			if h >= d.ht[0].size {
				he = d.ht[1].buckets[h-d.ht[0].size]
			} else {
				he = d.ht[0].buckets[h]
			}
		}
	} else {
		for he == nil {
			h := uintptr(rand.Uint64()) & d.ht[0].sizemask
			he = d.ht[0].buckets[h]
		}
	}

	listlen := 0
	for current := he; current != nil; current = current.next {
		listlen++
	}
	for listele := rand.Intn(listlen); listele > 0; listele-- {
		he = he.next
	}

	return he
}

// RandomKeys returns up to count distinct entries, fewer only if the
// dictionary holds fewer. It starts at a random bucket and collects whole
// chains of consecutive buckets, wrapping around, first in the smaller and
// then in the larger table. That is much faster than count calls of
// RandomKey but the entries are not uniformly distributed.
func (d *Dict[K, V]) RandomKeys(count int) []*Entry[K, V] {
	count = shared.Min(count, d.Size())
	if count <= 0 {
		return nil
	}

	tables := []*table[K, V]{&d.ht[0]}
	if d.IsRehashing() {
		if d.ht[0].size <= d.ht[1].size {
			tables = append(tables, &d.ht[1])
		} else {
			tables = []*table[K, V]{&d.ht[1], &d.ht[0]}
		}
	}

	des := make([]*Entry[K, V], 0, count)
	// every bucket of every table is visited at most once, and an entry is
	// linked into exactly one of them, so nothing is collected twice
	for _, t := range tables {
		i := uintptr(rand.Uint64()) & t.sizemask
		for n := t.size; n > 0; n-- {
			for current := t.buckets[i]; current != nil; current = current.next {
				des = append(des, current)
				if len(des) == count {
					return des
				}
			}
			i = (i + 1) & t.sizemask
		}
	}

	return des
}

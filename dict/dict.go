// Package dict implements a chained hash table that grows and shrinks by
// incremental rehashing.
//
// A Dict owns two tables. When a resize is needed a second table is
// allocated and every following operation moves one bucket from the old
// table to the new one, until the old table is empty and gets dropped. So no
// single call pays for copying the whole table.
//
// A Dict is not safe for concurrent use.
package dict

import (
	"fmt"
	"time"

	"github.com/EinfachAndy/rehashmap/alloc"
	"github.com/EinfachAndy/rehashmap/shared"
)

// emptyCallbackInterval is the number of buckets Empty visits between two
// calls of its callback.
const emptyCallbackInterval = 65536

// Dict is a hash table with incremental rehashing, see the package doc.
type Dict[K comparable, V any] struct {
	typ      Type[K, V]
	privdata any
	ht       [2]table[K, V]
	// rehashIdx is the next bucket of ht[0] to migrate, -1 if not rehashing.
	rehashIdx int
	// iterators counts the live safe iterators.
	iterators int

	alloc  alloc.Allocator
	config *shared.Config
}

type settings struct {
	alloc  alloc.Allocator
	config *shared.Config
}

// Option configures a Dict at creation.
type Option func(*settings)

// WithAllocator charges the memory of the Dict to a instead of alloc.Default.
func WithAllocator(a alloc.Allocator) Option {
	return func(s *settings) {
		s.alloc = a
	}
}

// WithConfig makes the Dict consult c instead of shared.Global().
func WithConfig(c *shared.Config) Option {
	return func(s *settings) {
		s.config = c
	}
}

// New creates an empty dictionary. No table is allocated before the first
// insert. privdata is passed to every call of typ.
func New[K comparable, V any](typ Type[K, V], privdata any, opts ...Option) *Dict[K, V] {
	s := settings{
		alloc:  alloc.Default,
		config: shared.Global(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	d := alloc.New[Dict[K, V]](s.alloc)
	d.typ = typ
	d.privdata = privdata
	d.rehashIdx = -1
	d.alloc = s.alloc
	d.config = s.config

	return d
}

// IsRehashing reports whether entries are being moved to a new table.
func (d *Dict[K, V]) IsRehashing() bool {
	return d.rehashIdx != -1
}

// RehashIndex returns the next bucket waiting for migration, or -1.
func (d *Dict[K, V]) RehashIndex() int {
	return d.rehashIdx
}

// Size returns the number of items in the map.
func (d *Dict[K, V]) Size() int {
	return int(d.ht[0].used + d.ht[1].used)
}

// Slots returns the number of buckets of both tables.
func (d *Dict[K, V]) Slots() int {
	return int(d.ht[0].size + d.ht[1].size)
}

// Load return the current load of the hash map.
func (d *Dict[K, V]) Load() float32 {
	if d.Slots() == 0 {
		return 0
	}
	return float32(d.Size()) / float32(d.Slots())
}

// SetKey stores a copy of key, made by the type's KeyDup, in e.
func (d *Dict[K, V]) SetKey(e *Entry[K, V], key K) {
	e.key = d.typ.KeyDup(d.privdata, key)
}

// SetValue stores a copy of val, made by the type's ValDup, in e. A value
// stored before is not destroyed.
func (d *Dict[K, V]) SetValue(e *Entry[K, V], val V) {
	e.val = d.typ.ValDup(d.privdata, val)
	e.num = 0
	e.kind = kindValue
}

func (d *Dict[K, V]) freeKey(e *Entry[K, V]) {
	d.typ.KeyDestroy(d.privdata, e.key)
}

func (d *Dict[K, V]) freeVal(e *Entry[K, V]) {
	if e.kind == kindValue {
		d.typ.ValDestroy(d.privdata, e.val)
	}
}

//go:inline
func (d *Dict[K, V]) compareKeys(a, b K) bool {
	return d.typ.KeyEqual(d.privdata, a, b)
}

// Resize shrinks or grows the table to the smallest size that holds all
// elements with a load of at most one.
func (d *Dict[K, V]) Resize() error {
	if !d.config.CanResize() {
		return fmt.Errorf("resizing disabled: %w", shared.ErrInvalidResize)
	}
	if d.IsRehashing() {
		return fmt.Errorf("rehashing in progress: %w", shared.ErrInvalidResize)
	}

	return d.Expand(shared.Max(d.ht[0].used, shared.DefaultSize))
}

// Expand allocates a table of at least size buckets. If the dictionary has
// no table yet, it becomes the table, otherwise rehashing into it starts.
func (d *Dict[K, V]) Expand(size uintptr) error {
	if d.IsRehashing() {
		return fmt.Errorf("expand to %d while rehashing: %w", size, shared.ErrInvalidResize)
	}
	if d.ht[0].used > size {
		return fmt.Errorf("expand to %d below %d elements: %w", size, d.ht[0].used, shared.ErrInvalidResize)
	}

	realsize := shared.TableSize(size)
	n := table[K, V]{
		buckets:  alloc.MakeZeroed[*Entry[K, V]](d.alloc, int(realsize)),
		size:     realsize,
		sizemask: realsize - 1,
	}

	if d.ht[0].buckets == nil {
		d.ht[0] = n
		return nil
	}

	shared.Logger().Debug().
		Uint64("from", uint64(d.ht[0].size)).
		Uint64("to", uint64(realsize)).
		Uint64("used", uint64(d.ht[0].used)).
		Msg("start rehashing")

	d.ht[1] = n
	d.rehashIdx = 0
	return nil
}

// rehashCompleted drops the drained old table and makes the new table the
// only one.
func (d *Dict[K, V]) rehashCompleted() bool {
	if d.ht[0].used != 0 {
		return false
	}

	alloc.FreeSlice(d.alloc, d.ht[0].buckets)
	d.ht[0] = d.ht[1]
	d.ht[1].reset()
	d.rehashIdx = -1

	shared.Logger().Debug().
		Uint64("size", uint64(d.ht[0].size)).
		Uint64("used", uint64(d.ht[0].used)).
		Msg("rehashing completed")

	return true
}

// Rehash moves up to n non-empty buckets to the new table. It returns true
// while there are entries left to move.
func (d *Dict[K, V]) Rehash(n int) bool {
	if !d.IsRehashing() {
		return false
	}

	for ; n > 0; n-- {
		if d.rehashCompleted() {
			return false
		}

		old, dst := &d.ht[0], &d.ht[1]
		// used > 0 guarantees a non-empty bucket at or after rehashIdx
		for old.buckets[d.rehashIdx] == nil {
			d.rehashIdx++
		}

		for current := old.buckets[d.rehashIdx]; current != nil; {
			e := current
			current = current.next

			idx := d.typ.Hash(e.key) & dst.sizemask
			pushFront(&dst.buckets[idx], e)
			old.used--
			dst.used++
		}
		old.buckets[d.rehashIdx] = nil
		d.rehashIdx++
	}

	return !d.rehashCompleted()
}

// RehashMilliseconds rehashes in steps of 100 buckets until rehashing is
// done or more than ms milliseconds passed. It returns the number of buckets
// moved by the steps that left work behind.
func (d *Dict[K, V]) RehashMilliseconds(ms int64) int {
	var (
		start    = time.Now()
		budget   = time.Duration(ms) * time.Millisecond
		rehashes int
	)

	for d.Rehash(100) {
		rehashes += 100
		if time.Since(start) > budget {
			break
		}
	}

	return rehashes
}

// rehashStep moves a single bucket, unless a safe iterator is live.
func (d *Dict[K, V]) rehashStep() {
	if d.iterators == 0 {
		d.Rehash(1)
	}
}

// expandIfNeeded grows the table when its load reached one and resizing is
// enabled, or when the load exceeds the forced ratio.
func (d *Dict[K, V]) expandIfNeeded() {
	if d.IsRehashing() {
		return
	}

	var err error
	t := &d.ht[0]
	switch {
	case t.size == 0:
		err = d.Expand(shared.DefaultSize)
	case t.used >= t.size && d.config.CanResize(),
		t.used/t.size > d.config.ForceResizeRatio():
		err = d.Expand(2 * t.used)
	}

	// a chain takes another entry without growing, so the insert goes on
	if err != nil {
		shared.Logger().Warn().Err(err).Msg("expand failed")
	}
}

// keyIndex returns the bucket of the table a new key goes into, together
// with the entry already holding key, if any.
func (d *Dict[K, V]) keyIndex(key K) (uintptr, *Entry[K, V]) {
	d.expandIfNeeded()

	var (
		h   = d.typ.Hash(key)
		idx uintptr
	)
	for tbl := 0; tbl <= 1; tbl++ {
		idx = h & d.ht[tbl].sizemask
		for current := d.ht[tbl].buckets[idx]; current != nil; current = current.next {
			if d.compareKeys(key, current.key) {
				return idx, current
			}
		}
		if !d.IsRehashing() {
			break
		}
	}

	return idx, nil
}

// addRaw links a new entry for key, or returns the existing one.
func (d *Dict[K, V]) addRaw(key K) (entry, existing *Entry[K, V]) {
	if d.IsRehashing() {
		d.rehashStep()
	}

	idx, existing := d.keyIndex(key)
	if existing != nil {
		return nil, existing
	}

	t := &d.ht[0]
	if d.IsRehashing() {
		t = &d.ht[1]
	}

	entry = alloc.New[Entry[K, V]](d.alloc)
	pushFront(&t.buckets[idx], entry)
	t.used++
	d.SetKey(entry, key)

	return entry, nil
}

// AddRaw inserts key without a value and returns the new entry for the
// caller to fill, or shared.ErrKeyExists.
func (d *Dict[K, V]) AddRaw(key K) (*Entry[K, V], error) {
	entry, _ := d.addRaw(key)
	if entry == nil {
		return nil, shared.ErrKeyExists
	}
	return entry, nil
}

// Add inserts key with val, or returns shared.ErrKeyExists.
func (d *Dict[K, V]) Add(key K, val V) error {
	entry, err := d.AddRaw(key)
	if err != nil {
		return err
	}
	d.SetValue(entry, val)
	return nil
}

// Replace maps the given key to the given value. If the key already exists
// its old value is destroyed after the new one is set.
// Returns true, if the element is a new item in the dictionary.
func (d *Dict[K, V]) Replace(key K, val V) bool {
	entry, existing := d.addRaw(key)
	if entry != nil {
		d.SetValue(entry, val)
		return true
	}

	// set the new value before destroying the old one, they may be the same
	aux := *existing
	d.SetValue(existing, val)
	d.freeVal(&aux)

	return false
}

// ReplaceRaw returns the entry of key, adding it if it is missing.
func (d *Dict[K, V]) ReplaceRaw(key K) *Entry[K, V] {
	entry, existing := d.addRaw(key)
	if existing != nil {
		return existing
	}
	return entry
}

// Find returns the entry of key or nil.
func (d *Dict[K, V]) Find(key K) *Entry[K, V] {
	if d.ht[0].size == 0 {
		return nil
	}
	if d.IsRehashing() {
		d.rehashStep()
	}

	h := d.typ.Hash(key)
	for tbl := 0; tbl <= 1; tbl++ {
		idx := h & d.ht[tbl].sizemask
		for current := d.ht[tbl].buckets[idx]; current != nil; current = current.next {
			if d.compareKeys(key, current.key) {
				return current
			}
		}
		if !d.IsRehashing() {
			return nil
		}
	}

	return nil
}

// FetchValue returns the value stored for this key, or false if not found.
func (d *Dict[K, V]) FetchValue(key K) (V, bool) {
	if e := d.Find(key); e != nil {
		return e.val, true
	}

	var v V
	return v, false
}

func (d *Dict[K, V]) genericDelete(key K, nofree bool) error {
	if d.ht[0].size == 0 {
		return shared.ErrKeyNotFound
	}
	if d.IsRehashing() {
		d.rehashStep()
	}

	h := d.typ.Hash(key)
	for tbl := 0; tbl <= 1; tbl++ {
		var (
			t    = &d.ht[tbl]
			idx  = h & t.sizemask
			prev *Entry[K, V]
		)
		for current := t.buckets[idx]; current != nil; current = current.next {
			if !d.compareKeys(key, current.key) {
				prev = current
				continue
			}

			// unlink
			if prev != nil {
				prev.next = current.next
			} else {
				t.buckets[idx] = current.next
			}
			if !nofree {
				d.freeKey(current)
				d.freeVal(current)
			}
			alloc.Free(d.alloc, current)
			t.used--

			return nil
		}
		if !d.IsRehashing() {
			break
		}
	}

	return shared.ErrKeyNotFound
}

// Delete removes key and destroys its key and value, or returns
// shared.ErrKeyNotFound.
func (d *Dict[K, V]) Delete(key K) error {
	return d.genericDelete(key, false)
}

// DeleteNoFree removes key without calling the destructors, or returns
// shared.ErrKeyNotFound.
func (d *Dict[K, V]) DeleteNoFree(key K) error {
	return d.genericDelete(key, true)
}

// clear destroys every entry of t and drops its buckets. callback is called
// with the private data once per emptyCallbackInterval buckets.
func (d *Dict[K, V]) clear(t *table[K, V], callback func(privdata any)) {
	for i := uintptr(0); i < t.size && t.used > 0; i++ {
		if callback != nil && i%emptyCallbackInterval == 0 {
			callback(d.privdata)
		}

		for current := t.buckets[i]; current != nil; {
			e := current
			current = current.next

			d.freeKey(e)
			d.freeVal(e)
			alloc.Free(d.alloc, e)
			t.used--
		}
	}

	alloc.FreeSlice(d.alloc, t.buckets)
	t.reset()
}

// Empty removes all entries and tables. callback, if not nil, is called
// every 65536 buckets, e.g. to serve other work during a long clear.
func (d *Dict[K, V]) Empty(callback func(privdata any)) {
	d.clear(&d.ht[0], callback)
	d.clear(&d.ht[1], callback)
	d.rehashIdx = -1
	d.iterators = 0
}

// Release destroys all entries and refunds the dictionary to its allocator.
// The dictionary must not be used afterwards.
func (d *Dict[K, V]) Release() {
	d.Empty(nil)
	alloc.Free(d.alloc, d)
}

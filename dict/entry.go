package dict

type valueKind uint8

const (
	kindValue valueKind = iota
	kindSigned
	kindUnsigned
)

// Entry is a key value pair stored in a Dict. The value is either a V or a
// 64 bit integer, whichever was set last.
type Entry[K comparable, V any] struct {
	next *Entry[K, V]
	key  K
	val  V
	num  uint64
	kind valueKind
}

// Key returns the key of e.
func (e *Entry[K, V]) Key() K {
	return e.key
}

// Value returns the value of e, or the zero V if an integer is stored.
func (e *Entry[K, V]) Value() V {
	return e.val
}

// IsInteger reports whether e stores an integer instead of a V.
func (e *Entry[K, V]) IsInteger() bool {
	return e.kind != kindValue
}

// SignedInteger returns the stored integer as int64.
func (e *Entry[K, V]) SignedInteger() int64 {
	return int64(e.num)
}

// UnsignedInteger returns the stored integer as uint64.
func (e *Entry[K, V]) UnsignedInteger() uint64 {
	return e.num
}

// SetSignedInteger stores v in e. A V stored before is dropped without
// calling the value destructor.
func (e *Entry[K, V]) SetSignedInteger(v int64) {
	var zero V
	e.val = zero
	e.num = uint64(v)
	e.kind = kindSigned
}

// SetUnsignedInteger stores v in e. A V stored before is dropped without
// calling the value destructor.
func (e *Entry[K, V]) SetUnsignedInteger(v uint64) {
	var zero V
	e.val = zero
	e.num = v
	e.kind = kindUnsigned
}

package shared

import "math/bits"

// Ordered is a constraint that permits any ordered type: any type
// that supports the operators < <= >= >.
type Ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 |
		~string
}

// NextPowerOf2 is a fast computation of 2^x
// see: https://stackoverflow.com/questions/466204/rounding-up-to-next-power-of-2
func NextPowerOf2(i uint64) uint64 {
	i--
	i |= i >> 1
	i |= i >> 2
	i |= i >> 4
	i |= i >> 8
	i |= i >> 16
	i |= i >> 32
	i++
	return i
}

// TableSize returns the table size used for a request of n buckets:
// the next power of two, but at least DefaultSize and at most MaxSize.
func TableSize(n uintptr) uintptr {
	switch {
	case n <= DefaultSize:
		return DefaultSize
	case n > MaxSize:
		return MaxSize
	}
	return uintptr(NextPowerOf2(uint64(n)))
}

// Rev reverses the bits of v.
func Rev(v uintptr) uintptr {
	return uintptr(bits.Reverse(uint(v)))
}

// Max returns the max of a and b.
func Max[T Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min returns the min of a and b.
func Min[T Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

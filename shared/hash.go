package shared

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// HashFn is a function that returns the hash of 't'.
type HashFn[T any] func(t T) uintptr

// GetHasher returns a hasher for the golang default types.
func GetHasher[Key any]() HashFn[Key] {
	var key Key
	kind := reflect.ValueOf(&key).Elem().Type().Kind()

	switch kind {
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		switch unsafe.Sizeof(key) {
		case 4:
			return *(*func(Key) uintptr)(unsafe.Pointer(&hashDword))
		case 8:
			return *(*func(Key) uintptr)(unsafe.Pointer(&hashQword))
		default:
			panic("unsupported integer byte size")
		}

	case reflect.Int8, reflect.Uint8:
		return *(*func(Key) uintptr)(unsafe.Pointer(&hashByte))
	case reflect.Int16, reflect.Uint16:
		return *(*func(Key) uintptr)(unsafe.Pointer(&hashWord))
	case reflect.Int32, reflect.Uint32:
		return *(*func(Key) uintptr)(unsafe.Pointer(&hashDword))
	case reflect.Int64, reflect.Uint64:
		return *(*func(Key) uintptr)(unsafe.Pointer(&hashQword))
	case reflect.String:
		return *(*func(Key) uintptr)(unsafe.Pointer(&XXH3String))

	default:
		panic(fmt.Sprintf("unsupported key type %T of kind %v", key, kind))
	}
}

var hashByte = func(in uint8) uintptr {
	return uintptr(IntHash(uint32(in)))
}

var hashWord = func(in uint16) uintptr {
	return uintptr(IntHash(uint32(in)))
}

var hashDword = func(key uint32) uintptr {
	return uintptr(IntHash(key))
}

// hashQword implements MurmurHash3's 64-bit Finalizer
var hashQword = func(key uint64) uintptr {
	key ^= (key >> 33)
	key *= 0xff51afd7ed558ccd
	key ^= (key >> 33)
	key *= 0xc4ceb9fe1a85ec53
	key ^= (key >> 33)
	return uintptr(key)
}

// IntHash is Thomas Wang's 32 bit mix function.
func IntHash(key uint32) uint32 {
	key += ^(key << 15)
	key ^= (key >> 10)
	key += (key << 3)
	key ^= (key >> 6)
	key += ^(key << 11)
	key ^= (key >> 16)
	return key
}

// IdentityHash returns the key as its own hash.
func IdentityHash(key uint32) uint32 {
	return key
}

// GenHash hashes b with MurmurHash2, seeded by the global config.
func GenHash(b []byte) uint32 {
	return murmurHash2(b, global.HashSeed())
}

// GenHash hashes b with MurmurHash2, seeded by c.
func (c *Config) GenHash(b []byte) uint32 {
	return murmurHash2(b, c.HashSeed())
}

// murmurHash2 is Austin Appleby's MurmurHash2. Input words are always read
// little endian, so the result is the same on every platform.
func murmurHash2(b []byte, seed uint32) uint32 {
	const (
		m = 0x5bd1e995
		r = 24
	)
	h := seed ^ uint32(len(b))

	for len(b) >= 4 {
		k := binary.LittleEndian.Uint32(b)
		k *= m
		k ^= k >> r
		k *= m

		h *= m
		h ^= k
		b = b[4:]
	}

	switch len(b) {
	case 3:
		h ^= uint32(b[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(b[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(b[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}

// GenCaseHash is a case insensitive djb hash (hash*33 + lower(c)), seeded by
// the global config. Only ASCII letters are folded.
func GenCaseHash(b []byte) uint32 {
	hash := global.HashSeed()
	for _, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}

// GenHashString is GenHash for strings.
var GenHashString = func(s string) uintptr {
	return uintptr(GenHash(bytesOf(s)))
}

// GenCaseHashString is GenCaseHash for strings.
var GenCaseHashString = func(s string) uintptr {
	return uintptr(GenCaseHash(bytesOf(s)))
}

// XXHashString hashes s with xxHash64.
var XXHashString = func(s string) uintptr {
	return uintptr(xxhash.Sum64String(s))
}

// XXH3String hashes s with XXH3-64, the default for string keys.
var XXH3String = func(s string) uintptr {
	return uintptr(xxh3.HashString(s))
}

// Murmur3String hashes s with the 64 bit MurmurHash3, seeded by the global config.
var Murmur3String = func(s string) uintptr {
	return uintptr(murmur3.Sum64WithSeed(bytesOf(s), global.HashSeed()))
}

// StringHasher returns a string hash function by name: "murmur2",
// "murmur2-nocase", "murmur3", "xxhash" or "xxh3".
func StringHasher(name string) (HashFn[string], error) {
	switch name {
	case "murmur2":
		return GenHashString, nil
	case "murmur2-nocase":
		return GenCaseHashString, nil
	case "murmur3":
		return Murmur3String, nil
	case "xxhash":
		return XXHashString, nil
	case "xxh3", "":
		return XXH3String, nil
	default:
		return nil, fmt.Errorf("string hasher %q: %w", name, ErrOutOfRange)
	}
}

func bytesOf(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

package dict_test

import (
	"fmt"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EinfachAndy/rehashmap/alloc"
	"github.com/EinfachAndy/rehashmap/dict"
	"github.com/EinfachAndy/rehashmap/shared"
)

func newIntDict(hasher shared.HashFn[uint64]) (*dict.Dict[uint64, int], *alloc.Counting, *shared.Config) {
	var (
		a   = alloc.NewCounting(0)
		cfg = shared.NewConfig()
	)
	d := dict.New[uint64, int](dict.NewType[uint64, int](hasher), nil,
		dict.WithAllocator(a), dict.WithConfig(cfg))
	return d, a, cfg
}

// finishRehash drives a running rehash to its end.
func finishRehash[K comparable, V any](d *dict.Dict[K, V]) {
	for d.Rehash(100) {
	}
}

// countingType records how often keys and values were destroyed.
type countingType struct {
	dict.BaseType[string, int]
	keys, vals int
}

func (t *countingType) KeyDestroy(any, string) { t.keys++ }

func (t *countingType) ValDestroy(any, int) { t.vals++ }

func TestRoundTrip(t *testing.T) {
	d := dict.New[string, int](dict.NewType[string, int](shared.XXH3String), nil)
	defer d.Release()

	require.NoError(t, d.Add("a", 1))
	require.NoError(t, d.Add("b", 2))
	require.NoError(t, d.Add("c", 3))

	for i, k := range []string{"a", "b", "c"} {
		v, found := d.FetchValue(k)
		assert.True(t, found)
		assert.Equal(t, i+1, v)
	}

	require.NoError(t, d.Delete("b"))
	assert.Nil(t, d.Find("b"))
	assert.NotNil(t, d.Find("a"))
	assert.NotNil(t, d.Find("c"))
	assert.Equal(t, 2, d.Size())
}

func TestFindOnEmptyDictionaryAllocatesNothing(t *testing.T) {
	d, a, _ := newIntDict(shared.GetHasher[uint64]())
	used := a.Used()

	assert.Nil(t, d.Find(42))
	_, found := d.FetchValue(42)
	assert.False(t, found)
	assert.ErrorIs(t, d.Delete(42), shared.ErrKeyNotFound)

	assert.Equal(t, 0, d.Slots())
	assert.Equal(t, used, a.Used())
	assert.False(t, d.IsRehashing())
	assert.Equal(t, -1, d.RehashIndex())
}

func TestAddExistingKey(t *testing.T) {
	d, _, _ := newIntDict(shared.GetHasher[uint64]())

	require.NoError(t, d.Add(1, 10))
	assert.ErrorIs(t, d.Add(1, 11), shared.ErrKeyExists)

	_, err := d.AddRaw(1)
	assert.ErrorIs(t, err, shared.ErrKeyExists)

	v, _ := d.FetchValue(1)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, d.Size())
}

func TestReplace(t *testing.T) {
	typ := &countingType{BaseType: dict.NewType[string, int](shared.GenHashString)}
	d := dict.New[string, int](typ, nil, dict.WithAllocator(alloc.NewCounting(0)))

	assert.True(t, d.Replace("x", 1))
	assert.Equal(t, 0, typ.vals)

	assert.False(t, d.Replace("x", 2))
	assert.Equal(t, 1, typ.vals)
	assert.Equal(t, 0, typ.keys)
	assert.Equal(t, 1, d.Size())

	v, _ := d.FetchValue("x")
	assert.Equal(t, 2, v)

	e := d.ReplaceRaw("x")
	assert.Equal(t, 2, e.Value())
	e = d.ReplaceRaw("y")
	assert.Equal(t, "y", e.Key())
	assert.Equal(t, 2, d.Size())
}

func TestDeleteDestructors(t *testing.T) {
	typ := &countingType{BaseType: dict.NewType[string, int](shared.GenHashString)}
	d := dict.New[string, int](typ, nil, dict.WithAllocator(alloc.NewCounting(0)))

	require.NoError(t, d.Add("a", 1))
	require.NoError(t, d.Add("b", 2))

	require.NoError(t, d.DeleteNoFree("a"))
	assert.Equal(t, 0, typ.keys)
	assert.Equal(t, 0, typ.vals)

	require.NoError(t, d.Delete("b"))
	assert.Equal(t, 1, typ.keys)
	assert.Equal(t, 1, typ.vals)

	assert.ErrorIs(t, d.Delete("b"), shared.ErrKeyNotFound)
	assert.ErrorIs(t, d.DeleteNoFree("a"), shared.ErrKeyNotFound)
	assert.Equal(t, 0, d.Size())
}

func TestIntegerValues(t *testing.T) {
	typ := &countingType{BaseType: dict.NewType[string, int](shared.GenHashString)}
	d := dict.New[string, int](typ, nil, dict.WithAllocator(alloc.NewCounting(0)))

	e, err := d.AddRaw("signed")
	require.NoError(t, err)
	e.SetSignedInteger(-7)

	e, err = d.AddRaw("unsigned")
	require.NoError(t, err)
	e.SetUnsignedInteger(1 << 63)

	e = d.Find("signed")
	require.NotNil(t, e)
	assert.True(t, e.IsInteger())
	assert.Equal(t, int64(-7), e.SignedInteger())
	assert.Equal(t, uint64(1<<63), d.Find("unsigned").UnsignedInteger())

	require.NoError(t, d.Delete("signed"))
	assert.Equal(t, 1, typ.keys)
	assert.Equal(t, 0, typ.vals, "integers have no value destructor")

	d.SetValue(d.Find("unsigned"), 5)
	assert.False(t, d.Find("unsigned").IsInteger())
	assert.Equal(t, 5, d.Find("unsigned").Value())
}

func TestExpandCapacity(t *testing.T) {
	for _, n := range []uintptr{0, 1, 3, 4, 5, 17, 1000, 1024} {
		d, _, _ := newIntDict(shared.GetHasher[uint64]())
		require.NoError(t, d.Expand(n))
		assert.Equal(t, int(shared.TableSize(n)), d.Slots(), "n=%d", n)
		assert.GreaterOrEqual(t, uintptr(d.Slots()), n)
		assert.False(t, d.IsRehashing())
	}

	d, _, _ := newIntDict(shared.GetHasher[uint64]())
	for i := uint64(0); i < 10; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	finishRehash(d)

	assert.ErrorIs(t, d.Expand(9), shared.ErrInvalidResize)
	require.NoError(t, d.Expand(100))
	assert.True(t, d.IsRehashing())
	assert.Equal(t, 0, d.RehashIndex())
	assert.ErrorIs(t, d.Expand(1000), shared.ErrInvalidResize)
	assert.ErrorIs(t, d.Resize(), shared.ErrInvalidResize)

	finishRehash(d)
	assert.Equal(t, 128, d.Slots())
	assert.Equal(t, 10, d.Size())
}

func TestGrowFromFourToEight(t *testing.T) {
	d, _, _ := newIntDict(shared.GetHasher[uint64]())

	for i := uint64(1); i <= 4; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	assert.Equal(t, 4, d.Slots())
	assert.False(t, d.IsRehashing())

	require.NoError(t, d.Add(5, 5))
	assert.True(t, d.IsRehashing())
	assert.Equal(t, 0, d.RehashIndex())
	assert.Equal(t, 4+8, d.Slots())

	for i := 0; i < 10 && d.IsRehashing(); i++ {
		assert.NotNil(t, d.Find(uint64(i%5+1)))
	}

	assert.False(t, d.IsRehashing())
	assert.Equal(t, -1, d.RehashIndex())
	assert.Equal(t, 8, d.Slots())
	assert.Equal(t, 5, d.Size())
}

func TestLookupsWhileRehashing(t *testing.T) {
	d, _, _ := newIntDict(shared.GetHasher[uint64]())

	const n = 1000
	for i := uint64(0); i < n; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	finishRehash(d)
	require.NoError(t, d.Expand(8*n))
	require.True(t, d.IsRehashing())

	deleted := make(map[uint64]bool)
	for step := 0; d.IsRehashing(); step++ {
		// delete a key every few steps, while entries are spread over both tables
		if step%7 == 0 {
			k := uint64(rand.Intn(n))
			if !deleted[k] {
				require.NoError(t, d.Delete(k))
				deleted[k] = true
			}
		}

		for i := uint64(0); i < n; i += 13 {
			e := d.Find(i)
			if deleted[i] {
				assert.Nil(t, e, "key %d", i)
			} else if assert.NotNil(t, e, "key %d", i) {
				assert.Equal(t, int(i), e.Value())
			}
		}
		d.Rehash(1)
	}

	assert.Equal(t, n-len(deleted), d.Size())
	for i := uint64(0); i < n; i++ {
		assert.Equal(t, !deleted[i], d.Find(i) != nil, "key %d", i)
	}
}

func TestRehashToCompletion(t *testing.T) {
	d, _, _ := newIntDict(shared.GetHasher[uint64]())
	for i := uint64(0); i < 300; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	finishRehash(d)

	require.NoError(t, d.Expand(4096))
	for d.Rehash(1) {
		assert.True(t, d.IsRehashing())
	}

	assert.Equal(t, -1, d.RehashIndex())
	assert.Equal(t, 4096, d.Slots())

	it := d.Iterator()
	seen := 0
	for e := it.Next(); e != nil; e = it.Next() {
		seen++
	}
	it.Release()
	assert.Equal(t, 300, seen)
	assert.False(t, d.Rehash(10))
}

func TestRehashMilliseconds(t *testing.T) {
	d, _, _ := newIntDict(shared.GetHasher[uint64]())
	for i := uint64(0); i < 10000; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	finishRehash(d)
	assert.Equal(t, 0, d.RehashMilliseconds(10))

	require.NoError(t, d.Expand(1<<16))
	for d.IsRehashing() {
		n := d.RehashMilliseconds(1)
		assert.Zero(t, n%100)
	}

	assert.Equal(t, 1<<16, d.Slots())
	assert.Equal(t, 10000, d.Size())
}

func TestResize(t *testing.T) {
	d, _, cfg := newIntDict(shared.GetHasher[uint64]())
	for i := uint64(0); i < 100; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	for i := uint64(10); i < 100; i++ {
		require.NoError(t, d.Delete(i))
	}
	finishRehash(d)
	assert.Equal(t, 128, d.Slots())

	cfg.DisableResize()
	assert.ErrorIs(t, d.Resize(), shared.ErrInvalidResize)

	cfg.EnableResize()
	require.NoError(t, d.Resize())
	assert.True(t, d.IsRehashing())
	finishRehash(d)

	assert.Equal(t, 16, d.Slots())
	assert.Equal(t, 10, d.Size())
	for i := uint64(0); i < 10; i++ {
		assert.NotNil(t, d.Find(i))
	}
}

func TestForcedResizeRatio(t *testing.T) {
	d, _, cfg := newIntDict(shared.GetHasher[uint64]())
	cfg.DisableResize()

	for i := uint64(0); i < 24; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	assert.Equal(t, 4, d.Slots(), "load below the forced ratio must not grow")
	assert.False(t, d.IsRehashing())

	require.NoError(t, d.Add(24, 24))
	assert.True(t, d.IsRehashing())
	assert.Equal(t, 4+64, d.Slots())

	finishRehash(d)
	assert.Equal(t, 25, d.Size())
}

func TestGlobalResizeSwitch(t *testing.T) {
	shared.DisableResize()
	defer shared.EnableResize()

	d := dict.New[uint64, int](dict.NewType[uint64, int](shared.GetHasher[uint64]()), nil)
	defer d.Release()

	for i := uint64(0); i < 8; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	assert.Equal(t, 4, d.Slots())
	assert.ErrorIs(t, d.Resize(), shared.ErrInvalidResize)

	shared.EnableResize()
	require.NoError(t, d.Add(8, 8))
	assert.True(t, d.IsRehashing())
}

func TestEmpty(t *testing.T) {
	d, a, _ := newIntDict(shared.GetHasher[uint64]())
	base := a.Used()

	const n = 70000
	for i := uint64(0); i < n; i++ {
		require.NoError(t, d.Add(i, int(i)))
	}
	finishRehash(d)
	require.Equal(t, 131072, d.Slots())

	var calls int
	d.Empty(func(privdata any) { calls++ })

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, d.Size())
	assert.Equal(t, 0, d.Slots())
	assert.False(t, d.IsRehashing())
	assert.Equal(t, base, a.Used())

	require.NoError(t, d.Add(1, 1))
	assert.Equal(t, 4, d.Slots())
}

func TestReleaseRefundsAllocator(t *testing.T) {
	a := alloc.NewCounting(0)
	d := dict.New[string, string](dict.NewStringCopyKeyValueType(a), nil, dict.WithAllocator(a))

	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("key:%d", i)
		require.NoError(t, d.Add(k, "value of "+k))
	}
	require.NoError(t, d.Delete("key:3"))
	assert.True(t, d.Replace("key:3", "again"))
	assert.False(t, d.Replace("key:4", "replaced"))

	v, found := d.FetchValue("key:4")
	assert.True(t, found)
	assert.Equal(t, "replaced", v)
	assert.NotZero(t, a.Used())

	d.Release()
	assert.Equal(t, uintptr(0), a.Used())
}

func TestStringCopyKeyType(t *testing.T) {
	a := alloc.NewCounting(0)
	d := dict.New[string, int](dict.NewStringCopyKeyType[int](a), nil, dict.WithAllocator(a))
	base := a.Used()

	require.NoError(t, d.Add("0123456789abcdef", 1))
	grown := a.Used()
	require.NoError(t, d.Delete("0123456789abcdef"))
	assert.Equal(t, 16+unsafe.Sizeof(dict.Entry[string, int]{}), grown-a.Used())
	assert.Greater(t, a.Used(), base, "the table stays allocated")

	keys := dict.NewHeapStringsType(a)
	h := dict.New[string, string](keys, nil, dict.WithAllocator(a))
	require.NoError(t, h.Add(alloc.Strdup(a, "k"), alloc.Strdup(a, "v")))
	h.Release()
	d.Release()
	assert.Equal(t, uintptr(0), a.Used())
}

func TestSizeCrossCheck(t *testing.T) {
	d, a, _ := newIntDict(shared.GetHasher[uint64]())
	stdm := make(map[uint64]int)

	for i := 0; i < 20000; i++ {
		key := uint64(rand.Intn(2000))
		switch rand.Intn(4) {
		case 0:
			_, wasIn := stdm[key]
			err := d.Add(key, i)
			assert.Equal(t, wasIn, err != nil)
			if !wasIn {
				stdm[key] = i
			}
		case 1:
			_, wasIn := stdm[key]
			assert.Equal(t, !wasIn, d.Replace(key, i))
			stdm[key] = i
		case 2:
			_, wasIn := stdm[key]
			err := d.Delete(key)
			assert.Equal(t, wasIn, err == nil)
			delete(stdm, key)
		case 3:
			v, found := d.FetchValue(key)
			sv, wasIn := stdm[key]
			assert.Equal(t, wasIn, found)
			assert.Equal(t, sv, v)
		}

		if len(stdm) != d.Size() {
			t.Fatalf("len of maps are not equal %d != %d", len(stdm), d.Size())
		}
	}

	d.Release()
	assert.Equal(t, uintptr(0), a.Used())
}

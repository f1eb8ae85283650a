package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EinfachAndy/rehashmap/shared"
)

func TestConfigDefaults(t *testing.T) {
	c := shared.NewConfig()
	assert.True(t, c.CanResize())
	assert.Equal(t, uintptr(shared.DefaultForceResizeRatio), c.ForceResizeRatio())
	assert.Equal(t, uint32(shared.DefaultHashSeed), c.HashSeed())

	c.DisableResize()
	assert.False(t, c.CanResize())
	c.EnableResize()
	assert.True(t, c.CanResize())

	assert.ErrorIs(t, c.SetForceResizeRatio(0), shared.ErrOutOfRange)
	require.NoError(t, c.SetForceResizeRatio(3))
	assert.Equal(t, uintptr(3), c.ForceResizeRatio())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TESTDICT_RESIZE__ENABLED", "false")
	t.Setenv("TESTDICT_RESIZE__FORCE_RATIO", "9")
	t.Setenv("TESTDICT_HASH__SEED", "77")
	t.Setenv("TESTDICT_LOG__LEVEL", "warn")
	defer shared.SetLogLevel("INFO")

	k, err := shared.NewKoanf("TESTDICT_", shared.ConfigDefaults())
	require.NoError(t, err)

	c := shared.NewConfig()
	require.NoError(t, shared.LoadConfig(k, c))

	assert.False(t, c.CanResize())
	assert.Equal(t, uintptr(9), c.ForceResizeRatio())
	assert.Equal(t, uint32(77), c.HashSeed())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("BADDICT_RESIZE__FORCE_RATIO", "0")

	k, err := shared.NewKoanf("BADDICT_", shared.ConfigDefaults())
	require.NoError(t, err)
	assert.ErrorIs(t, shared.LoadConfig(k, shared.NewConfig()), shared.ErrOutOfRange)

	assert.ErrorIs(t, shared.SetLogLevel("verbose"), shared.ErrOutOfRange)
}

func TestFatalHandler(t *testing.T) {
	var got *shared.FatalError
	prev := shared.SetFatalHandler(func(err *shared.FatalError) { got = err })
	defer shared.SetFatalHandler(prev)

	shared.Fatal(&shared.FatalError{Kind: shared.IteratorMisuse, Msg: "boom"})
	require.NotNil(t, got)
	assert.Equal(t, shared.IteratorMisuse, got.Kind)
	assert.Equal(t, "iterator misuse: boom", got.Error())

	shared.SetFatalHandler(nil)
	assert.PanicsWithError(t, "out of memory: 8 bytes", func() {
		shared.Fatal(&shared.FatalError{Kind: shared.OutOfMemory, Msg: "8 bytes"})
	})
}

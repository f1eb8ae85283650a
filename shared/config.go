package shared

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const (
	// ConfigDelimiter separates nested configuration keys.
	ConfigDelimiter = "."
	// EnvDelimiter separates nested keys in environment variable names.
	EnvDelimiter = "__"

	keyResizeEnabled    = "resize.enabled"
	keyForceResizeRatio = "resize.force_ratio"
	keyHashSeed         = "hash.seed"
	keyLogLevel         = "log.level"
)

// Config holds the switches a dictionary consults when it decides to resize
// and the seed of the byte hash functions. A Config may be shared by many
// dictionaries and flipped from other goroutines.
type Config struct {
	canResize        atomic.Bool
	forceResizeRatio atomic.Uint64
	hashSeed         atomic.Uint32
}

// NewConfig returns a config with resizing enabled and default ratio and seed.
func NewConfig() *Config {
	c := &Config{}
	c.canResize.Store(true)
	c.forceResizeRatio.Store(DefaultForceResizeRatio)
	c.hashSeed.Store(DefaultHashSeed)
	return c
}

var global = NewConfig()

// Global returns the process-wide config, used by every dictionary that was
// not created with its own.
func Global() *Config {
	return global
}

// EnableResize allows tables to grow on the normal load threshold.
func (c *Config) EnableResize() { c.canResize.Store(true) }

// DisableResize stops normal growth, e.g. while a copy-on-write snapshot is
// taken. Tables whose load exceeds the force ratio still grow.
func (c *Config) DisableResize() { c.canResize.Store(false) }

// CanResize reports whether normal growth is enabled.
func (c *Config) CanResize() bool { return c.canResize.Load() }

// ForceResizeRatio returns the used/size ratio that forces a resize.
func (c *Config) ForceResizeRatio() uintptr { return uintptr(c.forceResizeRatio.Load()) }

// SetForceResizeRatio changes the forced resize ratio, which must be positive.
func (c *Config) SetForceResizeRatio(ratio uintptr) error {
	if ratio == 0 {
		return fmt.Errorf("force resize ratio %d: %w", ratio, ErrOutOfRange)
	}
	c.forceResizeRatio.Store(uint64(ratio))
	return nil
}

// HashSeed returns the seed used by GenHash and GenCaseHash.
func (c *Config) HashSeed() uint32 { return c.hashSeed.Load() }

// SetHashSeed changes the hash seed. Changing it while dictionaries hash with
// it makes their stored keys unreachable.
func (c *Config) SetHashSeed(seed uint32) { c.hashSeed.Store(seed) }

// EnableResize enables resizing on the global config.
func EnableResize() { global.EnableResize() }

// DisableResize disables resizing on the global config.
func DisableResize() { global.DisableResize() }

// SetHashFunctionSeed sets the seed of the global config.
func SetHashFunctionSeed(seed uint32) { global.SetHashSeed(seed) }

// HashFunctionSeed returns the seed of the global config.
func HashFunctionSeed() uint32 { return global.HashSeed() }

// NewKoanf builds a koanf instance from defaults, overridden by environment
// variables starting with prefix. "__" in a variable name nests, e.g.
// DICT_RESIZE__FORCE_RATIO becomes resize.force_ratio.
func NewKoanf(prefix string, defaults map[string]interface{}) (*koanf.Koanf, error) {
	k := koanf.New(ConfigDelimiter)

	if err := k.Load(confmap.Provider(defaults, ConfigDelimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	err := k.Load(env.Provider(prefix, ConfigDelimiter, func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, EnvDelimiter, ConfigDelimiter)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	return k, nil
}

// ConfigDefaults returns the default values of the keys read by LoadConfig.
func ConfigDefaults() map[string]interface{} {
	return map[string]interface{}{
		keyResizeEnabled:    true,
		keyForceResizeRatio: DefaultForceResizeRatio,
		keyHashSeed:         DefaultHashSeed,
		keyLogLevel:         "INFO",
	}
}

// LoadConfig applies resize.enabled, resize.force_ratio, hash.seed and
// log.level from k to c and to the package logger.
func LoadConfig(k *koanf.Koanf, c *Config) error {
	if k.Exists(keyResizeEnabled) {
		if k.Bool(keyResizeEnabled) {
			c.EnableResize()
		} else {
			c.DisableResize()
		}
	}

	if k.Exists(keyForceResizeRatio) {
		ratio := k.Int64(keyForceResizeRatio)
		if ratio <= 0 {
			return fmt.Errorf("%s=%d: %w", keyForceResizeRatio, ratio, ErrOutOfRange)
		}
		if err := c.SetForceResizeRatio(uintptr(ratio)); err != nil {
			return err
		}
	}

	if k.Exists(keyHashSeed) {
		c.SetHashSeed(uint32(k.Int64(keyHashSeed)))
	}

	if k.Exists(keyLogLevel) {
		if err := SetLogLevel(k.String(keyLogLevel)); err != nil {
			return err
		}
	}

	return nil
}

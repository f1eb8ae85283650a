// Command dictstat fills a dictionary with generated string keys, drives its
// rehashing in bounded time slices and prints the table statistics and the
// memory accounted for it.
//
// All settings come from the environment:
//
//	DICTSTAT_KEYS                number of keys to insert (default 100000)
//	DICTSTAT_HASHER              xxh3, xxhash, murmur3, murmur2 or murmur2-nocase
//	DICTSTAT_REHASH__BUDGET_MS   time slice of one rehash call (default 1)
//	DICTSTAT_MAXMEMORY           allocator limit in bytes, 0 is unlimited
//	DICTSTAT_RESIZE__ENABLED     normal table growth (default true)
//	DICTSTAT_RESIZE__FORCE_RATIO load that forces growth anyway (default 5)
//	DICTSTAT_HASH__SEED          seed of the murmur2 hashers
//	DICTSTAT_LOG__LEVEL          DEBUG, INFO, WARN, ERROR, ...
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf"
	"github.com/rs/zerolog"

	"github.com/EinfachAndy/rehashmap/alloc"
	"github.com/EinfachAndy/rehashmap/dict"
	"github.com/EinfachAndy/rehashmap/shared"
)

const envPrefix = "DICTSTAT_"

const (
	keyKeys           = "keys"
	keyHasher         = "hasher"
	keyRehashBudgetMS = "rehash.budget_ms"
	keyMaxMemory      = "maxmemory"
)

const banner = `
     _ _      _       _        _
  __| (_) ___| |_ ___| |_ __ _| |_
 / _' | |/ __| __/ __| __/ _' | __|
| (_| | | (__| |_\__ \ || (_| | |_
 \__,_|_|\___|\__|___/\__\__,_|\__|   keys=%d hasher=%s
`

func defaults() map[string]interface{} {
	d := shared.ConfigDefaults()
	d[keyKeys] = 100000
	d[keyHasher] = "xxh3"
	d[keyRehashBudgetMS] = 1
	d[keyMaxMemory] = 0
	return d
}

// options are the settings of one run.
type options struct {
	keys      int
	hasher    string
	budgetMS  int64
	maxmemory uintptr
}

func loadOptions(k *koanf.Koanf) (options, error) {
	opts := options{
		keys:     k.Int(keyKeys),
		hasher:   k.String(keyHasher),
		budgetMS: k.Int64(keyRehashBudgetMS),
	}
	if opts.keys < 0 {
		return opts, fmt.Errorf("%s=%d: %w", keyKeys, opts.keys, shared.ErrOutOfRange)
	}
	if opts.budgetMS <= 0 {
		return opts, fmt.Errorf("%s=%d: %w", keyRehashBudgetMS, opts.budgetMS, shared.ErrOutOfRange)
	}
	maxmemory := k.Int64(keyMaxMemory)
	if maxmemory < 0 {
		return opts, fmt.Errorf("%s=%d: %w", keyMaxMemory, maxmemory, shared.ErrOutOfRange)
	}
	opts.maxmemory = uintptr(maxmemory)
	return opts, nil
}

// report is what a run measured.
type report struct {
	Stats       dict.Stats
	Rehashed    int
	RehashCalls int
	Used        uintptr
	RSS         uintptr
	Frag        float64
}

func run(opts options, cfg *shared.Config) (report, error) {
	var r report

	hasher, err := shared.StringHasher(opts.hasher)
	if err != nil {
		return r, err
	}

	a := alloc.NewCounting(opts.maxmemory)
	typ := dict.NewStringCopyKeyValueType(a)
	typ.Hasher = hasher

	d := dict.New[string, string](typ, nil, dict.WithAllocator(a), dict.WithConfig(cfg))
	defer d.Release()

	log := shared.Logger()
	start := time.Now()
	for i := 0; i < opts.keys; i++ {
		key := "key:" + strconv.Itoa(i)
		if err := d.Add(key, key); err != nil {
			return r, fmt.Errorf("add %s: %w", key, err)
		}
	}
	log.Info().
		Int("keys", d.Size()).
		Int("slots", d.Slots()).
		Bool("rehashing", d.IsRehashing()).
		Dur("took", time.Since(start)).
		Msg("filled dictionary")

	for d.IsRehashing() {
		r.Rehashed += d.RehashMilliseconds(opts.budgetMS)
		r.RehashCalls++
	}
	log.Debug().
		Int("buckets", r.Rehashed).
		Int("calls", r.RehashCalls).
		Msg("rehashing done")

	r.Stats = d.Stats()
	r.Used = a.Used()
	r.RSS = alloc.RSS()
	r.Frag = a.FragmentationRatio(r.RSS)
	return r, nil
}

func (r report) print(w io.Writer) {
	fmt.Fprint(w, r.Stats.String())
	fmt.Fprintf(w, "rehashed buckets: %d in %d calls\n", r.Rehashed, r.RehashCalls)
	fmt.Fprintf(w, "used memory: %d\n", r.Used)
	fmt.Fprintf(w, "rss: %d\n", r.RSS)
	fmt.Fprintf(w, "fragmentation ratio: %.2f\n", r.Frag)
}

func main() {
	shared.SetLogger(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "dictstat").Logger())
	log := shared.Logger()
	shared.SetFatalHandler(func(err *shared.FatalError) {
		log.Fatal().Err(err).Msg("dictionary aborted")
	})

	k, err := shared.NewKoanf(envPrefix, defaults())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := shared.LoadConfig(k, shared.Global()); err != nil {
		log.Fatal().Err(err).Msg("invalid dictionary config")
	}
	opts, err := loadOptions(k)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid options")
	}

	fmt.Printf(banner, opts.keys, opts.hasher)

	r, err := run(opts, shared.Global())
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
	r.print(os.Stdout)
}

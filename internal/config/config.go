// Package config loads the driver's settings: which collector variant
// to run, how big a heap to give it, and how many tracing workers to
// use. The core collector packages never see a Config value directly
// — there are no process-wide singletons — cmd/bench reads one here
// and passes its fields into whichever variant's own Config struct it
// picked.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Variant names one of the three collector packages.
type Variant string

const (
	MarkSweep       Variant = "marksweep"
	MarkSweepLegacy Variant = "marksweeplegacy"
	SemiSpace       Variant = "semispace"
)

// Config is the driver's resolved configuration.
type Config struct {
	// Variant selects which collector package cmd/bench runs against.
	Variant Variant `mapstructure:"variant"`

	// HeapSize is the requested heap size in bytes. For semispace this
	// is one half's size, matching that package's own InitializeGC.
	HeapSize uint64 `mapstructure:"heap_size"`

	// ParallelWorkers is passed straight through to marksweep's and
	// marksweeplegacy's Config.ParallelWorkers; semispace ignores it,
	// since its Cheney scan has no parallel mode.
	ParallelWorkers int `mapstructure:"parallel_workers"`

	// LogLevel is a logrus level name ("debug", "info", "warn", ...).
	LogLevel string `mapstructure:"log_level"`
}

func defaults() Config {
	return Config{
		Variant:         MarkSweep,
		HeapSize:        64 << 20,
		ParallelWorkers: 0,
		LogLevel:        "info",
	}
}

// Load reads configuration from (in ascending priority) built-in
// defaults, a config file named cfgName on the given search paths, and
// environment variables prefixed TAGGC_ (e.g. TAGGC_HEAP_SIZE).
// cfgName and paths may be empty; Load still succeeds on defaults and
// environment alone, since a missing config file is not an error here.
func Load(cfgName string, paths ...string) (Config, error) {
	v := viper.New()
	d := defaults()
	v.SetDefault("variant", string(d.Variant))
	v.SetDefault("heap_size", d.HeapSize)
	v.SetDefault("parallel_workers", d.ParallelWorkers)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix("taggc")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgName != "" {
		v.SetConfigName(cfgName)
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "reading config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a Config that no collector package could use.
func (c Config) Validate() error {
	switch c.Variant {
	case MarkSweep, MarkSweepLegacy, SemiSpace:
	default:
		return errors.Errorf("unknown collector variant %q", c.Variant)
	}
	if c.HeapSize == 0 {
		return errors.New("heap_size must be greater than zero")
	}
	if c.ParallelWorkers < 0 {
		return errors.New("parallel_workers must not be negative")
	}
	return nil
}

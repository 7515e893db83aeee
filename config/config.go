package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/bitcursor/layout"
)

const (
	DefaultLogLevel = "info"
	DefaultStrict   = false

	EnvPrefix = "BITCURSOR"
)

var DefaultParallelism = runtime.NumCPU()

// ErrLayoutNotFound is returned when looking up a layout that is not configured.
var ErrLayoutNotFound = errors.New("layout not found")

type Config struct {
	LogLevel    string          `mapstructure:"loglevel"`
	Strict      bool            `mapstructure:"strict"`
	Parallelism int             `mapstructure:"parallelism"`
	Layouts     []layout.Layout `mapstructure:"layouts"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:    DefaultLogLevel,
		Strict:      DefaultStrict,
		Parallelism: DefaultParallelism,
	}
}

// Load reads the config file at path on top of the defaults.
// The format is derived from the file extension (yaml, json, toml).
// Scalar keys can be overridden by BITCURSOR_-prefixed environment variables.
func Load(path string) (*Config, error) {
	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	cfg := DefaultConfig()
	vip.SetDefault("loglevel", cfg.LogLevel)
	vip.SetDefault("strict", cfg.Strict)
	vip.SetDefault("parallelism", cfg.Parallelism)

	if path != "" {
		vip.SetConfigFile(path)
		vip.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %v: %w", path, err)
		}
	}

	if err := vip.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid `LogLevel`; expected: debug, info, warn, error, dpanic, panic or fatal, given: %v", cfg.LogLevel)
	}

	if cfg.Parallelism < 1 {
		return fmt.Errorf("invalid `Parallelism`; expected: >= 1, given: %d", cfg.Parallelism)
	}

	names := make(map[string]struct{}, len(cfg.Layouts))
	for _, l := range cfg.Layouts {
		if err := l.Validate(); err != nil {
			return err
		}
		if _, ok := names[l.Name]; ok {
			return fmt.Errorf("invalid `Layouts`; expected: unique names, given: %v twice", l.Name)
		}
		names[l.Name] = struct{}{}
	}

	return nil
}

// Layout returns the configured layout with the given name.
func (cfg *Config) Layout(name string) (layout.Layout, error) {
	for _, l := range cfg.Layouts {
		if l.Name == name {
			return l, nil
		}
	}
	return layout.Layout{}, fmt.Errorf("%w: %v", ErrLayoutNotFound, name)
}

// Level returns the configured log level.
func (cfg *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// CodecOpts returns the layout codec options implied by the config.
func (cfg *Config) CodecOpts() []layout.OptionFunc {
	opts := []layout.OptionFunc{layout.WithParallelism(cfg.Parallelism)}
	if cfg.Strict {
		opts = append(opts, layout.WithStrict())
	}
	return opts
}

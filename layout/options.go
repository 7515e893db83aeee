package layout

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

type option struct {
	logger *zap.Logger
	// reject values wider than their field instead of truncating
	strict      bool
	parallelism int
}

func defaultOpts() *option {
	return &option{
		logger:      zap.NewNop(),
		parallelism: runtime.NumCPU(),
	}
}

// OptionFunc is a function that sets an option for a Codec instance.
type OptionFunc func(*option) error

// WithLogger sets the logger used by the Codec.
func WithLogger(logger *zap.Logger) OptionFunc {
	return func(opts *option) error {
		if logger == nil {
			return errors.New("`logger` is required")
		}
		opts.logger = logger
		return nil
	}
}

// WithStrict makes Encode fail with ErrValueOverflow for values that do not
// fit their field, instead of silently keeping their low bits.
func WithStrict() OptionFunc {
	return func(opts *option) error {
		opts.strict = true
		return nil
	}
}

// WithParallelism sets the maximum number of buffers DecodeAll decodes at once.
func WithParallelism(n int) OptionFunc {
	return func(opts *option) error {
		if n < 1 {
			return fmt.Errorf("invalid `parallelism`; expected: >= 1, given: %v", n)
		}
		opts.parallelism = n
		return nil
	}
}

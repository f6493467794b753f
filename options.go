package wltree

import (
	"github.com/rs/zerolog"

	"github.com/AlexWan0/go-wltree/bitvector"
)

type config struct {
	logger zerolog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// bitVectorOptions forwards the settings that also apply to node bit vectors.
func (c config) bitVectorOptions() []bitvector.Option {
	return []bitvector.Option{bitvector.WithLogger(c.logger)}
}

// Option configures a WaveletTree or WaveletMatrix.
type Option func(*config)

// WithLogger sets the logger builds report to, at debug level. The bit
// vectors of every node use it as well. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

package bitvector

import "github.com/rs/zerolog"

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

// Option configures how the indexes of a bit vector are built.
type Option func(*config)

// WithLogger sets the logger build steps report their block parameters to.
// Messages are emitted at debug level; the default logger discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

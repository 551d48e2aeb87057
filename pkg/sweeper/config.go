package sweeper

import (
	"errors"
	"time"
)

// Config holds the configuration of the expiry sweeper.
type Config struct {
	Enabled     bool          `env:"SWEEPER_ENABLED" envDefault:"true"`
	Interval    time.Duration `env:"SWEEPER_INTERVAL" envDefault:"5m"`
	BatchSize   int           `env:"SWEEPER_BATCH_SIZE" envDefault:"500"`
	Concurrency int           `env:"SWEEPER_CONCURRENCY" envDefault:"8"`
}

// Validate implements config.Validator.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return errors.New("sweeper: interval must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("sweeper: concurrency must be positive")
	}
	return nil
}

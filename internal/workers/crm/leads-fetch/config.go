package leadsfetch

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MinQueryLength  int           `mapstructure:"min_query_length"`
	LeadConcurrency int           `mapstructure:"lead_concurrency"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         30 * time.Second,
		MinQueryLength:  3,
		LeadConcurrency: 1,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MinQueryLength < 1 {
		return fmt.Errorf("min_query_length must be positive")
	}
	if c.LeadConcurrency < 1 {
		return fmt.Errorf("lead_concurrency must be at least 1")
	}
	return nil
}

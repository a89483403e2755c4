// Package ping tells search engines that the sitemap changed.
package ping

import "time"

// DefaultTimeout bounds one ping request.
const DefaultTimeout = 10 * time.Second

// Target is one search engine ping endpoint.
type Target struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultTargets are the engines pinged when none are configured.
var DefaultTargets = []Target{
	{Name: "google", Endpoint: "https://www.google.com/ping"},
	{Name: "bing", Endpoint: "https://www.bing.com/ping"},
}

// Config is the notifier configuration snapshot.
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	Timeout     time.Duration `yaml:"timeout"`
	MinInterval time.Duration `yaml:"min_interval"`
	Targets     []Target      `yaml:"targets"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: DefaultTimeout,
		Targets: append([]Target(nil), DefaultTargets...),
	}
}

// Normalize clamps invalid values, drops targets without an endpoint and
// reports whether anything changed.
func (c *Config) Normalize() bool {
	changed := false
	if c.Timeout <= 0 || c.Timeout > time.Minute {
		c.Timeout = DefaultTimeout
		changed = true
	}
	if c.MinInterval < 0 {
		c.MinInterval = 0
		changed = true
	}
	targets := c.Targets[:0]
	for _, t := range c.Targets {
		if t.Endpoint == "" {
			changed = true
			continue
		}
		if t.Name == "" {
			t.Name = t.Endpoint
			changed = true
		}
		targets = append(targets, t)
	}
	c.Targets = targets
	return changed
}

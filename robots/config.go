package robots

import (
	"strings"
	"time"
)

// DefaultCacheTTL is how long a rendered robots.txt is reused.
const DefaultCacheTTL = time.Hour

// Config declares the rules this module adds to the host's robots.txt.
type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Override bool          `yaml:"override"`
	Sitemaps bool          `yaml:"sitemaps"`
	HostFile string        `yaml:"host_file"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Rules    []RuleConfig  `yaml:"rules"`
}

// RuleConfig is the configured block of one user agent.
type RuleConfig struct {
	UserAgent  string       `yaml:"user_agent"`
	CrawlDelay int          `yaml:"crawl_delay"`
	Paths      []PathConfig `yaml:"paths"`
}

// PathConfig is one configured path rule. Exactly one of Allow and Disallow
// is set; an empty Disallow entry stands for "Disallow:" with no path.
type PathConfig struct {
	Allow    *string `yaml:"allow,omitempty"`
	Disallow *string `yaml:"disallow,omitempty"`
}

// AllowPath returns an Allow entry for path.
func AllowPath(path string) PathConfig {
	return PathConfig{Allow: &path}
}

// DisallowPath returns a Disallow entry for path.
func DisallowPath(path string) PathConfig {
	return PathConfig{Disallow: &path}
}

func (pc PathConfig) rule() (PathRule, bool) {
	switch {
	case pc.Allow != nil && pc.Disallow == nil:
		return PathRule{Path: strings.TrimSpace(*pc.Allow), Directive: Allow}, true
	case pc.Disallow != nil && pc.Allow == nil:
		return PathRule{Path: strings.TrimSpace(*pc.Disallow), Directive: Disallow}, true
	}
	return PathRule{}, false
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Sitemaps: true,
		CacheTTL: DefaultCacheTTL,
	}
}

// Normalize clamps invalid values and drops rules without an agent. It
// reports whether anything changed.
func (c *Config) Normalize() bool {
	changed := false
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
		changed = true
	}
	rules := c.Rules[:0]
	for _, r := range c.Rules {
		if strings.TrimSpace(r.UserAgent) == "" {
			changed = true
			continue
		}
		if r.CrawlDelay < 0 {
			r.CrawlDelay = 0
			changed = true
		}
		paths := r.Paths[:0]
		for _, pc := range r.Paths {
			if _, ok := pc.rule(); !ok {
				changed = true
				continue
			}
			paths = append(paths, pc)
		}
		r.Paths = paths
		rules = append(rules, r)
	}
	c.Rules = rules
	return changed
}

// Policy builds the override policy the configuration declares. Path rules
// keep their configured order.
func (c Config) Policy() *Policy {
	p := NewPolicy()
	p.Override = c.Override
	for _, rc := range c.Rules {
		r := Rule{UserAgent: strings.TrimSpace(rc.UserAgent), CrawlDelay: rc.CrawlDelay}
		for _, pc := range rc.Paths {
			if pr, ok := pc.rule(); ok {
				r.Paths = append(r.Paths, pr)
			}
		}
		p.Set(r)
	}
	return p
}

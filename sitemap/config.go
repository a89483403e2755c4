package sitemap

import (
	"slices"
	"time"
)

// Config is the immutable configuration snapshot of the sitemap module.
type Config struct {
	Enabled      bool          `yaml:"enabled"`
	Indexed      bool          `yaml:"indexed"`
	PageSize     int           `yaml:"page_size"`
	ExcludeIDs   []int64       `yaml:"exclude_ids"`
	Images       bool          `yaml:"images"`
	MinImageSize int           `yaml:"min_image_size"` // pixels on either side; zero keeps every image
	Debug        bool          `yaml:"debug"`
	CacheTTL     time.Duration `yaml:"cache_ttl"` // zero disables the document cache

	Posts      KindConfig `yaml:"posts"`
	Taxonomies KindConfig `yaml:"taxonomies"`
	Users      KindConfig `yaml:"users"`
	Dates      KindConfig `yaml:"dates"`

	News NewsConfig `yaml:"news"`
	RSS  RSSConfig  `yaml:"rss"`
}

// KindConfig holds the per-kind include rules and default frequency.
type KindConfig struct {
	Enabled         bool      `yaml:"enabled"`
	Frequency       Frequency `yaml:"frequency"`
	Subtypes        []string  `yaml:"subtypes"`
	ExcludeSubtypes []string  `yaml:"exclude_subtypes"`
}

// Allows reports whether subtype passes the include/exclude lists.
func (k KindConfig) Allows(subtype string) bool {
	if slices.Contains(k.ExcludeSubtypes, subtype) {
		return false
	}
	return len(k.Subtypes) == 0 || slices.Contains(k.Subtypes, subtype)
}

// NewsConfig configures the news family.
type NewsConfig struct {
	Enabled         bool     `yaml:"enabled"`
	PublicationName string   `yaml:"publication_name"`
	Language        string   `yaml:"language"`
	PostTypes       []string `yaml:"post_types"`
}

// RSSConfig configures the rss family.
type RSSConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

// Defaults.
const (
	DefaultPageSize = MaxURLsPerFile
	DefaultRSSLimit = 50
	DefaultCacheTTL = time.Hour

	DefaultMinImageSize = 32
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Indexed:  true,
		PageSize: DefaultPageSize,
		Images:       true,
		MinImageSize: DefaultMinImageSize,
		CacheTTL:     DefaultCacheTTL,
		Posts: KindConfig{
			Enabled:   true,
			Frequency: FrequencyWeekly,
		},
		Taxonomies: KindConfig{
			Enabled:   true,
			Frequency: FrequencyMonthly,
		},
		Users: KindConfig{
			Frequency: FrequencyMonthly,
		},
		Dates: KindConfig{
			Frequency: FrequencyYearly,
		},
		News: NewsConfig{
			Language:  "en",
			PostTypes: []string{"post"},
		},
		RSS: RSSConfig{Limit: DefaultRSSLimit},
	}
}

// Normalize clamps out-of-range values to safe defaults. It reports whether
// anything changed so the caller can persist the corrected configuration.
func (c *Config) Normalize() bool {
	changed := false
	if c.PageSize < 1 || c.PageSize > MaxURLsPerFile {
		c.PageSize = DefaultPageSize
		changed = true
	}
	for _, k := range []*KindConfig{&c.Posts, &c.Taxonomies, &c.Users, &c.Dates} {
		if k.normalize() {
			changed = true
		}
	}
	if c.RSS.Limit < 1 || c.RSS.Limit > FlatLimit {
		c.RSS.Limit = DefaultRSSLimit
		changed = true
	}
	if c.MinImageSize < 0 {
		c.MinImageSize = 0
		changed = true
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = 0
		changed = true
	}
	if len(c.News.PostTypes) == 0 {
		c.News.PostTypes = []string{"post"}
		changed = true
	}
	return changed
}

func (k *KindConfig) normalize() bool {
	changed := false
	if k.Frequency == "" || !k.Frequency.Valid() {
		k.Frequency = FrequencyDefault
		changed = true
	}
	return changed
}

// Kind returns the configuration that governs kind. News and RSS providers
// inherit the posts defaults.
func (c Config) Kind(kind Kind) KindConfig {
	switch kind.Base() {
	case KindTaxonomies:
		return c.Taxonomies
	case KindUsers:
		return c.Users
	case KindDates:
		return c.Dates
	}
	return c.Posts
}

// Frequencies returns the default changefreq of every kind.
func (c Config) Frequencies() map[Kind]Frequency {
	out := make(map[Kind]Frequency)
	for _, k := range []Kind{KindPosts, KindTaxonomies, KindUsers, KindDates, KindNewsPosts, KindRSSPosts} {
		out[k] = c.Kind(k).Frequency
	}
	return out
}

// PostTypeEnabled reports whether items of postType appear in the sitemap.
func (c Config) PostTypeEnabled(postType string) bool {
	return c.Enabled && c.Posts.Enabled && c.Posts.Allows(postType)
}

package robots

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/eringen/goferseo/cache"
)

// DefaultHostRobots is served as the host output when no host file exists.
const DefaultHostRobots = "User-agent: *\nDisallow:\n"

const (
	keyFiltered = "robots:filtered"
	keyHost     = "robots:host"
)

// HostFunc returns the host's own robots.txt output.
type HostFunc func(ctx context.Context) (string, error)

// HostFile reads the host output from path, falling back to
// DefaultHostRobots when the file does not exist.
func HostFile(path string) HostFunc {
	return func(context.Context) (string, error) {
		if path == "" {
			return DefaultHostRobots, nil
		}
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultHostRobots, nil
		}
		if err != nil {
			return "", fmt.Errorf("read host robots: %w", err)
		}
		return string(b), nil
	}
}

// HostText serves a fixed host output.
func HostText(text string) HostFunc {
	return func(context.Context) (string, error) {
		return text, nil
	}
}

// Builder produces the robots.txt served to crawlers and caches it.
type Builder struct {
	cfg      Config
	host     HostFunc
	sitemaps []string
	cache    cache.Cache[string]
}

// NewBuilder creates a Builder. sitemaps are the index URLs to advertise
// when the configuration asks for them.
func NewBuilder(cfg Config, host HostFunc, c cache.Cache[string], sitemaps ...string) *Builder {
	if host == nil {
		host = HostText(DefaultHostRobots)
	}
	if c == nil {
		c = cache.NewMemory[string]()
	}
	return &Builder{cfg: cfg, host: host, sitemaps: sitemaps, cache: c}
}

// Build returns the robots.txt text. Without filters it is the host output
// untouched; with filters it is the host output merged with the configured
// rules and sitemap URLs.
func (b *Builder) Build(ctx context.Context, withFilters bool) (string, error) {
	key := keyHost
	if withFilters && b.cfg.Enabled {
		key = keyFiltered
	}
	if text, ok := b.cache.Get(key); ok {
		return text, nil
	}

	text, err := b.host(ctx)
	if err != nil {
		return "", err
	}
	if key == keyFiltered {
		overrides := b.cfg.Policy()
		if b.cfg.Sitemaps {
			for _, u := range b.sitemaps {
				overrides.AddSitemap(u)
			}
		}
		text = Render(Merge(Parse(text), overrides))
	}
	b.cache.Set(key, text, b.cfg.CacheTTL)
	return text, nil
}

// Flush drops both cached variants.
func (b *Builder) Flush() {
	b.cache.Delete(keyHost)
	b.cache.Delete(keyFiltered)
}

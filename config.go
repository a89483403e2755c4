package goferseo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/eringen/goferseo/crawlers"
	"github.com/eringen/goferseo/ping"
	"github.com/eringen/goferseo/robots"
	"github.com/eringen/goferseo/sitemap"
)

// AppName names the XDG directories.
const AppName = "goferseo"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// SiteConfig holds all configuration for a goferseo site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Site")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Used by the RSS channel
	Language    string `yaml:"language"`    // Default "en"

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default under XDG data home)
	UploadsDir   string `yaml:"uploads_dir"`   // Served under /uploads/ and probed for image sizes
	LogLevel     string `yaml:"log_level"`     // debug, info, warn or error

	AdminPassword string `yaml:"-"` // Required: from GOFERSEO_ADMIN_PASSWORD
	SessionSecret string `yaml:"-"` // Required: from GOFERSEO_SESSION_SECRET
	CookieSecure  bool   `yaml:"cookie_secure"`

	Sitemap  sitemap.Config  `yaml:"sitemap"`
	Robots   robots.Config   `yaml:"robots"`
	Crawlers crawlers.Config `yaml:"crawlers"`
	Ping     ping.Config     `yaml:"ping"`
}

// DefaultSiteConfig returns a SiteConfig with every module at its defaults.
func DefaultSiteConfig() SiteConfig {
	cfg := SiteConfig{
		Sitemap:  sitemap.DefaultConfig(),
		Robots:   robots.DefaultConfig(),
		Crawlers: crawlers.DefaultConfig(),
		Ping:     ping.DefaultConfig(),
	}
	cfg.setDefaults()
	return cfg
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Site"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(xdg.DataHome, AppName, AppName+".db")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Sitemap.News.PublicationName == "" {
		c.Sitemap.News.PublicationName = c.Name
	}
}

// Normalize clamps every module's out-of-range values. It reports whether
// anything changed so the caller can write the corrected file back.
func (c *SiteConfig) Normalize() bool {
	changed := c.Sitemap.Normalize()
	if c.Robots.Normalize() {
		changed = true
	}
	if c.Crawlers.Normalize() {
		changed = true
	}
	if c.Ping.Normalize() {
		changed = true
	}
	return changed
}

// SitemapURL returns the absolute URL of a family's root sitemap.
func (c SiteConfig) SitemapURL(f sitemap.Family) string {
	return strings.TrimRight(c.URL, "/") + "/" + f.Prefix() + "sitemap.xml"
}

// SitemapURLs lists the root sitemaps of every enabled family.
func (c SiteConfig) SitemapURLs() []string {
	if !c.Sitemap.Enabled {
		return nil
	}
	urls := []string{c.SitemapURL(sitemap.FamilyStandard)}
	if c.Sitemap.News.Enabled {
		urls = append(urls, c.SitemapURL(sitemap.FamilyNews))
	}
	if c.Sitemap.RSS.Enabled {
		urls = append(urls, c.SitemapURL(sitemap.FamilyRSS))
	}
	return urls
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/goferseo/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadConfigFile reads a YAML configuration over the defaults. If the file
// does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (SiteConfig, error) {
	cfg := DefaultSiteConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// SaveConfigFile writes cfg to path, creating the directory if needed.
func SaveConfigFile(path string, cfg SiteConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithResolver replaces the DNS resolver of the crawler whitelist check.
func WithResolver(r crawlers.Resolver) Option {
	return func(a *App) {
		a.resolver = r
	}
}

// WithPingOptions passes options to the ping notifier.
func WithPingOptions(opts ...ping.Option) Option {
	return func(a *App) {
		a.pingOpts = append(a.pingOpts, opts...)
	}
}

// WithHostRobots replaces the host robots.txt source.
func WithHostRobots(fn robots.HostFunc) Option {
	return func(a *App) {
		a.hostRobots = fn
	}
}

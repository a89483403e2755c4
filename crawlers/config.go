// Package crawlers blocks unwanted bots by user agent and referrer while
// letting verified search engine crawlers through.
package crawlers

import "time"

// Limits of the tunable values.
const (
	DefaultLogCap     = 4 << 10
	MinLogCap         = 1 << 10
	MaxLogCap         = 1 << 20
	DefaultDNSTimeout = 2 * time.Second
	MinDNSTimeout     = 100 * time.Millisecond
	MaxDNSTimeout     = 10 * time.Second
)

// DefaultBadBots are user agent tokens of crawlers with no search value.
var DefaultBadBots = []string{
	"AhrefsBot",
	"SemrushBot",
	"MJ12bot",
	"DotBot",
	"BLEXBot",
	"MegaIndex",
	"PetalBot",
	"serpstatbot",
	"DataForSeoBot",
	"Bytespider",
	"ZoominfoBot",
	"SeznamBot",
	"Barkrowler",
	"BUbiNG",
	"ltx71",
	"Scrapy",
	"python-requests",
	"Go-http-client",
	"libwww-perl",
	"HTTrack",
}

// DefaultWhitelist lists the major crawlers and the reverse DNS domains
// they publish.
var DefaultWhitelist = []WhitelistEntry{
	{Agent: "Googlebot", Suffixes: []string{"googlebot.com", "google.com", "googleusercontent.com"}},
	{Agent: "bingbot", Suffixes: []string{"search.msn.com"}},
	{Agent: "YandexBot", Suffixes: []string{"yandex.ru", "yandex.net", "yandex.com"}},
	{Agent: "Baiduspider", Suffixes: []string{"baidu.com", "baidu.jp"}},
	{Agent: "Applebot", Suffixes: []string{"applebot.apple.com"}},
	{Agent: "DuckDuckBot", Suffixes: []string{"duckduckgo.com"}},
}

// Config is the gatekeeper configuration snapshot.
type Config struct {
	BlockByAgent    bool             `yaml:"block_by_agent"`
	BlockByReferrer bool             `yaml:"block_by_referrer"`
	LogBlocked      bool             `yaml:"log_blocked"`
	LogCap          int              `yaml:"log_cap"`
	DNSTimeout      time.Duration    `yaml:"dns_timeout"`
	Agents          []string         `yaml:"agents"`
	Referrers       []string         `yaml:"referrers"`
	Whitelist       []WhitelistEntry `yaml:"whitelist"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		LogCap:     DefaultLogCap,
		DNSTimeout: DefaultDNSTimeout,
		Agents:     append([]string(nil), DefaultBadBots...),
		Whitelist:  append([]WhitelistEntry(nil), DefaultWhitelist...),
	}
}

// Normalize clamps out-of-range values and reports whether anything changed.
func (c *Config) Normalize() bool {
	changed := false
	if c.LogCap < MinLogCap || c.LogCap > MaxLogCap {
		c.LogCap = DefaultLogCap
		changed = true
	}
	if c.DNSTimeout < MinDNSTimeout || c.DNSTimeout > MaxDNSTimeout {
		c.DNSTimeout = DefaultDNSTimeout
		changed = true
	}
	return changed
}

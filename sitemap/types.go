// Package sitemap turns content from a Source into paginated sitemap
// documents, serves them on virtual routes and renders the matching
// index, XSL and RSS variants.
package sitemap

import (
	"strconv"
	"strings"
	"time"
)

// Protocol limits.
const (
	// MaxURLsPerFile is the sitemap protocol ceiling for one document.
	MaxURLsPerFile = 50000
	// FlatLimit caps the merged entry list when indexing is disabled.
	FlatLimit = 1000
	// NewsWindow is how far back the news sitemap looks.
	NewsWindow = 48 * time.Hour
)

// Kind identifies a provider. News and RSS providers carry their family
// as a prefix ("news-posts", "rss-posts").
type Kind string

const (
	KindPosts      Kind = "posts"
	KindTaxonomies Kind = "taxonomies"
	KindUsers      Kind = "users"
	KindDates      Kind = "dates"
	KindNewsPosts  Kind = "news-posts"
	KindRSSPosts   Kind = "rss-posts"
)

// Family groups the providers served under one route prefix.
type Family string

const (
	FamilyStandard Family = ""
	FamilyNews     Family = "news"
	FamilyRSS      Family = "rss"
)

// Prefix returns the route prefix of the family ("", "news-" or "rss-").
func (f Family) Prefix() string {
	if f == FamilyStandard {
		return ""
	}
	return string(f) + "-"
}

// Family returns the family a kind belongs to.
func (k Kind) Family() Family {
	switch {
	case strings.HasPrefix(string(k), "news-"):
		return FamilyNews
	case strings.HasPrefix(string(k), "rss-"):
		return FamilyRSS
	}
	return FamilyStandard
}

// Base strips the family prefix: the kind the Source understands.
func (k Kind) Base() Kind {
	return Kind(strings.TrimPrefix(string(k), k.Family().Prefix()))
}

// KindFor joins a family and a route kind segment.
func KindFor(f Family, segment string) Kind {
	return Kind(f.Prefix() + segment)
}

// Frequency is a sitemap changefreq value.
type Frequency string

const (
	FrequencyAlways  Frequency = "always"
	FrequencyHourly  Frequency = "hourly"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyNever   Frequency = "never"
	// FrequencyDefault defers to the kind's configured frequency.
	FrequencyDefault Frequency = "default"
)

// Valid reports whether f is one of the known values, "default" included.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyAlways, FrequencyHourly, FrequencyDaily, FrequencyWeekly,
		FrequencyMonthly, FrequencyYearly, FrequencyNever, FrequencyDefault:
		return true
	}
	return false
}

// Priority bounds. PriorityInherit omits the element on output.
const (
	PriorityInherit = -1
	PriorityMax     = 10
)

// Entry is one <url> of a sitemap page.
type Entry struct {
	URL       string
	LastMod   time.Time
	Priority  int
	Frequency Frequency
	Images    []Image
	Title     string
	News      *News
	Kind      Kind
}

// Image is one <image:image> of an entry.
type Image struct {
	URL     string
	Caption string
	Title   string
	Width   int
	Height  int
	MIME    string
}

// News carries the Google News fields of a news sitemap entry.
type News struct {
	PublicationName string
	Language        string
	PublishedAt     time.Time
	Title           string
}

// Descriptor describes one kind/subtype pair of a provider.
type Descriptor struct {
	Kind     Kind
	Subtype  string
	PageSize int
	Total    int
	Pages    int
	LastMod  time.Time
}

// IndexRef is one <sitemap> of an index document.
type IndexRef struct {
	URL     string
	LastMod time.Time
}

// PageCount returns ceil(total/size); zero for empty collections.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// PagePath returns the virtual path of one page of a descriptor.
func PagePath(kind Kind, subtype string, page int) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(kind.Family().Prefix())
	b.WriteString("sitemap-")
	b.WriteString(string(kind.Base()))
	if subtype != "" {
		b.WriteString("-")
		b.WriteString(subtype)
	}
	b.WriteString("-")
	b.WriteString(strconv.Itoa(page))
	b.WriteString(".xml")
	return b.String()
}

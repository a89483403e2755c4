package sitemap

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Provider turns one kind of content into sitemap entries.
type Provider interface {
	Kind() Kind
	// PageCount returns ceil(total/pageSize) for subtype ("" selects all).
	PageCount(ctx context.Context, subtype string) (int, error)
	// Entries returns page (1-based) of subtype in a stable order. Unknown
	// subtypes and out-of-range pages yield an empty slice, not an error.
	Entries(ctx context.Context, page int, subtype string) ([]Entry, error)
	// SitemapList describes every non-empty subtype, for the index.
	SitemapList(ctx context.Context) ([]Descriptor, error)
}

// ContentProvider is the Provider for every kind backed by a Source.
type ContentProvider struct {
	kind       Kind
	source     Source
	rules      KindConfig
	pageSize   int
	excludeIDs []int64
	news       NewsConfig
	images     *ImageExtractor
	now        func() time.Time
}

// ProviderOption configures a ContentProvider.
type ProviderOption func(*ContentProvider)

// WithImages attaches an image extractor to post providers.
func WithImages(x *ImageExtractor) ProviderOption {
	return func(p *ContentProvider) {
		p.images = x
	}
}

// WithClock overrides the clock used for the news window.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *ContentProvider) {
		p.now = now
	}
}

// NewProvider builds the provider for kind from a normalized Config.
func NewProvider(kind Kind, source Source, cfg Config, opts ...ProviderOption) (*ContentProvider, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	p := &ContentProvider{
		kind:       kind,
		source:     source,
		rules:      cfg.Kind(kind),
		pageSize:   cfg.PageSize,
		excludeIDs: cfg.ExcludeIDs,
		news:       cfg.News,
		now:        time.Now,
	}
	if p.pageSize < 1 || p.pageSize > MaxURLsPerFile {
		p.pageSize = DefaultPageSize
	}
	if kind == KindNewsPosts {
		p.rules.Subtypes = cfg.News.PostTypes
		if p.pageSize > FlatLimit {
			p.pageSize = FlatLimit
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Kind implements Provider.
func (p *ContentProvider) Kind() Kind {
	return p.kind
}

// PageSize returns the effective page size.
func (p *ContentProvider) PageSize() int {
	return p.pageSize
}

// subtypes returns the source's subtypes that pass the include rules.
func (p *ContentProvider) subtypes(ctx context.Context) ([]string, error) {
	all, err := p.source.Subtypes(ctx, p.kind.Base())
	if err != nil {
		return nil, fmt.Errorf("list %s subtypes: %w", p.kind, err)
	}
	var out []string
	for _, s := range all {
		if p.rules.Allows(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// query builds the Source query for subtype. ok is false when the subtype is
// excluded or unknown, in which case the result is empty.
func (p *ContentProvider) query(ctx context.Context, subtype string) (q Query, ok bool, err error) {
	q = Query{Kind: p.kind.Base(), ExcludeIDs: p.excludeIDs}
	if p.kind == KindNewsPosts {
		q.Since = p.now().Add(-NewsWindow)
	}
	if subtype != "" {
		if !p.rules.Allows(subtype) {
			return q, false, nil
		}
		q.Subtypes = []string{subtype}
		return q, true, nil
	}
	if len(p.rules.Subtypes) == 0 && len(p.rules.ExcludeSubtypes) == 0 {
		return q, true, nil
	}
	subs, err := p.subtypes(ctx)
	if err != nil {
		return q, false, err
	}
	if len(subs) == 0 {
		return q, false, nil
	}
	q.Subtypes = subs
	return q, true, nil
}

// PageCount implements Provider.
func (p *ContentProvider) PageCount(ctx context.Context, subtype string) (int, error) {
	q, ok, err := p.query(ctx, subtype)
	if err != nil || !ok {
		return 0, err
	}
	st, err := p.source.Stat(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", p.kind, err)
	}
	return PageCount(st.Total, p.pageSize), nil
}

// Entries implements Provider.
func (p *ContentProvider) Entries(ctx context.Context, page int, subtype string) ([]Entry, error) {
	if page < 1 || page-1 > math.MaxInt/p.pageSize {
		return nil, nil
	}
	q, ok, err := p.query(ctx, subtype)
	if err != nil || !ok {
		return nil, err
	}
	q.Offset = (page - 1) * p.pageSize
	q.Limit = p.pageSize
	items, err := p.source.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s page %d: %w", p.kind, page, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, p.entry(ctx, it))
	}
	return entries, nil
}

func (p *ContentProvider) entry(ctx context.Context, it Item) Entry {
	e := Entry{
		URL:       it.URL,
		LastMod:   it.LastMod,
		Priority:  it.Priority,
		Frequency: it.Frequency,
		Title:     it.Title,
		Kind:      p.kind,
	}
	if e.Priority < PriorityInherit || e.Priority > PriorityMax {
		e.Priority = PriorityInherit
	}
	if !e.Frequency.Valid() {
		e.Frequency = FrequencyDefault
	}
	if p.kind == KindNewsPosts {
		e.News = &News{
			PublicationName: p.news.PublicationName,
			Language:        p.news.Language,
			PublishedAt:     it.Published,
			Title:           it.Title,
		}
	}
	if p.images != nil && p.kind.Base() == KindPosts {
		e.Images = p.images.Extract(ctx, it)
	}
	return e
}

// SitemapList implements Provider.
func (p *ContentProvider) SitemapList(ctx context.Context) ([]Descriptor, error) {
	subs, err := p.subtypes(ctx)
	if err != nil {
		return nil, err
	}
	var out []Descriptor
	for _, s := range subs {
		q, ok, err := p.query(ctx, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		st, err := p.source.Stat(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("stat %s/%s: %w", p.kind, s, err)
		}
		if st.Total == 0 {
			continue
		}
		out = append(out, Descriptor{
			Kind:     p.kind,
			Subtype:  s,
			PageSize: p.pageSize,
			Total:    st.Total,
			Pages:    PageCount(st.Total, p.pageSize),
			LastMod:  st.LastMod,
		})
	}
	return out, nil
}

// BuildProviders creates one provider per enabled kind, in index order:
// posts, taxonomies, users, dates, then the news and rss families.
func BuildProviders(source Source, cfg Config, opts ...ProviderOption) ([]Provider, error) {
	type want struct {
		kind Kind
		on   bool
	}
	kinds := []want{
		{KindPosts, cfg.Posts.Enabled},
		{KindTaxonomies, cfg.Taxonomies.Enabled},
		{KindUsers, cfg.Users.Enabled},
		{KindDates, cfg.Dates.Enabled},
		{KindNewsPosts, cfg.News.Enabled},
		{KindRSSPosts, cfg.RSS.Enabled && cfg.Posts.Enabled},
	}
	var out []Provider
	for _, w := range kinds {
		if !w.on {
			continue
		}
		p, err := NewProvider(w.kind, source, cfg, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

package sitemap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/goferseo/cache"
	"github.com/eringen/goferseo/content"
)

// Content types of dispatcher responses.
const (
	ContentTypeXML = "application/xml; charset=utf-8"
	ContentTypeXSL = "text/xml; charset=utf-8"
	ContentTypeRSS = "application/rss+xml; charset=utf-8"
)

// providerConcurrency bounds the provider fan-out of one render.
const providerConcurrency = 4

// Response is a rendered sitemap document.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

var notFound = &Response{Status: http.StatusNotFound}

// Dispatcher resolves virtual sitemap paths to rendered documents.
type Dispatcher struct {
	cfg       Config
	renderer  *Renderer
	providers map[Kind]Provider
	families  map[Family][]Provider
	stats     *StatsLogger
	images    *ImageExtractor
	docs      cache.Cache[*Response]
	logger    *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDocumentCache caches successful renders until the next content
// transition or the configured ttl.
func WithDocumentCache(c cache.Cache[*Response]) DispatcherOption {
	return func(d *Dispatcher) {
		d.docs = c
	}
}

// WithImagePersistence flushes the extractor's attachment URL map after
// every render.
func WithImagePersistence(x *ImageExtractor) DispatcherOption {
	return func(d *Dispatcher) {
		d.images = x
	}
}

// WithStatsLogger replaces the default stats logger.
func WithStatsLogger(s *StatsLogger) DispatcherOption {
	return func(d *Dispatcher) {
		d.stats = s
	}
}

// WithLogger sets the logger for recoverable errors.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher registers providers by kind and family.
func NewDispatcher(cfg Config, renderer *Renderer, providers []Provider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		renderer:  renderer,
		providers: make(map[Kind]Provider),
		families:  make(map[Family][]Provider),
		logger:    slog.Default(),
	}
	for _, p := range providers {
		d.providers[p.Kind()] = p
		f := p.Kind().Family()
		d.families[f] = append(d.families[f], p)
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.stats == nil {
		d.stats = NewStatsLogger(d.logger)
	}
	return d
}

// OnTransition drops cached documents whenever content changes.
func (d *Dispatcher) OnTransition(_ context.Context, _ content.Transitioned) {
	if d.docs != nil {
		d.docs.Flush()
	}
}

// Dispatch renders path. ok is false when path is not a sitemap route, in
// which case the caller passes the request on.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) (res *Response, ok bool, err error) {
	route := ParseRoute(path)
	if route.Type == RouteUnmatched || !d.cfg.Enabled {
		return nil, false, nil
	}
	if len(d.families[route.Family]) == 0 {
		return nil, false, nil
	}
	key := route.Path()
	if d.docs != nil {
		if cached, hit := d.docs.Get(key); hit {
			return cached, true, nil
		}
	}

	if route.Type == RoutePage {
		res, err = d.page(ctx, route)
	} else {
		span := d.stats.Start(key)
		res, err = d.render(ctx, route)
		if err == nil {
			d.annotate(res, span.Stop())
		} else {
			span.Stop()
		}
	}
	if err != nil {
		return nil, true, err
	}
	if res.Status == http.StatusOK {
		if d.images != nil {
			if perr := d.images.Persist(); perr != nil {
				d.logger.Warn("persist attachment urls", "error", perr)
			}
		}
		if d.docs != nil && d.cfg.CacheTTL > 0 {
			d.docs.Set(key, res, d.cfg.CacheTTL)
		}
	}
	return res, true, nil
}

func (d *Dispatcher) render(ctx context.Context, route Route) (*Response, error) {
	switch route.Type {
	case RouteStylesheet:
		return d.component(ctx, ContentTypeXSL, d.renderer.Stylesheet(route.Family, route.Stylesheet))
	case RouteIndex:
		if route.Family == FamilyRSS {
			entries, err := d.flat(ctx, route.Family)
			if err != nil {
				return nil, err
			}
			return d.component(ctx, ContentTypeRSS, d.renderer.RSS(entries))
		}
		if d.cfg.Indexed {
			refs, err := d.index(ctx, route.Family)
			if err != nil {
				return nil, err
			}
			return d.component(ctx, ContentTypeXML, d.renderer.Index(refs, StylesheetPath(route.Family, StylesheetIndex)))
		}
		entries, err := d.flat(ctx, route.Family)
		if err != nil {
			return nil, err
		}
		return d.component(ctx, ContentTypeXML, d.renderer.Page(entries, StylesheetPath(route.Family, StylesheetPage)))
	}
	return notFound, nil
}

// page resolves a paged route. Empty pages are NotFound and skip the stats
// bracket.
func (d *Dispatcher) page(ctx context.Context, route Route) (*Response, error) {
	p, ok := d.providers[route.Kind]
	if !ok {
		return notFound, nil
	}
	entries, err := p.Entries(ctx, route.Page, route.Subtype)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return notFound, nil
	}
	span := d.stats.Start(PagePath(route.Kind, route.Subtype, route.Page))
	var res *Response
	if route.Family == FamilyRSS {
		res, err = d.component(ctx, ContentTypeRSS, d.renderer.RSS(entries))
	} else {
		res, err = d.component(ctx, ContentTypeXML, d.renderer.Page(entries, StylesheetPath(route.Family, StylesheetPage)))
	}
	st := span.Stop()
	if err != nil {
		return nil, err
	}
	d.annotate(res, st)
	return res, nil
}

func (d *Dispatcher) component(ctx context.Context, contentType string, cmp templ.Component) (*Response, error) {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render sitemap: %w", err)
	}
	return &Response{Status: http.StatusOK, ContentType: contentType, Body: buf.Bytes()}, nil
}

// annotate appends the render stats as an XML comment in debug mode.
func (d *Dispatcher) annotate(res *Response, st Stats) {
	if !d.cfg.Debug || res.Status != http.StatusOK {
		return
	}
	res.Body = append(res.Body, []byte("<!-- "+st.String()+" -->\n")...)
}

// index lists every page of every provider of the family.
func (d *Dispatcher) index(ctx context.Context, f Family) ([]IndexRef, error) {
	providers := d.families[f]
	lists := make([][]Descriptor, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(providerConcurrency)
	for i, p := range providers {
		g.Go(func() error {
			l, err := p.SitemapList(gctx)
			if err != nil {
				return fmt.Errorf("sitemap list %s: %w", p.Kind(), err)
			}
			lists[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var refs []IndexRef
	for _, list := range lists {
		for _, desc := range list {
			for n := 1; n <= desc.Pages; n++ {
				if len(refs) >= MaxURLsPerFile {
					return refs, nil
				}
				refs = append(refs, IndexRef{
					URL:     PagePath(desc.Kind, desc.Subtype, n),
					LastMod: desc.LastMod,
				})
			}
		}
	}
	return refs, nil
}

// flat merges page 1 of every provider of the family, newest first, capped
// at FlatLimit. Items past page 1 of a provider are never considered even
// when they are newer.
func (d *Dispatcher) flat(ctx context.Context, f Family) ([]Entry, error) {
	providers := d.families[f]
	pages := make([][]Entry, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(providerConcurrency)
	for i, p := range providers {
		g.Go(func() error {
			entries, err := p.Entries(gctx, 1, "")
			if err != nil {
				return fmt.Errorf("first page %s: %w", p.Kind(), err)
			}
			pages[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []Entry
	for _, page := range pages {
		merged = append(merged, page...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LastMod.After(merged[j].LastMod)
	})
	limit := FlatLimit
	if f == FamilyRSS {
		limit = d.cfg.RSS.Limit
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

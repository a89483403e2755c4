package ping

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/eringen/goferseo/content"
)

// Notifier pings every configured engine when the sitemap changes. Pings run
// in their own goroutines; failures are logged and never returned.
type Notifier struct {
	cfg        Config
	sitemapURL string
	client     *http.Client
	logger     *slog.Logger
	limiter    *Limiter
	filter     func(kind string) bool
	wg         sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		n.client = c
	}
}

// WithLogger sets the logger ping failures are written to.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = l
	}
}

// WithKindFilter restricts transition pings to content kinds for which fn
// returns true.
func WithKindFilter(fn func(kind string) bool) Option {
	return func(n *Notifier) {
		n.filter = fn
	}
}

// NewNotifier creates a Notifier announcing sitemapURL.
func NewNotifier(cfg Config, sitemapURL string, opts ...Option) *Notifier {
	n := &Notifier{
		cfg:        cfg,
		sitemapURL: sitemapURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	if cfg.MinInterval > 0 {
		n.limiter = NewLimiter(1, cfg.MinInterval)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PingURL returns endpoint with the sitemap query parameter set.
func PingURL(endpoint, sitemapURL string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse ping endpoint: %w", err)
	}
	q := u.Query()
	q.Set("sitemap", sitemapURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OnTransition pings when content moves into or out of publish or trash.
func (n *Notifier) OnTransition(_ context.Context, ev content.Transitioned) {
	if !ev.TouchesPublishOrTrash() {
		return
	}
	if n.filter != nil && !n.filter(ev.Kind) {
		return
	}
	n.Notify(n.sitemapURL)
}

// Notify starts one ping per target and returns immediately.
func (n *Notifier) Notify(sitemapURL string) {
	if !n.cfg.Enabled {
		return
	}
	for _, t := range n.cfg.Targets {
		if n.limiter != nil && !n.limiter.Allow(t.Name) {
			n.logger.Debug("ping throttled", "engine", t.Name)
			continue
		}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.send(t, sitemapURL)
		}()
	}
}

// Wait blocks until every started ping has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(t Target, sitemapURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()

	target, err := PingURL(t.Endpoint, sitemapURL)
	if err != nil {
		n.logger.Warn("ping failed", "engine", t.Name, "sitemap", sitemapURL, "error", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		n.logger.Warn("ping failed", "engine", t.Name, "sitemap", sitemapURL, "error", err)
		return
	}
	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("ping failed", "engine", t.Name, "sitemap", sitemapURL, "error", err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Warn("ping failed", "engine", t.Name, "sitemap", sitemapURL, "status", resp.StatusCode)
		return
	}
	n.logger.Info("pinged", "engine", t.Name, "sitemap", sitemapURL)
}

package sitemap

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PageSize = 1000
	cfg.Images = false
	return cfg
}

func testSite() SiteInfo {
	return SiteInfo{URL: "https://example.com/", Name: "Example", Description: "An example site", Language: "en"}
}

// postItems returns n published posts of subtype with ids starting at first
// and lastmod increasing with id.
func postItems(subtype string, first, n int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		id := int64(first + i)
		items = append(items, Item{
			ID:        id,
			Subtype:   subtype,
			URL:       fmt.Sprintf("/%s/%d", subtype, id),
			LastMod:   baseTime.Add(time.Duration(id) * time.Hour),
			Published: baseTime.Add(time.Duration(id) * time.Hour),
			Title:     fmt.Sprintf("%s %d", subtype, id),
			Priority:  PriorityInherit,
			Frequency: FrequencyDefault,
		})
	}
	return items
}

func newTestRenderer(t *testing.T, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(testSite(), cfg.Frequencies())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func newTestDispatcher(t *testing.T, src Source, cfg Config, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	providers, err := BuildProviders(src, cfg, WithClock(func() time.Time { return baseTime.Add(100 * time.Hour) }))
	if err != nil {
		t.Fatalf("BuildProviders failed: %v", err)
	}
	opts = append([]DispatcherOption{WithLogger(discardLogger())}, opts...)
	return NewDispatcher(cfg, newTestRenderer(t, cfg), providers, opts...)
}

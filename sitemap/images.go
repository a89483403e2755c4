package sitemap

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// AttachmentURLTTL is how long the attachment URL map is trusted.
const AttachmentURLTTL = 24 * time.Hour

const attachmentURLsKey = "sitemap_attachment_urls"

var reAttachmentClass = regexp.MustCompile(`\bwp-image-(\d+)\b`)

// SettingsStore persists small string values by key.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// URLCache maps attachment ids to canonical URLs. Mappings are only ever
// added; the whole map is dropped when it is older than its ttl. Changes are
// written back by Persist.
type URLCache struct {
	mu      sync.Mutex
	store   SettingsStore
	ttl     time.Duration
	urls    map[int64]string
	created time.Time
	dirty   bool
	now     func() time.Time
}

type urlCacheSnapshot struct {
	Created time.Time        `json:"created"`
	URLs    map[int64]string `json:"urls"`
}

// NewURLCache creates a URLCache persisted through store. A nil store keeps
// the map in memory only.
func NewURLCache(store SettingsStore, ttl time.Duration) *URLCache {
	if ttl <= 0 {
		ttl = AttachmentURLTTL
	}
	return &URLCache{store: store, ttl: ttl, now: time.Now}
}

func (c *URLCache) expired() bool {
	return c.now().Sub(c.created) >= c.ttl
}

// load must be called with c.mu held.
func (c *URLCache) load() {
	if c.urls != nil && !c.expired() {
		return
	}
	c.urls = make(map[int64]string)
	c.created = c.now()
	c.dirty = false
	if c.store == nil {
		return
	}
	raw, err := c.store.GetSetting(attachmentURLsKey)
	if err != nil || raw == "" {
		return
	}
	var snap urlCacheSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return
	}
	if c.now().Sub(snap.Created) >= c.ttl || snap.URLs == nil {
		return
	}
	c.urls = snap.URLs
	c.created = snap.Created
}

// Lookup returns the cached URL of attachment id.
func (c *URLCache) Lookup(id int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	u, ok := c.urls[id]
	return u, ok
}

// Remember records a newly discovered mapping.
func (c *URLCache) Remember(id int64, u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	if cur, ok := c.urls[id]; ok && cur == u {
		return
	}
	c.urls[id] = u
	c.dirty = true
}

// Persist writes the map back when it changed since the last write.
func (c *URLCache) Persist() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty || c.store == nil {
		return nil
	}
	b, err := json.Marshal(urlCacheSnapshot{Created: c.created, URLs: c.urls})
	if err != nil {
		return fmt.Errorf("encode attachment urls: %w", err)
	}
	if err := c.store.SetSetting(attachmentURLsKey, string(b)); err != nil {
		return fmt.Errorf("store attachment urls: %w", err)
	}
	c.dirty = false
	return nil
}

// ImageExtractor finds the images of a post for the image sitemap extension.
type ImageExtractor struct {
	resolver    AttachmentResolver
	urls        *URLCache
	uploadsDir  string
	uploadsPath string
	minSize     int
	logger      *slog.Logger
}

// ImageOption configures an ImageExtractor.
type ImageOption func(*ImageExtractor)

// WithMinImageSize drops images narrower or shorter than px pixels. Images
// whose size cannot be determined are kept.
func WithMinImageSize(px int) ImageOption {
	return func(x *ImageExtractor) {
		x.minSize = px
	}
}

// NewImageExtractor creates an extractor. uploadsDir is the local directory
// served under uploadsPath; with a minimum size set, images without
// width/height attributes are measured from disk.
func NewImageExtractor(resolver AttachmentResolver, urls *URLCache, uploadsDir, uploadsPath string, logger *slog.Logger, opts ...ImageOption) *ImageExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if urls == nil {
		urls = NewURLCache(nil, AttachmentURLTTL)
	}
	if uploadsPath == "" {
		uploadsPath = "/uploads/"
	}
	x := &ImageExtractor{
		resolver:    resolver,
		urls:        urls,
		uploadsDir:  uploadsDir,
		uploadsPath: uploadsPath,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the distinct images referenced by the item's content.
func (x *ImageExtractor) Extract(ctx context.Context, it Item) []Image {
	if strings.TrimSpace(it.Content) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(it.Content))
	if err != nil {
		x.logger.Debug("parse content for images", "id", it.ID, "error", err)
		return nil
	}
	seen := make(map[string]struct{})
	var images []Image
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", s.AttrOr("data-src", "")))
		if m := reAttachmentClass.FindStringSubmatch(s.AttrOr("class", "")); m != nil {
			id, _ := strconv.ParseInt(m[1], 10, 64)
			if u := x.resolve(ctx, id); u != "" {
				src = u
			}
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}

		img := Image{
			URL:     src,
			Caption: strings.TrimSpace(s.AttrOr("alt", "")),
			Title:   strings.TrimSpace(s.AttrOr("title", "")),
			Width:   atoiOrZero(s.AttrOr("width", "")),
			Height:  atoiOrZero(s.AttrOr("height", "")),
		}
		if u, err := url.Parse(src); err == nil {
			img.MIME, _, _ = mime.ParseMediaType(mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))))
		}
		if img.MIME != "" && !strings.HasPrefix(img.MIME, "image/") {
			return
		}
		if x.minSize > 0 {
			if img.Width == 0 || img.Height == 0 {
				x.measure(&img)
			}
			if x.tooSmall(img) {
				return
			}
		}
		images = append(images, img)
	})
	return images
}

// Persist flushes newly discovered attachment URLs.
func (x *ImageExtractor) Persist() error {
	return x.urls.Persist()
}

func (x *ImageExtractor) resolve(ctx context.Context, id int64) string {
	if u, ok := x.urls.Lookup(id); ok {
		return u
	}
	if x.resolver == nil {
		return ""
	}
	u, err := x.resolver.AttachmentURL(ctx, id)
	if err != nil {
		x.logger.Debug("resolve attachment", "id", id, "error", err)
		return ""
	}
	if u != "" {
		x.urls.Remember(id, u)
	}
	return u
}

// measure fills width, height and MIME from the local upload, if any.
func (x *ImageExtractor) measure(img *Image) {
	if x.uploadsDir == "" {
		return
	}
	u, err := url.Parse(img.URL)
	if err != nil || !strings.HasPrefix(u.Path, x.uploadsPath) {
		return
	}
	rel := filepath.FromSlash(path.Clean("/" + strings.TrimPrefix(u.Path, x.uploadsPath)))
	f, err := os.Open(filepath.Join(x.uploadsDir, rel))
	if err != nil {
		return
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	if img.MIME == "" {
		img.MIME = "image/" + format
	}
}

func (x *ImageExtractor) tooSmall(img Image) bool {
	return (img.Width > 0 && img.Width < x.minSize) || (img.Height > 0 && img.Height < x.minSize)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

package sitemap

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memSettings struct {
	values map[string]string
	writes int
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) GetSetting(key string) (string, error) {
	return m.values[key], nil
}

func (m *memSettings) SetSetting(key, value string) error {
	m.values[key] = value
	m.writes++
	return nil
}

func TestImageExtractor(t *testing.T) {
	src := NewMemorySource()
	src.AddAttachment(12, "https://example.com/uploads/full.jpg")
	x := NewImageExtractor(src, nil, "", "", discardLogger())

	images := x.Extract(context.Background(), Item{
		ID: 1,
		Content: `<p>Hello</p>
<img class="aligncenter wp-image-12" src="/uploads/full-300x200.jpg" alt="A cat" title="Cat" width="300" height="200px">
<img src="/uploads/other.png">
<img src="/uploads/other.png" alt="again">
<img src="data:image/gif;base64,R0lGOD">
<img data-src="/lazy.webp">`,
	})
	if len(images) != 3 {
		t.Fatalf("len(images) = %d, want 3: %+v", len(images), images)
	}
	first := images[0]
	if first.URL != "https://example.com/uploads/full.jpg" {
		t.Errorf("URL = %q, want attachment url", first.URL)
	}
	if first.Caption != "A cat" || first.Title != "Cat" {
		t.Errorf("Caption, Title = %q, %q", first.Caption, first.Title)
	}
	if first.Width != 300 || first.Height != 200 {
		t.Errorf("size = %dx%d, want 300x200", first.Width, first.Height)
	}
	if first.MIME != "image/jpeg" {
		t.Errorf("MIME = %q, want image/jpeg", first.MIME)
	}
	if images[1].URL != "/uploads/other.png" || images[2].URL != "/lazy.webp" {
		t.Errorf("images = %+v", images)
	}

	if got := x.Extract(context.Background(), Item{ID: 2}); got != nil {
		t.Errorf("empty content gave %+v", got)
	}
}

func TestImageExtractorMeasuresUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "2024"), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "2024", "dot.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	x := NewImageExtractor(nil, nil, dir, "/uploads/", discardLogger(), WithMinImageSize(2))
	images := x.Extract(context.Background(), Item{Content: `<img src="https://example.com/uploads/2024/dot.png">`})
	if len(images) != 1 {
		t.Fatalf("len(images) = %d, want 1", len(images))
	}
	if images[0].Width != 4 || images[0].Height != 3 {
		t.Errorf("size = %dx%d, want 4x3", images[0].Width, images[0].Height)
	}
	if images[0].MIME != "image/png" {
		t.Errorf("MIME = %q, want image/png", images[0].MIME)
	}

	strict := NewImageExtractor(nil, nil, dir, "/uploads/", discardLogger(), WithMinImageSize(16))
	images = strict.Extract(context.Background(), Item{Content: `
<img src="/uploads/2024/dot.png">
<img src="/uploads/missing.png">
<img src="https://cdn.example.com/hero.jpg" width="640" height="360">
<img src="https://cdn.example.com/pixel.gif" width="1" height="1">`})
	if len(images) != 2 {
		t.Fatalf("len(images) = %d, want 2: %+v", len(images), images)
	}
	if images[0].URL != "/uploads/missing.png" || images[1].URL != "https://cdn.example.com/hero.jpg" {
		t.Errorf("images = %+v, want the unmeasurable upload and the hero", images)
	}
}

func TestImageExtractorSkipsNonImages(t *testing.T) {
	x := NewImageExtractor(nil, nil, "", "", discardLogger())
	images := x.Extract(context.Background(), Item{Content: `<img src="/track.html"><img src="/photo.jpg"><img src="/resize?id=4">`})
	if len(images) != 2 {
		t.Fatalf("len(images) = %d, want 2: %+v", len(images), images)
	}
	if images[0].URL != "/photo.jpg" || images[1].URL != "/resize?id=4" {
		t.Errorf("images = %+v", images)
	}
}

func TestURLCachePersists(t *testing.T) {
	store := newMemSettings()
	c := NewURLCache(store, time.Hour)
	c.Remember(5, "https://example.com/a.png")
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}

	reloaded := NewURLCache(store, time.Hour)
	if u, ok := reloaded.Lookup(5); !ok || u != "https://example.com/a.png" {
		t.Errorf("Lookup(5) = %q, %v", u, ok)
	}
}

func TestURLCacheExpires(t *testing.T) {
	store := newMemSettings()
	now := baseTime
	c := NewURLCache(store, time.Hour)
	c.now = func() time.Time { return now }
	c.Remember(5, "https://example.com/a.png")
	if err := c.Persist(); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Lookup(5); ok {
		t.Errorf("expected mapping to expire")
	}
	reloaded := NewURLCache(store, time.Hour)
	reloaded.now = func() time.Time { return now }
	if _, ok := reloaded.Lookup(5); ok {
		t.Errorf("expected stale snapshot to be ignored")
	}
}

package sitemap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func renderString(t *testing.T, r *Renderer, entries []Entry) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Page(entries, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return buf.String()
}

func TestNewRendererRejectsRelativeOrigin(t *testing.T) {
	for _, u := range []string{"", "example.com", "/blog"} {
		if _, err := NewRenderer(SiteInfo{URL: u}, nil); !errors.Is(err, ErrBadOrigin) {
			t.Errorf("NewRenderer(%q) err = %v, want ErrBadOrigin", u, err)
		}
	}
}

func TestRendererAbsolute(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	tests := map[string]string{
		"/post/1":                       "https://example.com/post/1",
		"post/1":                        "https://example.com/post/1",
		"https://cdn.example.net/a.png": "https://cdn.example.net/a.png",
	}
	for in, want := range tests {
		if got := r.Absolute(in); got != want {
			t.Errorf("Absolute(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatPriority(t *testing.T) {
	tests := map[int]string{
		-1: "",
		0:  "0.0",
		5:  "0.5",
		7:  "0.7",
		10: "1.0",
		11: "",
	}
	for in, want := range tests {
		if got := FormatPriority(in); got != want {
			t.Errorf("FormatPriority(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRendererEscapesAndFormats(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	body := renderString(t, r, []Entry{{
		URL:       "/search?a=1&b=<2>",
		LastMod:   time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Priority:  7,
		Frequency: FrequencyDaily,
		Kind:      KindPosts,
		Images: []Image{{
			URL:     "/uploads/cat.png",
			Caption: `Tom & "Jerry"`,
		}},
	}})

	for _, want := range []string{
		"<loc>https://example.com/search?a=1&amp;b=&lt;2&gt;</loc>",
		"<lastmod>2024-05-06T07:08:09Z</lastmod>",
		"<changefreq>daily</changefreq>",
		"<priority>0.7</priority>",
		`xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`,
		"<image:loc>https://example.com/uploads/cat.png</image:loc>",
		"<image:caption>Tom &amp; &#34;Jerry&#34;</image:caption>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered page is missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "xmlns:news") {
		t.Errorf("news namespace without news entries:\n%s", body)
	}
}

func TestRendererOmitsUnresolvedFrequency(t *testing.T) {
	cfg := testConfig()
	cfg.Posts.Frequency = FrequencyDefault
	r := newTestRenderer(t, cfg)
	body := renderString(t, r, []Entry{{URL: "/a", Frequency: FrequencyDefault, Priority: PriorityInherit, Kind: KindPosts}})
	if strings.Contains(body, "<changefreq>") {
		t.Errorf("changefreq should be omitted:\n%s", body)
	}
	if strings.Contains(body, "<lastmod>") {
		t.Errorf("zero lastmod should be omitted:\n%s", body)
	}
}

func TestRendererIndexCap(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	refs := make([]IndexRef, MaxURLsPerFile+5)
	for i := range refs {
		refs[i] = IndexRef{URL: "/s.xml"}
	}
	var buf bytes.Buffer
	if err := r.Index(refs, "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if n := strings.Count(buf.String(), "<sitemap>"); n != MaxURLsPerFile {
		t.Errorf("got %d refs, want %d", n, MaxURLsPerFile)
	}
}

func TestStylesheetPath(t *testing.T) {
	tests := []struct {
		f    Family
		kind StylesheetKind
		want string
	}{
		{FamilyStandard, StylesheetPage, "/sitemap.xsl"},
		{FamilyStandard, StylesheetIndex, "/sitemap-index.xsl"},
		{FamilyNews, StylesheetPage, "/news-sitemap.xsl"},
	}
	for _, tt := range tests {
		if got := StylesheetPath(tt.f, tt.kind); got != tt.want {
			t.Errorf("StylesheetPath(%q, %q) = %q, want %q", tt.f, tt.kind, got, tt.want)
		}
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Elapsed: 1500 * time.Millisecond, PeakMemory: 2 * 1000 * 1000}
	if got, want := s.String(), "generated in 1.500 seconds, peak memory 2.0 MB"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

package robots

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/eringen/goferseo/cache"
)

const hostRobots = `# WordPress
Sitemap: https://example.com/wp-sitemap.xml

User-agent: *
Disallow: /wp-admin/
Allow: /wp-admin/admin-ajax.php

User-agent: Googlebot
User-agent: Bingbot
Crawl-delay: 2
Disallow: /private/
Noindex: /ignored/
`

func TestParse(t *testing.T) {
	p := Parse(hostRobots)

	if got, want := p.Sitemaps(), []string{"https://example.com/wp-sitemap.xml"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sitemaps() = %v, want %v", got, want)
	}
	rules := p.Rules()
	if len(rules) != 3 {
		t.Fatalf("len(Rules()) = %d, want 3", len(rules))
	}
	star := rules[0]
	if star.UserAgent != "*" || len(star.Paths) != 2 {
		t.Errorf("* rule = %+v", star)
	}
	for _, agent := range []string{"Googlebot", "bingbot"} {
		r, ok := p.Get(agent)
		if !ok {
			t.Fatalf("missing rule for %s", agent)
		}
		if r.CrawlDelay != 2 {
			t.Errorf("%s CrawlDelay = %d, want 2", agent, r.CrawlDelay)
		}
		if !reflect.DeepEqual(r.Paths, []PathRule{{Path: "/private/", Directive: Disallow}}) {
			t.Errorf("%s Paths = %+v", agent, r.Paths)
		}
	}
}

func TestParseDropsMalformedLines(t *testing.T) {
	p := Parse("garbage\nDisallow: /orphan\nUser-agent: a\nCrawl-delay: soon\nCrawl-delay: -3\nUser-agent: lonely\n")
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0: %+v", p.Len(), p.Rules())
	}
}

func TestParseRepeatedAgentAccumulates(t *testing.T) {
	p := Parse("User-agent: a\nDisallow: /x\n\nUser-agent: A\nDisallow: /y\n")
	r, ok := p.Get("a")
	if !ok || len(r.Paths) != 2 {
		t.Fatalf("rule = %+v, %v", r, ok)
	}
	if r.UserAgent != "a" {
		t.Errorf("UserAgent = %q, want first spelling", r.UserAgent)
	}
}

type triple struct {
	agent string
	rule  PathRule
}

func triples(p *Policy) map[triple]bool {
	out := make(map[triple]bool)
	for _, r := range p.Rules() {
		for _, pr := range r.Paths {
			out[triple{strings.ToLower(r.UserAgent), pr}] = true
		}
	}
	return out
}

func TestRenderParseRoundTrip(t *testing.T) {
	orig := Parse(hostRobots)
	again := Parse(Render(orig))

	if !reflect.DeepEqual(orig.Sitemaps(), again.Sitemaps()) {
		t.Errorf("sitemaps changed: %v -> %v", orig.Sitemaps(), again.Sitemaps())
	}
	if !reflect.DeepEqual(triples(orig), triples(again)) {
		t.Errorf("rules changed:\n%s", Render(orig))
	}
}

func TestRender(t *testing.T) {
	p := NewPolicy()
	p.AddSitemap("https://example.com/sitemap.xml")
	p.Set(Rule{UserAgent: "*", CrawlDelay: 5, Paths: []PathRule{{Path: "/tmp/", Directive: Disallow}, {Path: "/tmp/ok", Directive: Allow}}})
	p.Set(Rule{UserAgent: "Bad", Paths: []PathRule{{Path: "/", Directive: Disallow}}})

	want := `Sitemap: https://example.com/sitemap.xml

User-agent: *
Crawl-delay: 5
Disallow: /tmp/
Allow: /tmp/ok

User-agent: Bad
Disallow: /
`
	if got := Render(p); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestMergeReplacesWholeAgentBlock(t *testing.T) {
	base := Parse("User-agent: *\nDisallow: /wp-admin/\n")
	cfg := Config{Rules: []RuleConfig{{UserAgent: "*", CrawlDelay: 5, Paths: []PathConfig{DisallowPath("/private/")}}}}

	got := Render(Merge(base, cfg.Policy()))
	want := "User-agent: *\nCrawl-delay: 5\nDisallow: /private/\n"
	if got != want {
		t.Errorf("merged =\n%s\nwant\n%s", got, want)
	}
}

func TestConfigPolicyKeepsPathOrder(t *testing.T) {
	cfg := Config{Rules: []RuleConfig{{
		UserAgent: "*",
		Paths: []PathConfig{
			AllowPath("/private/public/"),
			DisallowPath("/private/"),
			AllowPath("/feed/"),
			DisallowPath(""),
		},
	}}}

	got := Render(cfg.Policy())
	want := "User-agent: *\nAllow: /private/public/\nDisallow: /private/\nAllow: /feed/\nDisallow:\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestConfigPathsFromYAML(t *testing.T) {
	var cfg Config
	data := "rules:\n  - user_agent: \"*\"\n    paths:\n      - allow: /a/b\n      - disallow: /a/\n      - disallow: \"\"\n"
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatal(err)
	}
	got := Render(cfg.Policy())
	want := "User-agent: *\nAllow: /a/b\nDisallow: /a/\nDisallow:\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestMergeKeepsUntouchedAgents(t *testing.T) {
	base := Parse(hostRobots)
	overrides := NewPolicy()
	overrides.Set(Rule{UserAgent: "GOOGLEBOT", Paths: []PathRule{{Path: "/", Directive: Allow}}})
	overrides.Set(Rule{UserAgent: "AhrefsBot", Paths: []PathRule{{Path: "/", Directive: Disallow}}})
	overrides.AddSitemap("https://example.com/sitemap.xml")
	overrides.AddSitemap("https://example.com/wp-sitemap.xml")

	merged := Merge(base, overrides)
	for _, r := range base.Rules() {
		if _, ok := merged.Get(r.UserAgent); !ok {
			t.Errorf("base agent %s dropped", r.UserAgent)
		}
	}
	g, _ := merged.Get("googlebot")
	if g.CrawlDelay != 0 || len(g.Paths) != 1 || g.Paths[0].Directive != Allow {
		t.Errorf("googlebot = %+v, want override block", g)
	}
	if g.UserAgent != "GOOGLEBOT" {
		t.Errorf("UserAgent = %q, want override spelling", g.UserAgent)
	}
	wantMaps := []string{"https://example.com/sitemap.xml", "https://example.com/wp-sitemap.xml"}
	if !reflect.DeepEqual(merged.Sitemaps(), wantMaps) {
		t.Errorf("Sitemaps() = %v, want %v", merged.Sitemaps(), wantMaps)
	}
	if _, ok := base.Get("AhrefsBot"); ok {
		t.Errorf("Merge mutated base")
	}
}

func TestMergeOverride(t *testing.T) {
	overrides := NewPolicy()
	overrides.Override = true
	overrides.Set(Rule{UserAgent: "*", Paths: []PathRule{{Path: "/", Directive: Disallow}}})

	merged := Merge(Parse(hostRobots), overrides)
	if merged.Len() != 1 || len(merged.Sitemaps()) != 0 {
		t.Errorf("override kept base content:\n%s", Render(merged))
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Rules: []RuleConfig{
		{UserAgent: " ", Paths: []PathConfig{DisallowPath("/")}},
		{UserAgent: "*", CrawlDelay: -4, Paths: []PathConfig{{}, AllowPath("/a"), {Allow: new(string), Disallow: new(string)}}},
	}}
	if !cfg.Normalize() {
		t.Fatal("expected Normalize to report a change")
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].CrawlDelay != 0 {
		t.Errorf("Rules = %+v", cfg.Rules)
	}
	if len(cfg.Rules[0].Paths) != 1 || *cfg.Rules[0].Paths[0].Allow != "/a" {
		t.Errorf("Paths = %+v, want only the allow entry", cfg.Rules[0].Paths)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL, DefaultCacheTTL)
	}
	if cfg.Normalize() {
		t.Error("second Normalize should be a no-op")
	}
}

func TestBuilder(t *testing.T) {
	dir := t.TempDir()
	hostPath := filepath.Join(dir, "robots.txt")
	if err := os.WriteFile(hostPath, []byte("User-agent: *\nDisallow: /wp-admin/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Rules = []RuleConfig{{UserAgent: "*", CrawlDelay: 5}}
	b := NewBuilder(cfg, HostFile(hostPath), cache.NewMemory[string](), "https://example.com/sitemap.xml")
	ctx := context.Background()

	got, err := b.Build(ctx, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := "Sitemap: https://example.com/sitemap.xml\n\nUser-agent: *\nCrawl-delay: 5\n"
	if got != want {
		t.Errorf("Build(true) =\n%s\nwant\n%s", got, want)
	}

	raw, err := b.Build(ctx, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if raw != "User-agent: *\nDisallow: /wp-admin/\n" {
		t.Errorf("Build(false) = %q", raw)
	}

	if err := os.WriteFile(hostPath, []byte("User-agent: x\nDisallow: /\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if cached, _ := b.Build(ctx, false); cached != raw {
		t.Errorf("expected cached host output, got %q", cached)
	}
	b.Flush()
	if fresh, _ := b.Build(ctx, false); fresh != "User-agent: x\nDisallow: /\n" {
		t.Errorf("expected fresh host output after Flush, got %q", fresh)
	}
}

func TestHostFileMissing(t *testing.T) {
	text, err := HostFile(filepath.Join(t.TempDir(), "nope.txt"))(context.Background())
	if err != nil {
		t.Fatalf("HostFile failed: %v", err)
	}
	if text != DefaultHostRobots {
		t.Errorf("text = %q, want default", text)
	}
}

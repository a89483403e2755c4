package robots

import (
	"strconv"
	"strings"
)

// Render writes p as robots.txt text: sitemap lines first, then one block
// per agent separated by blank lines.
func Render(p *Policy) string {
	var b strings.Builder
	for _, u := range p.sitemaps {
		b.WriteString("Sitemap: ")
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if len(p.sitemaps) > 0 && p.Len() > 0 {
		b.WriteByte('\n')
	}
	for i, r := range p.Rules() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("User-agent: ")
		b.WriteString(r.UserAgent)
		b.WriteByte('\n')
		if r.CrawlDelay > 0 {
			b.WriteString("Crawl-delay: ")
			b.WriteString(strconv.Itoa(r.CrawlDelay))
			b.WriteByte('\n')
		}
		for _, pr := range r.Paths {
			if pr.Directive == Allow {
				b.WriteString("Allow:")
			} else {
				b.WriteString("Disallow:")
			}
			if pr.Path != "" {
				b.WriteByte(' ')
				b.WriteString(pr.Path)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

package robots

import (
	"bufio"
	"strconv"
	"strings"
)

// Parse absorbs robots.txt text into a Policy. Only Sitemap, User-agent,
// Allow, Disallow and Crawl-delay lines are understood; anything else is
// dropped. Consecutive User-agent lines share the rules that follow them,
// agents without any rule are dropped and a repeated agent accumulates.
func Parse(text string) *Policy {
	p := NewPolicy()

	var (
		group   []*Rule
		pending bool // the last line seen was a User-agent line
	)
	flush := func() {
		for _, r := range group {
			if r.CrawlDelay == 0 && len(r.Paths) == 0 {
				continue
			}
			if cur, ok := p.Get(r.UserAgent); ok {
				if r.CrawlDelay > 0 {
					cur.CrawlDelay = r.CrawlDelay
				}
				cur.Paths = append(cur.Paths, r.Paths...)
				p.Set(cur)
				continue
			}
			p.Set(*r)
		}
		group = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "sitemap":
			p.AddSitemap(value)
			continue
		case "user-agent":
			if value == "" {
				continue
			}
			if !pending {
				flush()
			}
			group = append(group, &Rule{UserAgent: value})
			pending = true
			continue
		}

		pending = false
		if len(group) == 0 {
			continue
		}
		switch key {
		case "allow", "disallow":
			pr := PathRule{Path: value, Directive: Directive(key)}
			for _, r := range group {
				r.Paths = append(r.Paths, pr)
			}
		case "crawl-delay":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				continue
			}
			for _, r := range group {
				r.CrawlDelay = n
			}
		}
	}
	flush()
	return p
}

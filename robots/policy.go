// Package robots absorbs the host's robots.txt output, merges it with the
// rules configured here and renders the result.
package robots

import (
	"slices"
	"strings"
)

// Directive is the verb of a path rule.
type Directive string

const (
	Allow    Directive = "allow"
	Disallow Directive = "disallow"
)

// PathRule is one Allow or Disallow line.
type PathRule struct {
	Path      string
	Directive Directive
}

// Rule is everything a robots.txt says about one user agent.
type Rule struct {
	UserAgent  string
	CrawlDelay int
	Paths      []PathRule
}

func (r Rule) clone() Rule {
	r.Paths = slices.Clone(r.Paths)
	return r
}

// Policy is an ordered set of agent rules plus sitemap URLs. Agent tokens
// compare case-insensitively; the first spelling seen is kept for output.
type Policy struct {
	Override bool

	order    []string
	rules    map[string]Rule
	sitemaps []string
}

// NewPolicy returns an empty Policy.
func NewPolicy() *Policy {
	return &Policy{rules: make(map[string]Rule)}
}

func agentKey(agent string) string {
	return strings.ToLower(strings.TrimSpace(agent))
}

// Set replaces the rule of r.UserAgent, keeping its position when the
// agent already exists.
func (p *Policy) Set(r Rule) {
	key := agentKey(r.UserAgent)
	if key == "" {
		return
	}
	if p.rules == nil {
		p.rules = make(map[string]Rule)
	}
	if _, ok := p.rules[key]; !ok {
		p.order = append(p.order, key)
	}
	p.rules[key] = r.clone()
}

// Get returns the rule of agent.
func (p *Policy) Get(agent string) (Rule, bool) {
	r, ok := p.rules[agentKey(agent)]
	if !ok {
		return Rule{}, false
	}
	return r.clone(), true
}

// Rules returns every agent rule in insertion order.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, 0, len(p.order))
	for _, key := range p.order {
		out = append(out, p.rules[key].clone())
	}
	return out
}

// Len returns the number of agents.
func (p *Policy) Len() int {
	return len(p.order)
}

// AddSitemap appends a sitemap URL unless it is already listed.
func (p *Policy) AddSitemap(u string) {
	u = strings.TrimSpace(u)
	if u == "" || slices.Contains(p.sitemaps, u) {
		return
	}
	p.sitemaps = append(p.sitemaps, u)
}

// Sitemaps returns the sitemap URLs in insertion order.
func (p *Policy) Sitemaps() []string {
	return slices.Clone(p.sitemaps)
}

// Clone returns a deep copy of p.
func (p *Policy) Clone() *Policy {
	c := NewPolicy()
	c.Override = p.Override
	for _, r := range p.Rules() {
		c.Set(r)
	}
	c.sitemaps = slices.Clone(p.sitemaps)
	return c
}

package crawlers

//go:generate mockgen -source=resolver.go -destination=mock_resolver_test.go -package=crawlers

import (
	"context"
	"net"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// Resolver performs the reverse and forward lookups of the whitelist check.
// *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

var _ Resolver = (*net.Resolver)(nil)

// WhitelistEntry allows a crawler whose user agent contains Agent and whose
// address resolves to a host under one of Suffixes.
type WhitelistEntry struct {
	Agent    string   `yaml:"agent"`
	Suffixes []string `yaml:"suffixes"`
}

type whitelistRule struct {
	entry    WhitelistEntry
	agent    string
	suffixes []string
}

// Verifier runs the reverse-then-forward DNS check against a whitelist.
type Verifier struct {
	rules    []whitelistRule
	resolver Resolver
	timeout  time.Duration
}

// NewVerifier normalizes the whitelist. A nil resolver uses
// net.DefaultResolver.
func NewVerifier(entries []WhitelistEntry, resolver Resolver, timeout time.Duration) *Verifier {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	v := &Verifier{resolver: resolver, timeout: timeout}
	for _, e := range entries {
		agent := strings.ToLower(strings.TrimSpace(e.Agent))
		if agent == "" {
			continue
		}
		r := whitelistRule{entry: e, agent: agent}
		for _, s := range e.Suffixes {
			if s = normalizeHost(s); s != "" {
				r.suffixes = append(r.suffixes, s)
			}
		}
		if len(r.suffixes) > 0 {
			v.rules = append(v.rules, r)
		}
	}
	return v
}

// normalizeHost lowercases, strips dots at either end and converts to the
// ASCII form so PTR answers and configured suffixes compare equal.
func normalizeHost(h string) string {
	h = strings.Trim(strings.TrimSpace(h), ".")
	if h == "" {
		return ""
	}
	if a, err := idna.Lookup.ToASCII(h); err == nil {
		h = a
	}
	return strings.ToLower(h)
}

func hasSuffix(host, suffix string) bool {
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// Verify reports whether agent claims a whitelisted crawler and ip round
// trips through DNS to a host under that crawler's suffixes. Lookup errors,
// including the timeout, count as not verified.
func (v *Verifier) Verify(ctx context.Context, agent, ip string) (WhitelistEntry, bool) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return WhitelistEntry{}, false
	}
	ua := strings.ToLower(agent)
	var candidates []whitelistRule
	for _, r := range v.rules {
		if strings.Contains(ua, r.agent) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return WhitelistEntry{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	names, err := v.resolver.LookupAddr(ctx, ip)
	if err != nil {
		return WhitelistEntry{}, false
	}
	for _, name := range names {
		host := normalizeHost(name)
		for _, r := range candidates {
			if !slices.ContainsFunc(r.suffixes, func(s string) bool { return hasSuffix(host, s) }) {
				continue
			}
			if v.forwardMatches(ctx, host, addr) {
				return r.entry, true
			}
		}
	}
	return WhitelistEntry{}, false
}

func (v *Verifier) forwardMatches(ctx context.Context, host string, addr net.IP) bool {
	addrs, err := v.resolver.LookupHost(ctx, host)
	if err != nil {
		return false
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.Equal(addr) {
			return true
		}
	}
	return false
}

package robots

// Merge combines the host policy with the configured overrides. With
// overrides.Override set the base is discarded. Otherwise every agent of
// overrides replaces the base agent's whole rule; agents only in base are
// kept. Sitemap URLs are concatenated overrides first, without duplicates.
func Merge(base, overrides *Policy) *Policy {
	if overrides == nil {
		overrides = NewPolicy()
	}
	if overrides.Override || base == nil {
		return overrides.Clone()
	}

	out := base.Clone()
	out.Override = false
	for _, r := range overrides.Rules() {
		out.Set(r)
	}
	sitemaps := out.sitemaps
	out.sitemaps = nil
	for _, u := range overrides.sitemaps {
		out.AddSitemap(u)
	}
	for _, u := range sitemaps {
		out.AddSitemap(u)
	}
	return out
}

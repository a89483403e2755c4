package sitemap

import (
	"regexp"
	"strconv"
)

// RouteType is the dispatcher state a virtual path resolves to.
type RouteType int

const (
	RouteUnmatched RouteType = iota
	RouteStylesheet
	RouteIndex
	RoutePage
)

// Route is a parsed virtual sitemap path.
type Route struct {
	Type       RouteType
	Family     Family
	Kind       Kind
	Subtype    string
	Page       int
	Stylesheet StylesheetKind
}

var (
	reIndex      = regexp.MustCompile(`^/(?:(news|rss)-)?sitemap\.xml$`)
	reStylesheet = regexp.MustCompile(`^/(?:(news|rss)-)?sitemap(-index)?\.xsl$`)
	rePage       = regexp.MustCompile(`^/(?:(news|rss)-)?sitemap-([a-z_]+)(?:-(.+?))?-(0|[1-9][0-9]*)\.xml$`)
)

// ParseRoute maps a request path to a Route. Paths outside the sitemap
// namespace, including page numbers with leading zeros, return
// RouteUnmatched.
func ParseRoute(path string) Route {
	if m := reIndex.FindStringSubmatch(path); m != nil {
		return Route{Type: RouteIndex, Family: Family(m[1])}
	}
	if m := reStylesheet.FindStringSubmatch(path); m != nil {
		kind := StylesheetPage
		if m[2] != "" {
			kind = StylesheetIndex
		}
		return Route{Type: RouteStylesheet, Family: Family(m[1]), Stylesheet: kind}
	}
	if m := rePage.FindStringSubmatch(path); m != nil {
		page, err := strconv.Atoi(m[4])
		if err != nil {
			// Overflowing page numbers still belong to us; page 0 renders nothing.
			page = 0
		}
		f := Family(m[1])
		return Route{
			Type:    RoutePage,
			Family:  f,
			Kind:    KindFor(f, m[2]),
			Subtype: m[3],
			Page:    page,
		}
	}
	return Route{Type: RouteUnmatched}
}

// Path returns the canonical virtual path of r.
func (r Route) Path() string {
	switch r.Type {
	case RouteIndex:
		return "/" + r.Family.Prefix() + "sitemap.xml"
	case RouteStylesheet:
		return StylesheetPath(r.Family, r.Stylesheet)
	case RoutePage:
		return PagePath(r.Kind, r.Subtype, r.Page)
	}
	return ""
}

package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// XML namespaces.
const (
	nsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	nsImage   = "http://www.google.com/schemas/sitemap-image/1.1"
	nsNews    = "http://www.google.com/schemas/sitemap-news/0.9"
)

type sitemapURLSet struct {
	XMLName    xml.Name     `xml:"urlset"`
	XMLNS      string       `xml:"xmlns,attr"`
	XMLNSImage string       `xml:"xmlns:image,attr,omitempty"`
	XMLNSNews  string       `xml:"xmlns:news,attr,omitempty"`
	URLs       []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string         `xml:"loc"`
	LastMod    string         `xml:"lastmod,omitempty"`
	ChangeFreq string         `xml:"changefreq,omitempty"`
	Priority   string         `xml:"priority,omitempty"`
	News       *sitemapNews   `xml:"news:news,omitempty"`
	Images     []sitemapImage `xml:"image:image"`
}

type sitemapImage struct {
	Loc     string `xml:"image:loc"`
	Caption string `xml:"image:caption,omitempty"`
	Title   string `xml:"image:title,omitempty"`
}

type sitemapNews struct {
	Publication     sitemapPublication `xml:"news:publication"`
	PublicationDate string             `xml:"news:publication_date"`
	Title           string             `xml:"news:title"`
}

type sitemapPublication struct {
	Name     string `xml:"news:name"`
	Language string `xml:"news:language"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SiteInfo is the site identity the renderer needs.
type SiteInfo struct {
	URL         string
	Name        string
	Description string
	Language    string
}

// Renderer serializes entries to sitemap, index, RSS and XSL documents.
type Renderer struct {
	origin      *url.URL
	site        SiteInfo
	frequencies map[Kind]Frequency
}

// NewRenderer creates a Renderer for site. frequencies resolves
// FrequencyDefault per kind.
func NewRenderer(site SiteInfo, frequencies map[Kind]Frequency) (*Renderer, error) {
	origin, err := url.Parse(site.URL)
	if err != nil || !origin.IsAbs() {
		return nil, ErrBadOrigin
	}
	if frequencies == nil {
		frequencies = map[Kind]Frequency{}
	}
	return &Renderer{origin: origin, site: site, frequencies: frequencies}, nil
}

// Absolute resolves u against the site origin. Absolute URLs are returned
// unchanged.
func (r *Renderer) Absolute(u string) string {
	ref, err := url.Parse(u)
	if err != nil {
		return u
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return r.origin.ResolveReference(ref).String()
}

// W3CDate formats t as a W3C datetime, or "" for the zero time.
func W3CDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// FormatPriority renders a 0..10 priority as 0.0..1.0. Inherited or
// out-of-range priorities render as "" so the element is omitted.
func FormatPriority(p int) string {
	if p < 0 || p > PriorityMax {
		return ""
	}
	return strconv.FormatFloat(float64(p)/10, 'f', 1, 64)
}

func (r *Renderer) frequency(e Entry) string {
	f := e.Frequency
	if f == FrequencyDefault || f == "" {
		f = r.frequencies[e.Kind]
	}
	if f == FrequencyDefault || !f.Valid() {
		return ""
	}
	return string(f)
}

// Page renders a <urlset> document.
func (r *Renderer) Page(entries []Entry, stylesheet string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		set := sitemapURLSet{XMLNS: nsSitemap, URLs: make([]sitemapURL, 0, len(entries))}
		for _, e := range entries {
			u := sitemapURL{
				Loc:        r.Absolute(e.URL),
				LastMod:    W3CDate(e.LastMod),
				ChangeFreq: r.frequency(e),
				Priority:   FormatPriority(e.Priority),
			}
			for _, img := range e.Images {
				set.XMLNSImage = nsImage
				u.Images = append(u.Images, sitemapImage{
					Loc:     r.Absolute(img.URL),
					Caption: img.Caption,
					Title:   img.Title,
				})
			}
			if e.News != nil {
				set.XMLNSNews = nsNews
				u.News = &sitemapNews{
					Publication: sitemapPublication{
						Name:     e.News.PublicationName,
						Language: e.News.Language,
					},
					PublicationDate: W3CDate(e.News.PublishedAt),
					Title:           e.News.Title,
				}
			}
			set.URLs = append(set.URLs, u)
		}
		return writeXML(w, stylesheet, set)
	})
}

// Index renders a <sitemapindex> document. Refs beyond MaxURLsPerFile are
// dropped.
func (r *Renderer) Index(refs []IndexRef, stylesheet string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if len(refs) > MaxURLsPerFile {
			refs = refs[:MaxURLsPerFile]
		}
		idx := sitemapIndex{XMLNS: nsSitemap, Sitemaps: make([]sitemapRef, 0, len(refs))}
		for _, ref := range refs {
			idx.Sitemaps = append(idx.Sitemaps, sitemapRef{
				Loc:     r.Absolute(ref.URL),
				LastMod: W3CDate(ref.LastMod),
			})
		}
		return writeXML(w, stylesheet, idx)
	})
}

func writeXML(w io.Writer, stylesheet string, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if stylesheet != "" {
		if _, err := fmt.Fprintf(w, "<?xml-stylesheet type=\"text/xsl\" href=\"%s\"?>\n", html.EscapeString(stylesheet)); err != nil {
			return err
		}
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

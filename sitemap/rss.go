package sitemap

import (
	"context"
	"encoding/xml"
	"io"
	"time"

	"github.com/a-h/templ"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate,omitempty"`
	GUID    string `xml:"guid"`
}

// RSS renders entries as an RSS 2.0 channel, newest first as given.
func (r *Renderer) RSS(entries []Entry) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		items := make([]rssItem, 0, len(entries))
		var newest time.Time
		for _, e := range entries {
			link := r.Absolute(e.URL)
			title := e.Title
			if title == "" {
				title = link
			}
			pubDate := ""
			if !e.LastMod.IsZero() {
				pubDate = e.LastMod.Format(time.RFC1123Z)
				if e.LastMod.After(newest) {
					newest = e.LastMod
				}
			}
			items = append(items, rssItem{
				Title:   title,
				Link:    link,
				PubDate: pubDate,
				GUID:    link,
			})
		}
		feed := rssXML{
			Version: "2.0",
			Channel: rssChannel{
				Title:       r.site.Name,
				Link:        r.origin.String(),
				Description: r.site.Description,
				Language:    r.site.Language,
				Items:       items,
			},
		}
		if !newest.IsZero() {
			feed.Channel.LastBuildDate = newest.Format(time.RFC1123Z)
		}
		return writeXML(w, "", feed)
	})
}

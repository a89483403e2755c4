package goferseo

import (
	"time"

	"github.com/eringen/goferseo/content"
	"github.com/eringen/goferseo/sitemap"
)

// Post is a row of the posts table: posts, pages, custom types and
// attachments alike.
type Post struct {
	ID          int64
	Type        string
	Slug        string
	Title       string
	Content     string
	Status      content.Status
	AuthorID    int64
	PublishedAt time.Time
	ModifiedAt  time.Time
	Priority    int
	Frequency   sitemap.Frequency
	Exclude     bool
	GUID        string // canonical file URL of attachments
}

// Term is a taxonomy term such as a category or tag.
type Term struct {
	ID        int64
	Taxonomy  string
	Slug      string
	Name      string
	Priority  int
	Frequency sitemap.Frequency
	Exclude   bool
}

// User is a content author.
type User struct {
	ID        int64
	Slug      string
	Name      string
	Priority  int
	Frequency sitemap.Frequency
	Exclude   bool
}

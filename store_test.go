package goferseo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/goferseo/content"
	"github.com/eringen/goferseo/sitemap"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreatePost(t *testing.T, s *Store, p Post) int64 {
	t.Helper()
	id, err := s.CreatePost(context.Background(), p)
	if err != nil {
		t.Fatalf("create post %q: %v", p.Title, err)
	}
	return id
}

var testDay = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)

	v, err := s.GetSetting("missing")
	if err != nil || v != "" {
		t.Fatalf("missing setting = %q, %v; want empty", v, err)
	}
	if err := s.SetSetting("k", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSetting("k", "two"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if v, _ := s.GetSetting("k"); v != "two" {
		t.Fatalf("setting = %q, want two", v)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := mustCreatePost(t, s, Post{Title: "Hello World", Content: "<p>hi</p>", ModifiedAt: testDay})
	p, err := s.GetPost(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", p.Slug)
	}
	if p.Type != "post" || p.Status != content.StatusDraft {
		t.Errorf("defaults = %q/%q, want post/draft", p.Type, p.Status)
	}
	if p.Frequency != sitemap.FrequencyDefault {
		t.Errorf("frequency = %q, want default", p.Frequency)
	}
	if !p.ModifiedAt.Equal(testDay) {
		t.Errorf("modified = %v, want %v", p.ModifiedAt, testDay)
	}

	if _, err := s.GetPost(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing post err = %v, want ErrNotFound", err)
	}
}

func TestSetPostStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := mustCreatePost(t, s, Post{Type: "page", Title: "About"})

	ev, err := s.SetPostStatus(ctx, id, content.StatusPublish)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	want := content.Transitioned{OldStatus: content.StatusDraft, NewStatus: content.StatusPublish, Kind: "page", ID: id}
	if ev != want {
		t.Fatalf("transition = %+v, want %+v", ev, want)
	}
	p, _ := s.GetPost(ctx, id)
	if p.PublishedAt.IsZero() {
		t.Fatal("publishing should stamp published_at")
	}
	first := p.PublishedAt

	if _, err := s.SetPostStatus(ctx, id, content.StatusDraft); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := s.SetPostStatus(ctx, id, content.StatusPublish); err != nil {
		t.Fatalf("republish: %v", err)
	}
	p, _ = s.GetPost(ctx, id)
	if !p.PublishedAt.Equal(first) {
		t.Errorf("republish changed published_at from %v to %v", first, p.PublishedAt)
	}

	if _, err := s.SetPostStatus(ctx, id, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("bogus status err = %v, want ErrInvalidStatus", err)
	}
	if _, err := s.SetPostStatus(ctx, 999, content.StatusPublish); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing post err = %v, want ErrNotFound", err)
	}
}

func TestAttachmentURL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	id := mustCreatePost(t, s, Post{Type: "attachment", Title: "photo", GUID: "https://example.com/uploads/photo.png"})

	u, err := s.AttachmentURL(ctx, id)
	if err != nil || u != "https://example.com/uploads/photo.png" {
		t.Fatalf("attachment url = %q, %v", u, err)
	}
	u, err = s.AttachmentURL(ctx, 999)
	if err != nil || u != "" {
		t.Fatalf("missing attachment = %q, %v; want empty", u, err)
	}
}

// seedSite creates three published posts, one draft, one excluded post, a
// page, an attachment, one author and two terms.
func seedSite(t *testing.T, s *Store) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	ids := make(map[string]int64)

	author, err := s.CreateUser(ctx, User{Name: "Jane Doe", Priority: -1})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	cat, err := s.CreateTerm(ctx, Term{Taxonomy: "category", Name: "News", Priority: -1})
	if err != nil {
		t.Fatalf("create term: %v", err)
	}
	tag, err := s.CreateTerm(ctx, Term{Taxonomy: "post_tag", Name: "Unused", Priority: -1})
	if err != nil {
		t.Fatalf("create term: %v", err)
	}
	ids["category"], ids["tag"], ids["author"] = cat, tag, author

	posts := []struct {
		key  string
		post Post
	}{
		{"first", Post{Title: "First", AuthorID: author, ModifiedAt: testDay, Priority: -1}},
		{"second", Post{Title: "Second", AuthorID: author, ModifiedAt: testDay.Add(time.Hour), Priority: 8}},
		{"third", Post{Title: "Third", AuthorID: author, ModifiedAt: testDay.Add(2 * time.Hour), Priority: -1}},
		{"draft", Post{Title: "Draft", AuthorID: author, Priority: -1}},
		{"hidden", Post{Title: "Hidden", AuthorID: author, Exclude: true, Priority: -1}},
		{"about", Post{Type: "page", Title: "About", Priority: -1}},
		{"photo", Post{Type: "attachment", Title: "Photo", GUID: "https://example.com/uploads/p.png"}},
	}
	for _, p := range posts {
		ids[p.key] = mustCreatePost(t, s, p.post)
		if p.key == "draft" {
			continue
		}
		if _, err := s.SetPostStatus(ctx, ids[p.key], content.StatusPublish); err != nil {
			t.Fatalf("publish %s: %v", p.key, err)
		}
	}
	if err := s.AttachTerm(ctx, ids["first"], cat); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := s.AttachTerm(ctx, ids["draft"], tag); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return ids
}

func TestStoreSourcePosts(t *testing.T) {
	s := setupTestStore(t)
	ids := seedSite(t, s)
	ctx := context.Background()

	subs, err := s.Subtypes(ctx, sitemap.KindPosts)
	if err != nil {
		t.Fatalf("subtypes: %v", err)
	}
	if len(subs) != 2 || subs[0] != "page" || subs[1] != "post" {
		t.Fatalf("subtypes = %v, want [page post]", subs)
	}

	st, err := s.Stat(ctx, sitemap.Query{Kind: sitemap.KindPosts, Subtypes: []string{"post"}})
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Total != 3 {
		t.Fatalf("total = %d, want 3 (draft, excluded and attachment hidden)", st.Total)
	}

	items, err := s.List(ctx, sitemap.Query{
		Kind:       sitemap.KindPosts,
		Subtypes:   []string{"post"},
		ExcludeIDs: []int64{ids["second"]},
		Offset:     1,
		Limit:      5,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != ids["third"] {
		t.Fatalf("items = %+v, want only third (exclusion before paging)", items)
	}
	if items[0].URL != "/third/" {
		t.Errorf("url = %q, want /third/", items[0].URL)
	}
}

func TestStoreSourceTaxonomiesAndUsers(t *testing.T) {
	s := setupTestStore(t)
	ids := seedSite(t, s)
	ctx := context.Background()

	terms, err := s.List(ctx, sitemap.Query{Kind: sitemap.KindTaxonomies})
	if err != nil {
		t.Fatalf("list terms: %v", err)
	}
	if len(terms) != 1 || terms[0].ID != ids["category"] || terms[0].URL != "/category/news/" {
		t.Fatalf("terms = %+v, want only the category with a published post", terms)
	}

	users, err := s.List(ctx, sitemap.Query{Kind: sitemap.KindUsers, ExcludeIDs: []int64{ids["author"]}})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].URL != "/author/jane-doe/" || users[0].Subtype != "" {
		t.Fatalf("users = %+v, want the author (post exclusions do not apply)", users)
	}
}

func TestStoreSourceDates(t *testing.T) {
	s := setupTestStore(t)
	seedSite(t, s)
	ctx := context.Background()

	items, err := s.List(ctx, sitemap.Query{Kind: sitemap.KindDates})
	if err != nil {
		t.Fatalf("list dates: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("dates = %+v, want one month", items)
	}
	now := time.Now().UTC()
	if want := now.Format("/2006/01/"); items[0].URL != want {
		t.Errorf("url = %q, want %q", items[0].URL, want)
	}
	if want := now.Format("2006"); items[0].Subtype != want {
		t.Errorf("subtype = %q, want %q", items[0].Subtype, want)
	}
}

func TestStoreUnknownKind(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.Stat(context.Background(), sitemap.Query{Kind: "widgets"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

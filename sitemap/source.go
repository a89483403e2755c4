package sitemap

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// Query selects items of one kind from a Source. Implementations must drop
// excluded items (per-item flag, or ExcludeIDs for posts) before applying
// Offset and Limit, and must order results by ID ascending.
type Query struct {
	Kind       Kind     // base kind: posts, taxonomies, users or dates
	Subtypes   []string // nil selects every subtype
	ExcludeIDs []int64
	Since      time.Time // zero disables the publication-date filter
	Offset     int
	Limit      int // zero means no limit
}

// Stat summarizes the items a Query selects, ignoring Offset and Limit.
type Stat struct {
	Total   int
	LastMod time.Time
}

// Item is one content item as the host content store describes it.
type Item struct {
	ID        int64
	Subtype   string
	URL       string
	LastMod   time.Time
	Published time.Time
	Title     string
	Content   string
	Priority  int // -1 leaves <priority> out
	Frequency Frequency
	Exclude   bool
}

// Source is the host content store.
type Source interface {
	// Subtypes lists the subtypes of kind that have at least one visible item.
	Subtypes(ctx context.Context, kind Kind) ([]string, error)
	Stat(ctx context.Context, q Query) (Stat, error)
	List(ctx context.Context, q Query) ([]Item, error)
}

// AttachmentResolver maps attachment ids to their canonical URLs.
type AttachmentResolver interface {
	AttachmentURL(ctx context.Context, id int64) (string, error)
}

// MemorySource is a Source over a fixed item set.
type MemorySource struct {
	mu          sync.RWMutex
	items       map[Kind][]Item
	attachments map[int64]string
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		items:       make(map[Kind][]Item),
		attachments: make(map[int64]string),
	}
}

// Add appends items under kind.
func (m *MemorySource) Add(kind Kind, items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[kind] = append(m.items[kind], items...)
	sort.SliceStable(m.items[kind], func(i, j int) bool {
		return m.items[kind][i].ID < m.items[kind][j].ID
	})
}

// AddAttachment registers the canonical URL of an attachment id.
func (m *MemorySource) AddAttachment(id int64, url string) {
	m.mu.Lock()
	m.attachments[id] = url
	m.mu.Unlock()
}

// AttachmentURL implements AttachmentResolver.
func (m *MemorySource) AttachmentURL(_ context.Context, id int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attachments[id], nil
}

// Subtypes implements Source.
func (m *MemorySource) Subtypes(_ context.Context, kind Kind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, it := range m.items[kind] {
		if !it.Exclude && !slices.Contains(out, it.Subtype) {
			out = append(out, it.Subtype)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemorySource) selectItems(q Query) []Item {
	var out []Item
	for _, it := range m.items[q.Kind] {
		if it.Exclude || (q.Kind == KindPosts && slices.Contains(q.ExcludeIDs, it.ID)) {
			continue
		}
		if q.Subtypes != nil && !slices.Contains(q.Subtypes, it.Subtype) {
			continue
		}
		if !q.Since.IsZero() && it.Published.Before(q.Since) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Stat implements Source.
func (m *MemorySource) Stat(_ context.Context, q Query) (Stat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.selectItems(q)
	st := Stat{Total: len(items)}
	for _, it := range items {
		if it.LastMod.After(st.LastMod) {
			st.LastMod = it.LastMod
		}
	}
	return st, nil
}

// List implements Source.
func (m *MemorySource) List(_ context.Context, q Query) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.selectItems(q)
	if q.Offset < 0 || q.Offset >= len(items) {
		return nil, nil
	}
	items = items[q.Offset:]
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

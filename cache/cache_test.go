package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache() (*Memory[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemory[string]()
	c.now = clock.Now
	return c, clock
}

func TestMemoryGetSet(t *testing.T) {
	c, _ := newTestCache()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
	c.Set("robots", "User-agent: *", time.Hour)
	got, ok := c.Get("robots")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got != "User-agent: *" {
		t.Errorf("Get = %q, want %q", got, "User-agent: *")
	}
}

func TestMemoryExpiry(t *testing.T) {
	c, clock := newTestCache()
	c.Set("robots", "body", time.Hour)

	clock.Advance(59 * time.Minute)
	if _, ok := c.Get("robots"); !ok {
		t.Fatal("expected entry to survive before ttl")
	}
	clock.Advance(2 * time.Minute)
	if _, ok := c.Get("robots"); ok {
		t.Fatal("expected entry to expire after ttl")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after lazy eviction", c.Len())
	}
}

func TestMemoryNoTTL(t *testing.T) {
	c, clock := newTestCache()
	c.Set("k", "v", 0)
	clock.Advance(365 * 24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected zero ttl entry to never expire")
	}
}

func TestMemoryDeleteAndFlush(t *testing.T) {
	c, _ := newTestCache()
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}
	c.Flush()
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be flushed")
	}
}

func TestMemoryReplaceWholeValue(t *testing.T) {
	c, _ := newTestCache()
	c.Set("k", "old", time.Hour)
	c.Set("k", "new", time.Hour)
	if got, _ := c.Get("k"); got != "new" {
		t.Errorf("Get = %q, want %q", got, "new")
	}
}

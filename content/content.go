// Package content defines the content lifecycle events emitted by the host
// content store and a small synchronous bus that fans them out to observers.
package content

import (
	"context"
	"sync"
)

// Status is the publication status of a content item.
type Status string

const (
	StatusPublish Status = "publish"
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusPrivate Status = "private"
	StatusFuture  Status = "future"
	StatusTrash   Status = "trash"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPublish, StatusDraft, StatusPending, StatusPrivate, StatusFuture, StatusTrash:
		return true
	}
	return false
}

// Transitioned is emitted when a content item changes status.
type Transitioned struct {
	OldStatus Status
	NewStatus Status
	Kind      string // post type, e.g. "post" or "page"
	ID        int64
}

// TouchesPublishOrTrash reports whether the transition moves an item into or
// out of the publish or trash states. Same-status saves never qualify.
func (t Transitioned) TouchesPublishOrTrash() bool {
	if t.OldStatus == t.NewStatus {
		return false
	}
	for _, s := range []Status{t.OldStatus, t.NewStatus} {
		if s == StatusPublish || s == StatusTrash {
			return true
		}
	}
	return false
}

// Observer receives content transitions.
type Observer interface {
	OnTransition(ctx context.Context, ev Transitioned)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Transitioned)

// OnTransition calls f.
func (f ObserverFunc) OnTransition(ctx context.Context, ev Transitioned) {
	f(ctx, ev)
}

// Bus delivers transitions to every subscribed observer in subscription order.
// Observers must not block; slow work belongs in their own goroutines.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers o for all future transitions.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

// Publish delivers ev to every observer.
func (b *Bus) Publish(ctx context.Context, ev Transitioned) {
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		o.OnTransition(ctx, ev)
	}
}

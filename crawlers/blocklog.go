package crawlers

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const blockLogKey = "crawlers_block_log"

// Store persists small string values by key.
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// BlockLog is a size-capped log of blocked requests, newest line first.
type BlockLog struct {
	mu    sync.Mutex
	store Store
	cap   int
	now   func() time.Time
}

// NewBlockLog creates a BlockLog holding at most capBytes bytes.
func NewBlockLog(store Store, capBytes int) *BlockLog {
	if capBytes < MinLogCap || capBytes > MaxLogCap {
		capBytes = DefaultLogCap
	}
	return &BlockLog{store: store, cap: capBytes, now: time.Now}
}

// Append records one blocked request.
func (l *BlockLog) Append(ip, reason, match string) error {
	if l.store == nil {
		return ErrNoStore
	}
	line := fmt.Sprintf("%s | %s | %s | %s\n", l.now().UTC().Format(time.RFC3339), ip, reason, sanitize(match))

	l.mu.Lock()
	defer l.mu.Unlock()
	text, err := l.store.GetSetting(blockLogKey)
	if err != nil {
		return fmt.Errorf("read block log: %w", err)
	}
	text = truncateLines(line+text, l.cap)
	if err := l.store.SetSetting(blockLogKey, text); err != nil {
		return fmt.Errorf("write block log: %w", err)
	}
	return nil
}

// Text returns the log, newest first.
func (l *BlockLog) Text() (string, error) {
	if l.store == nil {
		return "", ErrNoStore
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetSetting(blockLogKey)
}

// Clear empties the log.
func (l *BlockLog) Clear() error {
	if l.store == nil {
		return ErrNoStore
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.SetSetting(blockLogKey, "")
}

// truncateLines cuts text at the last line boundary at or before max bytes.
func truncateLines(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	i := strings.LastIndexByte(cut, '\n')
	if i < 0 {
		return ""
	}
	return cut[:i+1]
}

func sanitize(s string) string {
	return strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s)
}

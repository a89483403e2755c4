package crawlers

import "errors"

var (
	// ErrNoStore is returned by BlockLog operations without a settings store.
	ErrNoStore = errors.New("crawlers: block log has no store")
)

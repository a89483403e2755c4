package sitemap

import "errors"

var (
	// ErrNoSource is returned when a provider is built without a Source.
	ErrNoSource = errors.New("sitemap: source is required")

	// ErrBadOrigin is returned when the site URL cannot be used to absolutize entries.
	ErrBadOrigin = errors.New("sitemap: site url must be absolute")
)

package minutes

import "context"

// Cache stores successfully fetched minutes keyed by source URL.
// Entries are written once on first successful fetch and never mutated;
// age-based cleanup is the only removal path.
type Cache interface {
	// Get returns the cached record for the URL.
	// Returns ENOTFOUND if no entry exists.
	Get(ctx context.Context, url string) (*MinutesData, error)

	// Put stores the record under the URL's key.
	Put(ctx context.Context, url string, data *MinutesData) error
}

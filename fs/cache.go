package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gikai/minutes"
	"github.com/gikai/minutes/bloom"
)

// expectedCacheEntries sizes the key filter. Oversizing is cheap; the
// filter degrades to extra disk reads, never to wrong results.
const expectedCacheEntries = 100000

// Ensure URLCache implements minutes.Cache at compile time.
var _ minutes.Cache = (*URLCache)(nil)

// URLCache caches fetched minutes on disk, one JSON file per URL named
// by a hash of the URL. Entries are written once and never mutated, so
// concurrent fetches of different URLs cannot collide. A Bloom filter
// warmed from the existing directory answers definite misses without a
// file read.
type URLCache struct {
	dir    string
	keys   *bloom.Filter
	logger *slog.Logger
}

// NewURLCache creates a URLCache rooted at dir. Existing entries under
// dir are registered in the key filter.
// A nil logger defaults to slog.Default().
func NewURLCache(dir string, logger *slog.Logger) *URLCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &URLCache{
		dir:    dir,
		keys:   bloom.NewFilter(expectedCacheEntries, 0.01),
		logger: logger,
	}
	c.warmKeys()
	return c
}

// warmKeys loads the keys of entries written by earlier runs.
func (c *URLCache) warmKeys() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			c.keys.Add(name)
		}
	}
}

// Key returns the cache key for a URL.
func Key(url string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(url))
}

func (c *URLCache) path(url string) string {
	return filepath.Join(c.dir, Key(url)+".json")
}

// Get returns the cached record for the URL.
// Returns ENOTFOUND on a cache miss; a corrupt entry is also reported
// as a miss after logging, so a bad file never poisons a fetch.
func (c *URLCache) Get(_ context.Context, url string) (*minutes.MinutesData, error) {
	if !c.keys.Test(Key(url)) {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "no cache entry for %q", url)
	}

	data, err := os.ReadFile(c.path(url))
	if os.IsNotExist(err) {
		return nil, minutes.Errorf(minutes.ENOTFOUND, "no cache entry for %q", url)
	} else if err != nil {
		return nil, minutes.Errorf(minutes.ECACHE, "reading cache for %q: %v", url, err)
	}

	var m minutes.MinutesData
	if err := json.Unmarshal(data, &m); err != nil {
		c.logger.Warn("cache entry corrupt", "url", url, "err", err)
		return nil, minutes.Errorf(minutes.ENOTFOUND, "corrupt cache entry for %q", url)
	}
	return &m, nil
}

// Put stores the record under the URL's key. The write goes to a
// temporary file first and is renamed into place so readers never see
// a partial entry.
func (c *URLCache) Put(_ context.Context, url string, m *minutes.MinutesData) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return minutes.Errorf(minutes.ECACHE, "creating cache dir %q: %v", c.dir, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return minutes.Errorf(minutes.ECACHE, "encoding cache entry for %q: %v", url, err)
	}

	path := c.path(url)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return minutes.Errorf(minutes.ECACHE, "writing cache entry for %q: %v", url, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return minutes.Errorf(minutes.ECACHE, "committing cache entry for %q: %v", url, err)
	}

	c.keys.Add(Key(url))
	return nil
}

package feed

import (
	"os"
	"path/filepath"
)

// Cache holds the last successfully fetched raw payload per feed on disk, so
// a process restart keeps the last-known-good data available as a fallback.
type Cache struct {
	dir string
}

// NewCache creates a payload cache rooted at dir. The directory is created
// lazily on first write.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Write stores the raw payload for a feed, overwriting the previous one.
func (c *Cache) Write(feed string, payload []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path(feed), payload, 0o644)
}

// Read returns the cached payload for a feed, if one exists.
func (c *Cache) Read(feed string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(feed))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) path(feed string) string {
	return filepath.Join(c.dir, feed+".raw")
}

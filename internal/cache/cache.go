package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/TruWeaveTrader/statarb/internal/models"
)

// Cache keeps fetched daily bar series keyed by symbol and date range. A cache
// opened with a path is written back to disk by Save, so a later run over the
// same universe and range reads its bars from the file until they expire.
type Cache struct {
	bars *gocache.Cache
	ttl  time.Duration
	path string
}

// entry is the on-disk form of one cached series
type entry struct {
	Bars       []*models.Bar `msgpack:"bars"`
	Expiration int64         `msgpack:"exp"`
}

// NewCache creates an in-memory cache
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		bars: gocache.New(ttl, ttl*2),
		ttl:  ttl,
	}
}

// DefaultPath is the bar cache file under the user cache directory
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "statarb", "bars.msgpack"), nil
}

// Open restores the cache stored at path. A missing file gives an empty cache;
// entries that expired since they were saved are dropped.
func Open(path string, ttl time.Duration) (*Cache, error) {
	c := NewCache(ttl)
	c.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bar cache: %w", err)
	}

	var stored map[string]entry
	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode bar cache %s: %w", path, err)
	}

	now := time.Now().UnixNano()
	items := make(map[string]gocache.Item, len(stored))
	for key, e := range stored {
		if e.Expiration > 0 && e.Expiration <= now {
			continue
		}
		items[key] = gocache.Item{Object: e.Bars, Expiration: e.Expiration}
	}
	c.bars = gocache.NewFrom(ttl, ttl*2, items)
	return c, nil
}

// Path returns the backing file, or "" for a memory-only cache
func (c *Cache) Path() string {
	return c.path
}

// Save writes the unexpired entries to the backing file. It is a no-op for a
// memory-only cache.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}

	items := c.bars.Items()
	stored := make(map[string]entry, len(items))
	for key, item := range items {
		bars, ok := item.Object.([]*models.Bar)
		if !ok {
			continue
		}
		kept := make([]*models.Bar, 0, len(bars))
		for _, b := range bars {
			if b != nil {
				kept = append(kept, b)
			}
		}
		stored[key] = entry{Bars: kept, Expiration: item.Expiration}
	}

	data, err := msgpack.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode bar cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// BarsKey identifies a bar series by symbol and inclusive date range
func BarsKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", symbol, formatDay(start), formatDay(end))
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(models.DateLayout)
}

// GetBars retrieves a cached bar series
func (c *Cache) GetBars(key string) ([]*models.Bar, bool) {
	if val, found := c.bars.Get(key); found {
		if bars, ok := val.([]*models.Bar); ok {
			return bars, true
		}
	}
	return nil, false
}

// SetBars caches a bar series
func (c *Cache) SetBars(key string, bars []*models.Bar) {
	c.bars.Set(key, bars, c.ttl)
}

// Clear removes all cached data. The backing file is emptied on the next Save.
func (c *Cache) Clear() {
	c.bars.Flush()
}

// Stats returns cache statistics
type Stats struct {
	SeriesCount int
}

// GetStats returns current cache statistics
func (c *Cache) GetStats() Stats {
	return Stats{
		SeriesCount: c.bars.ItemCount(),
	}
}

package tmdb

import (
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/media"
)

// lookupCache holds successful enrichment lookups so that repeated uploads of
// the same title don't hit TMDB again. A nil cache is valid and never hits.
type lookupCache struct {
	cache *freecache.Cache
	ttl   int
}

func newLookupCache(sizeMB int, ttl time.Duration) *lookupCache {
	if sizeMB <= 0 || ttl <= 0 {
		log.Infof("Enrichment cache disabled\n")
		return nil
	}

	return &lookupCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   max(int(ttl.Seconds()), 1),
	}
}

func cacheKey(parsed media.ParsedMetadata) string {
	return strings.ToLower(parsed.Title) + "|" + strconv.Itoa(parsed.Year)
}

// unsafeStringToBytes converts string to []byte without allocation. freecache
// copies keys internally, so the result is never modified.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *lookupCache) get(key string) (catalog.Enrichment, bool) {
	if c == nil {
		return catalog.Enrichment{}, false
	}

	raw, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return catalog.Enrichment{}, false
	}

	var data catalog.Enrichment
	if err := json.Unmarshal(raw, &data); err != nil {
		return catalog.Enrichment{}, false
	}

	return data, true
}

func (c *lookupCache) set(key string, data catalog.Enrichment) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		log.Warnf("Failed to encode enrichment for cache key %q: %v\n", key, err)
		return
	}

	_ = c.cache.Set(unsafeStringToBytes(key), raw, c.ttl)
}

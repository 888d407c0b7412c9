package api

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/coocood/freecache"

	"github.com/tordrt/prismagen/internal/schema"
)

// DefaultRenderCacheSize is the render cache capacity in bytes
const DefaultRenderCacheSize = 4 * 1024 * 1024

const renderCacheTTLSeconds = 600

// renderCache memoizes rendered previews keyed by format and document content
type renderCache struct {
	cache *freecache.Cache
}

func newRenderCache(size int) *renderCache {
	if size <= 0 {
		size = DefaultRenderCacheSize
	}
	return &renderCache{cache: freecache.NewCache(size)}
}

func renderKey(format string, doc schema.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return append([]byte(format+":"), sum[:]...), nil
}

// render returns the cached output for doc, calling fn on a miss
func (r *renderCache) render(format string, doc schema.Document, fn func() ([]byte, error)) (out []byte, hit bool, err error) {
	key, err := renderKey(format, doc)
	if err != nil {
		out, err = fn()
		return out, false, err
	}
	if out, err := r.cache.Get(key); err == nil {
		return out, true, nil
	}

	out, err = fn()
	if err != nil {
		return nil, false, err
	}
	// Entries larger than the cache segment are not stored
	_ = r.cache.Set(key, out, renderCacheTTLSeconds)
	return out, false, nil
}

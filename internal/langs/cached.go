package langs

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/gitreport/schema"
)

// DefaultCacheSize bounds the number of memoized paths.
const DefaultCacheSize = 8192

// Cached memoizes another classifier. The same paths recur across most of a
// history, so the hit rate is high even with a modest size.
type Cached struct {
	inner Classifier
	cache *lru.Cache[string, schema.Language]
}

var _ Classifier = &Cached{} // Compile-time check

// NewCached wraps the table classifier with an LRU of the given size.
// A non-positive size selects DefaultCacheSize.
func NewCached(size int) *Cached {
	return NewCachedWith(Default, size)
}

// NewCachedWith wraps an arbitrary classifier with an LRU of the given size.
func NewCachedWith(inner Classifier, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[string, schema.Language](size)
	return &Cached{inner: inner, cache: cache}
}

// Classify returns the memoized language of path, computing it on a miss.
func (c *Cached) Classify(path string) schema.Language {
	if lang, ok := c.cache.Get(path); ok {
		return lang
	}
	lang := c.inner.Classify(path)
	c.cache.Add(path, lang)
	return lang
}

// Len returns the number of memoized paths.
func (c *Cached) Len() int {
	return c.cache.Len()
}

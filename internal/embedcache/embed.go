// Package embedcache wraps an opaque embed(text) -> vec<f32> model-loading
// collaborator with a content-keyed LRU cache (size ~500) so repeated
// embed(text) calls during the scoring of a single write never re-embed
// the same content.
package embedcache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sync"
)

// Embedder is the external collaborator's contract. A concrete
// implementation wraps whatever model-loading code the host process
// provides.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const defaultCapacity = 500

// Cache wraps an Embedder with an LRU keyed by the content hash of the
// input text, so repeated scoring calls within one write never re-embed
// identical text.
type Cache struct {
	mu       sync.Mutex
	embedder Embedder
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type entry struct {
	key string
	vec []float32
}

// New wraps embedder with a cache of the default capacity (~500).
func New(embedder Embedder) *Cache {
	return NewWithCapacity(embedder, defaultCapacity)
}

// NewWithCapacity is New with an explicit capacity, for tests.
func NewWithCapacity(embedder Embedder, capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Cache{
		embedder: embedder,
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Embed returns the cached vector for text if present, otherwise calls the
// underlying Embedder and caches the result. A nil embedder returns
// (nil, nil) and an embedding failure returns (nil, err) — callers (the
// scoring engine) must treat a nil vector as "skip this layer", never as a
// fatal error.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedder == nil {
		return nil, nil
	}
	key := contentHash(text)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		vec := el.Value.(*entry).vec
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*entry).vec = vec
		return vec, nil
	}
	el := c.ll.PushFront(&entry{key: key, vec: vec})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	return vec, nil
}

// Len reports the number of cached entries, for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Cosine computes cosine similarity between two equal-length vectors,
// returning 0 for mismatched lengths or a zero vector (Layer 9 treats
// that as "no semantic signal" rather than an error).
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

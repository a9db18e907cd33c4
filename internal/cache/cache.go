// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
)

// Cache stores extracted profile records so that one process does not scrape
// the same profile twice (for example when every analysis mode is requested).
type Cache interface {
	// Get returns the cached record for key, if present and not expired.
	Get(key string) (*models.ProfileRecord, bool)

	// Set stores rec under key for ttl, replacing any existing entry.
	Set(key string, rec *models.ProfileRecord, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(key string) error

	// Clear removes every entry.
	Clear() error

	// Close stops background work.
	Close()
}

type cacheEntry struct {
	Data      *models.ProfileRecord
	ExpiresAt time.Time
	Key       string
	Size      int64
}

// MemoryCache is an in-memory LRU cache bounded by an estimated byte size
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
	maxSize int64
	size    int64
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a new in-memory cache with LRU eviction
func NewMemoryCache(maxSizeBytes int64) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 16 * 1024 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go c.cleanupExpired(time.Minute)

	return c
}

// Get retrieves a cached record and marks it most recently used
func (mc *MemoryCache) Get(key string) (*models.ProfileRecord, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	entry := element.Value.(*cacheEntry)
	if mc.now().After(entry.ExpiresAt) {
		mc.misses++
		mc.removeElement(element)
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++

	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Data, true
}

// Set stores a record with TTL
func (mc *MemoryCache) Set(key string, rec *models.ProfileRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry := &cacheEntry{
		Data:      rec,
		ExpiresAt: mc.now().Add(ttl),
		Key:       key,
		Size:      estimateSize(rec),
	}

	if element, exists := mc.store[key]; exists {
		mc.size -= element.Value.(*cacheEntry).Size
		element.Value = entry
		mc.lruList.MoveToFront(element)
		mc.size += entry.Size
		log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Updated cache entry")
		return nil
	}

	for mc.size+entry.Size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	mc.store[key] = mc.lruList.PushFront(entry)
	mc.size += entry.Size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", entry.Size).
		Msg("Cached profile")

	return nil
}

// Delete removes a cached record
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}
	return nil
}

// Clear removes all cached records
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.size = 0
	mc.hits = 0
	mc.misses = 0
	return nil
}

// Close stops the background cleanup goroutine and waits for it to exit
func (mc *MemoryCache) Close() {
	mc.cancel()
	<-mc.done
}

// Len returns the number of cached entries
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lruList.Len()
}

// Stats returns cache statistics including hit rate
func (mc *MemoryCache) Stats() map[string]interface{} {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hitRate := 0.0
	total := mc.hits + mc.misses
	if total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"entries":    mc.lruList.Len(),
		"size_bytes": mc.size,
		"max_size":   mc.maxSize,
		"hits":       mc.hits,
		"misses":     mc.misses,
		"hit_rate":   hitRate,
	}
}

// must be called with lock held
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	key := element.Value.(*cacheEntry).Key
	mc.removeElement(element)
	log.Debug().Str("key", key).Msg("Evicted from cache (LRU)")
}

// must be called with lock held
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size
}

func (mc *MemoryCache) cleanupExpired(every time.Duration) {
	defer close(mc.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// estimateSize is a rough byte count of the strings held by rec
func estimateSize(rec *models.ProfileRecord) int64 {
	if rec == nil {
		return 0
	}
	size := len(rec.Name) + len(rec.Headline) + len(rec.About) + len(rec.URL)
	for _, e := range rec.Experience {
		size += len(e.Title) + len(e.Company)
	}
	for _, s := range rec.Skills {
		size += len(s)
	}
	for _, s := range rec.Education {
		size += len(s)
	}
	return int64(size) + 512
}

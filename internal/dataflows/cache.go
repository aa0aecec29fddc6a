package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Provider response TTLs observed to keep upstream traffic reasonable.
const (
	MarketDataTTL = 5 * time.Minute
	SearchTTL     = 15 * time.Minute
)

// CacheManager handles file-based caching of provider responses. It is
// best-effort: any backend failure reads as a miss and writes are dropped,
// so callers transparently fall back to direct fetching.
type CacheManager struct {
	cacheDir     string
	ttl          time.Duration
	cacheEnabled bool
}

// NewCacheManager creates a cache rooted at cacheDir with the given TTL.
func NewCacheManager(cacheDir string, ttl time.Duration, cacheEnabled bool) *CacheManager {
	return &CacheManager{
		cacheDir:     cacheDir,
		ttl:          ttl,
		cacheEnabled: cacheEnabled,
	}
}

// getCacheKey generates a cache key from function identity plus arguments.
func (cm *CacheManager) getCacheKey(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x.json", source, method, hash)
}

// Get retrieves data from cache if present and not expired.
func (cm *CacheManager) Get(source, method string, params interface{}, result interface{}) bool {
	if !cm.cacheEnabled {
		return false
	}

	key := cm.getCacheKey(source, method, params)
	filePath := filepath.Join(cm.cacheDir, key)

	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > cm.ttl {
		os.Remove(filePath)
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, result) == nil
}

// Set stores data in cache.
func (cm *CacheManager) Set(source, method string, params interface{}, data interface{}) error {
	if !cm.cacheEnabled {
		return nil
	}

	key := cm.getCacheKey(source, method, params)
	filePath := filepath.Join(cm.cacheDir, key)

	if err := os.MkdirAll(cm.cacheDir, 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, 0o644)
}

// MemoryCache is a concurrency-safe in-process TTL cache layered in front of
// the file cache for hot entries. It is constructed and injected explicitly,
// never a package singleton, so tests can isolate it.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// NewMemoryCache creates an in-memory cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get unmarshals the cached value for key into result when fresh.
func (mc *MemoryCache) Get(key string, result interface{}) bool {
	mc.mu.RLock()
	entry, ok := mc.entries[key]
	mc.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Since(entry.storedAt) > mc.ttl {
		mc.mu.Lock()
		delete(mc.entries, key)
		mc.mu.Unlock()
		return false
	}
	return json.Unmarshal(entry.data, result) == nil
}

// Set stores value under key; marshal failures are dropped silently.
func (mc *MemoryCache) Set(key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	mc.mu.Lock()
	mc.entries[key] = memoryEntry{data: data, storedAt: time.Now()}
	mc.mu.Unlock()
}

// Clear drops every entry.
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	mc.entries = make(map[string]memoryEntry)
	mc.mu.Unlock()
}

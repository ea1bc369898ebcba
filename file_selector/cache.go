package file_selector

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// cacheEntry is the gob-encoded on-disk record for one cached file. Content
// is always present; Summary is filled lazily the first time the summary
// content mode touches the file.
type cacheEntry struct {
	Content  string
	Summary  string
	FileSize int64
	ModTime  time.Time
}

// CacheStats tracks lookup performance for a cache manager instance.
type CacheStats struct {
	Requests int64
	Hits     int64
	Misses   int64
}

// CacheManager persists file content and summaries between loop iterations.
// Entries are invalidated when the source file's size or mtime changes, so a
// tree mutated by one iteration is re-read on the next.
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex
	stats    CacheStats
}

const cacheMaxAge = 7 * 24 * time.Hour

// NewCacheManager creates a cache rooted at cacheDir, creating it if needed.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	cm := &CacheManager{cacheDir: cacheDir}
	go cm.CleanExpired(cacheMaxAge)
	return cm, nil
}

func (cm *CacheManager) cacheKey(filePath string) string {
	return fmt.Sprintf("%016x.cache", xxh3.HashString(filePath))
}

func (cm *CacheManager) cachePath(filePath string) string {
	return filepath.Join(cm.cacheDir, cm.cacheKey(filePath))
}

// Lookup returns the cached content and summary for filePath if the entry is
// still valid against the file's current size and mtime.
func (cm *CacheManager) Lookup(filePath string) (content string, summary string, found bool) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.stats.Requests++

	cachePath := cm.cachePath(filePath)
	data, err := os.ReadFile(cachePath)
	if err != nil {
		cm.stats.Misses++
		return "", "", false
	}

	var entry cacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		cm.stats.Misses++
		os.Remove(cachePath)
		return "", "", false
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil || fileInfo.Size() != entry.FileSize || !fileInfo.ModTime().Equal(entry.ModTime) {
		cm.stats.Misses++
		os.Remove(cachePath)
		return "", "", false
	}

	cm.stats.Hits++
	return entry.Content, entry.Summary, true
}

// Store writes a cache entry for filePath. Failures are swallowed: caching is
// an optimization and never blocks selection.
func (cm *CacheManager) Store(filePath string, content string, summary string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return
	}

	entry := cacheEntry{
		Content:  content,
		Summary:  summary,
		FileSize: fileInfo.Size(),
		ModTime:  fileInfo.ModTime(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return
	}
	os.WriteFile(cm.cachePath(filePath), buffer.Bytes(), 0644)
}

// Stats returns a copy of the lookup counters.
func (cm *CacheManager) Stats() CacheStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.stats
}

// HitRate returns the cache hit percentage for this instance.
func (cm *CacheManager) HitRate() float64 {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	if cm.stats.Requests == 0 {
		return 0
	}
	return float64(cm.stats.Hits) / float64(cm.stats.Requests) * 100
}

// Usage reports how many entries are on disk and their combined size.
func (cm *CacheManager) Usage() (files int, totalBytes int64, err error) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		files++
		totalBytes += info.Size()
	}
	return files, totalBytes, nil
}

// Clear removes every cache entry.
func (cm *CacheManager) Clear() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		os.Remove(filepath.Join(cm.cacheDir, entry.Name()))
	}
	return nil
}

// CleanExpired removes cache files whose own mtime is older than maxAge.
func (cm *CacheManager) CleanExpired(maxAge time.Duration) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(cm.cacheDir, entry.Name()))
		}
	}
	return nil
}

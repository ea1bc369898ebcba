package file_selector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheManager, string) {
	t.Helper()
	root, err := os.MkdirTemp("", "selector_cache_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	cacheManager, err := NewCacheManager(filepath.Join(root, "cache"))
	require.NoError(t, err)
	return cacheManager, root
}

// TestCacheManager_StoreLookupRoundtrip verifies a stored entry is served back
// while the source file is unchanged.
func TestCacheManager_StoreLookupRoundtrip(t *testing.T) {
	cacheManager, root := newTestCache(t)
	source := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(source, []byte("package main\n"), 0644))

	cacheManager.Store(source, "package main\n", "func main()")

	content, summary, found := cacheManager.Lookup(source)
	require.True(t, found)
	assert.Equal(t, "package main\n", content)
	assert.Equal(t, "func main()", summary)

	stats := cacheManager.Stats()
	assert.Equal(t, int64(1), stats.Requests)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

// TestCacheManager_InvalidatesWhenSourceChanges verifies an entry is dropped
// once the source file's mtime moves, even when the size is identical.
func TestCacheManager_InvalidatesWhenSourceChanges(t *testing.T) {
	cacheManager, root := newTestCache(t)
	source := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(source, []byte("package main\n"), 0644))

	cacheManager.Store(source, "package main\n", "")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(source, future, future))

	_, _, found := cacheManager.Lookup(source)
	assert.False(t, found)
	assert.Equal(t, int64(1), cacheManager.Stats().Misses)
}

// TestCacheManager_StoreIgnoresMissingSource verifies nothing is cached for a
// path that does not exist on disk.
func TestCacheManager_StoreIgnoresMissingSource(t *testing.T) {
	cacheManager, root := newTestCache(t)
	source := filepath.Join(root, "ghost.go")

	cacheManager.Store(source, "content", "")

	_, _, found := cacheManager.Lookup(source)
	assert.False(t, found)
}

// TestCacheManager_HitRate verifies the percentage over mixed lookups.
func TestCacheManager_HitRate(t *testing.T) {
	cacheManager, root := newTestCache(t)
	source := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(source, []byte("package main\n"), 0644))

	cacheManager.Store(source, "package main\n", "")
	cacheManager.Lookup(source)
	cacheManager.Lookup(filepath.Join(root, "missing.go"))

	assert.InDelta(t, 50.0, cacheManager.HitRate(), 0.001)
}

// TestCacheManager_ClearRemovesAllEntries verifies Clear empties the cache
// directory and Usage reflects it.
func TestCacheManager_ClearRemovesAllEntries(t *testing.T) {
	cacheManager, root := newTestCache(t)
	for _, name := range []string{"a.go", "b.go"} {
		source := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(source, []byte("package main\n"), 0644))
		cacheManager.Store(source, "package main\n", "")
	}

	files, totalBytes, err := cacheManager.Usage()
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Positive(t, totalBytes)

	require.NoError(t, cacheManager.Clear())

	files, totalBytes, err = cacheManager.Usage()
	require.NoError(t, err)
	assert.Equal(t, 0, files)
	assert.Equal(t, int64(0), totalBytes)

	_, _, found := cacheManager.Lookup(filepath.Join(root, "a.go"))
	assert.False(t, found)
}

// TestCacheManager_CleanExpired verifies only entries older than maxAge are
// removed.
func TestCacheManager_CleanExpired(t *testing.T) {
	cacheManager, root := newTestCache(t)

	stale := filepath.Join(root, "stale.go")
	fresh := filepath.Join(root, "fresh.go")
	for _, source := range []string{stale, fresh} {
		require.NoError(t, os.WriteFile(source, []byte("package main\n"), 0644))
		cacheManager.Store(source, "package main\n", "")
	}

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(cacheManager.cachePath(stale), past, past))

	require.NoError(t, cacheManager.CleanExpired(24*time.Hour))

	_, _, found := cacheManager.Lookup(stale)
	assert.False(t, found)
	_, _, found = cacheManager.Lookup(fresh)
	assert.True(t, found)
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// IgnoreFileName is the gitignore-style ruleset honored by file selection.
const IgnoreFileName = ".loopai-gitignore"

// ignoreCacheEntry holds cached ignore patterns with the source file's mtime.
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// GetIgnorePatterns reads the patterns from the .loopai-gitignore file in cwd.
// A missing file yields an empty pattern list. Parsed patterns are cached and
// invalidated on mtime change, since selection re-reads them every iteration.
func GetIgnorePatterns(cwd string) ([]string, error) {
	ignorePath := filepath.Join(cwd, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// Always-excluded directory and file names. The version-control metadata
// directory stays excluded regardless of user configuration, and so does the
// tool's own state directory: feeding session logs back into the context
// would poison convergence detection.
var defaultIgnoredNames = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	".idea": true, ".vscode": true, ".cache": true,
	".loopai": true, IgnoreFileName: true,
	"loopai-config.yml": true, "loopai-config.yaml": true, "loopai-config.json": true,
	"node_modules": true, "vendor": true,
	"dist": true, "out": true, "bin": true, "obj": true,
}

var defaultIgnoredSuffixes = []string{
	".exe", ".dll", ".so", ".dylib", ".log", ".bak", ".tmp",
	".jpg", ".jpeg", ".png", ".gif", ".ico", ".pdf",
	".mp3", ".wav", ".mp4", ".avi", ".mov", ".zip", ".tar", ".gz",
}

// IsDefaultIgnored reports whether any path segment is on the built-in ignore
// list or the path carries a binary/media suffix.
func IsDefaultIgnored(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for _, part := range parts {
		if defaultIgnoredNames[strings.ToLower(part)] {
			return true
		}
	}
	lower := strings.ToLower(relPath)
	for _, suffix := range defaultIgnoredSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// readIgnoreFile returns the non-comment, non-empty lines of a ruleset file.
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks a relative path against gitignore-style patterns.
func IsIgnored(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if MatchesPattern(relPath, pattern) {
			return true
		}
		// Patterns like "dir/" ignore the whole directory subtree.
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(relPath, pattern) {
			return true
		}
	}
	return false
}

// MatchesPattern matches one glob against a slash-separated relative path.
// The pattern is tried against the full path, the base name, and, for
// "**/"-prefixed patterns, against the path with the prefix stripped.
func MatchesPattern(relPath string, pattern string) bool {
	if match, _ := filepath.Match(pattern, relPath); match {
		return true
	}
	if match, _ := filepath.Match(pattern, filepath.Base(relPath)); match {
		return true
	}
	if trimmed, ok := strings.CutPrefix(pattern, "**/"); ok {
		if match, _ := filepath.Match(trimmed, relPath); match {
			return true
		}
		if match, _ := filepath.Match(trimmed, filepath.Base(relPath)); match {
			return true
		}
	}
	return false
}

// MatchesAnyPattern reports whether the path matches at least one pattern.
func MatchesAnyPattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if MatchesPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

// ClearIgnoreCache drops all cached ignore rulesets.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}

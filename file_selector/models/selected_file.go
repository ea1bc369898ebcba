package models

import (
	"time"
)

// SelectedFile is one ranked entry of a selection pass. The slice order of a
// selection result is significant: descending priority, walk order on ties.
type SelectedFile struct {
	Path       string    // relative to the selection root, slash separated
	Size       int64     // bytes
	ModifiedAt time.Time // filesystem mtime
	Priority   int       // computed score, higher means selected first
}

// FileContent pairs a selected path with its loaded content.
type FileContent struct {
	Path    string
	Content string
}

// SelectorStats describes the eligible tree before budget truncation.
type SelectorStats struct {
	FileCount   int
	TotalSize   int64
	AverageSize int64
}

// Content modes for SelectWithContent.
const (
	ContentModeFull    = "full"    // raw file content
	ContentModeSummary = "summary" // extracted declarations for supported source files
)

// SelectOptions configure a selection pass.
type SelectOptions struct {
	RootDir         string
	Include         []string // glob patterns; the wildcard sentinel disables them
	Exclude         []string // glob patterns, always applied before include
	UseIgnoreFile   bool     // honor the .loopai-gitignore ruleset
	MaxFiles        int
	MaxContextBytes int64
	ContentMode     string // ContentModeFull (default) or ContentModeSummary
}

// WildcardInclude is the sentinel include set meaning "no include filtering";
// selection then falls back to the fixed extension allow-list.
var WildcardInclude = []string{"**/*"}

// IsWildcardInclude reports whether the include patterns are the sentinel.
func IsWildcardInclude(patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return len(patterns) == 1 && (patterns[0] == "**/*" || patterns[0] == "*")
}

package file_selector

import (
	"path/filepath"
	"strings"
	"time"
)

// InstructionFileName is the goal file the loop feeds to the model. At the
// tree root it is force-scored so it always survives budget truncation; the
// same name in a subdirectory is treated as ordinary markup.
const InstructionFileName = "PROMPT.md"

const (
	baseScore              = 100
	instructionScore       = 300
	manifestBonus          = 40
	rootReadmeBonus        = 15
	sourceBonus            = 25
	markupBonus            = 5
	structuredConfigBonus  = 10
	smallFileBonus         = 20
	mediumFileBonus        = 10
	largeFilePenalty       = -30
	smallFileLimit         = 10 * 1024
	mediumFileLimit        = 50 * 1024
	largeFileLimit         = 200 * 1024
	modifiedTodayBonus     = 30
	modifiedThisWeekBonus  = 20
	modifiedThisMonthBonus = 10
)

var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".cs": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".rs": true, ".rb": true, ".php": true, ".swift": true, ".kt": true,
	".scala": true, ".zig": true, ".sh": true,
}

var markupExtensions = map[string]bool{
	".md": true, ".markdown": true, ".rst": true, ".txt": true,
	".html": true, ".htm": true, ".adoc": true,
}

var structuredConfigExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true,
}

// Data extensions admitted by the fallback allow-list without carrying the
// structured-config bonus. Keeps manifests like go.mod and Cargo.toml
// selectable in the default configuration.
var extraDataExtensions = map[string]bool{
	".toml": true, ".mod": true,
}

var manifestFileNames = map[string]bool{
	"package.json":   true,
	"go.mod":         true,
	"Cargo.toml":     true,
	"pyproject.toml": true,
	"pom.xml":        true,
	"Gemfile":        true,
	"composer.json":  true,
}

// Directory modifiers are checked in order and the first matching prefix
// wins; they never stack.
var directoryModifiers = []struct {
	prefix string
	delta  int
}{
	{"src/", 20},
	{"lib/", 15},
	{"test/", -10},
	{"tests/", -10},
}

// priorityScore computes the selection score for one file. The scoring table
// is additive except for the root instruction file, which is force-set to an
// absolute score that outranks everything else.
func priorityScore(relPath string, size int64, modifiedAt time.Time, now time.Time) int {
	if relPath == InstructionFileName {
		return instructionScore
	}

	score := baseScore

	switch {
	case size < smallFileLimit:
		score += smallFileBonus
	case size < mediumFileLimit:
		score += mediumFileBonus
	case size > largeFileLimit:
		score += largeFilePenalty
	}

	age := now.Sub(modifiedAt)
	switch {
	case age < 24*time.Hour:
		score += modifiedTodayBonus
	case age < 7*24*time.Hour:
		score += modifiedThisWeekBonus
	case age < 30*24*time.Hour:
		score += modifiedThisMonthBonus
	}

	ext := strings.ToLower(filepath.Ext(relPath))
	switch {
	case sourceExtensions[ext]:
		score += sourceBonus
	case markupExtensions[ext]:
		score += markupBonus
	case structuredConfigExtensions[ext]:
		score += structuredConfigBonus
	}

	for _, dm := range directoryModifiers {
		if strings.HasPrefix(relPath, dm.prefix) {
			score += dm.delta
			break
		}
	}

	base := filepath.Base(relPath)
	if manifestFileNames[base] {
		score += manifestBonus
	}
	if isRootPath(relPath) && strings.EqualFold(base, "README.md") {
		score += rootReadmeBonus
	}

	return score
}

func isRootPath(relPath string) bool {
	return !strings.Contains(relPath, "/")
}

// fallbackAllowedExtension is the fixed allow-list used when the include
// patterns are the wildcard sentinel.
func fallbackAllowedExtension(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	return sourceExtensions[ext] || markupExtensions[ext] ||
		structuredConfigExtensions[ext] || extraDataExtensions[ext]
}

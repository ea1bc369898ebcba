package file_selector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/loopai/file_selector/models"
)

func writeFile(t *testing.T, root string, relPath string, content string) {
	t.Helper()
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
}

func newTestSelector(t *testing.T) (*FileSelector, string) {
	t.Helper()
	root, err := os.MkdirTemp("", "selector_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })
	return &FileSelector{}, root
}

// TestPriorityScore_TierOrdering verifies that with size and age held equal a
// source file always outranks a markup file, which outranks an unclassified
// config file.
func TestPriorityScore_TierOrdering(t *testing.T) {
	now := time.Now()
	modified := now.Add(-48 * time.Hour)

	source := priorityScore("main.go", 1024, modified, now)
	markup := priorityScore("notes.md", 1024, modified, now)
	otherConfig := priorityScore("settings.ini", 1024, modified, now)

	assert.Greater(t, source, markup)
	assert.Greater(t, markup, otherConfig)
}

// TestPriorityScore_InstructionFileOverride verifies the root instruction file
// is force-scored above everything, while the same name in a subdirectory is
// scored as ordinary markup.
func TestPriorityScore_InstructionFileOverride(t *testing.T) {
	now := time.Now()

	rootInstruction := priorityScore("PROMPT.md", 500*1024, now.Add(-365*24*time.Hour), now)
	assert.Equal(t, 300, rootInstruction)

	// A huge, ancient instruction file still outranks a fresh tiny source file.
	freshSource := priorityScore("src/main.go", 512, now.Add(-time.Minute), now)
	assert.Greater(t, rootInstruction, freshSource)

	nested := priorityScore("docs/PROMPT.md", 512, now.Add(-time.Minute), now)
	assert.NotEqual(t, 300, nested)
	assert.Less(t, nested, rootInstruction)
}

// TestPriorityScore_SizeAndRecencyBands checks the additive size and age
// modifiers.
func TestPriorityScore_SizeAndRecencyBands(t *testing.T) {
	now := time.Now()
	old := now.Add(-90 * 24 * time.Hour)

	small := priorityScore("a.ini", 1024, old, now)
	medium := priorityScore("b.ini", 20*1024, old, now)
	band := priorityScore("c.ini", 100*1024, old, now)
	large := priorityScore("d.ini", 300*1024, old, now)

	assert.Equal(t, 120, small)
	assert.Equal(t, 110, medium)
	assert.Equal(t, 100, band)
	assert.Equal(t, 70, large)

	recent := priorityScore("a.ini", 1024, now.Add(-time.Hour), now)
	thisWeek := priorityScore("a.ini", 1024, now.Add(-3*24*time.Hour), now)
	thisMonth := priorityScore("a.ini", 1024, now.Add(-20*24*time.Hour), now)

	assert.Equal(t, 150, recent)
	assert.Equal(t, 140, thisWeek)
	assert.Equal(t, 130, thisMonth)
}

// TestPriorityScore_DirectoryModifierFirstMatchOnly verifies directory
// modifiers never stack and the first matching prefix wins.
func TestPriorityScore_DirectoryModifierFirstMatchOnly(t *testing.T) {
	now := time.Now()
	old := now.Add(-90 * 24 * time.Hour)

	inSrc := priorityScore("src/app.go", 100*1024, old, now)
	inLib := priorityScore("lib/app.go", 100*1024, old, now)
	inTest := priorityScore("test/app.go", 100*1024, old, now)
	plain := priorityScore("app.go", 100*1024, old, now)

	assert.Equal(t, plain+20, inSrc)
	assert.Equal(t, plain+15, inLib)
	assert.Equal(t, plain-10, inTest)

	// "src/" matches first; the nested "test" segment must not subtract.
	nested := priorityScore("src/test/app.go", 100*1024, old, now)
	assert.Equal(t, plain+20, nested)
}

// TestPriorityScore_ManifestAndReadme checks the filename corrections.
func TestPriorityScore_ManifestAndReadme(t *testing.T) {
	now := time.Now()
	old := now.Add(-90 * 24 * time.Hour)

	manifest := priorityScore("package.json", 1024, old, now)
	plainJSON := priorityScore("data.json", 1024, old, now)
	assert.Equal(t, plainJSON+40, manifest)

	goMod := priorityScore("go.mod", 1024, old, now)
	assert.Equal(t, 160, goMod)

	rootReadme := priorityScore("README.md", 1024, old, now)
	nestedReadme := priorityScore("docs/README.md", 1024, old, now)
	assert.Equal(t, nestedReadme+15, rootReadme)

	// The readme correction stays capped below an equally shaped source file.
	source := priorityScore("main.go", 1024, old, now)
	assert.Greater(t, source, rootReadme)
}

// TestSelect_BudgetInvariants verifies the count and byte budgets hold and
// the result is ordered by non-increasing priority.
func TestSelect_BudgetInvariants(t *testing.T) {
	selector, root := newTestSelector(t)

	writeFile(t, root, "src/a.go", "package a\n")
	writeFile(t, root, "src/b.go", "package b\n")
	writeFile(t, root, "notes.md", "# notes\n")
	writeFile(t, root, "data.json", "{}\n")
	writeFile(t, root, "test/c.go", "package c\n")

	selected, err := selector.Select(models.SelectOptions{
		RootDir:         root,
		MaxFiles:        3,
		MaxContextBytes: 1024,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(selected), 3)
	var total int64
	for i, file := range selected {
		total += file.Size
		if i > 0 {
			assert.GreaterOrEqual(t, selected[i-1].Priority, file.Priority)
		}
	}
	assert.LessOrEqual(t, total, int64(1024))
}

// TestSelect_GreedyPrefixTruncation reproduces the budget example: three
// 2000-byte files under a 5000-byte budget select exactly the first two.
func TestSelect_GreedyPrefixTruncation(t *testing.T) {
	now := time.Now()
	files := []models.SelectedFile{
		{Path: "a.go", Size: 2000, ModifiedAt: now, Priority: 100},
		{Path: "b.go", Size: 2000, ModifiedAt: now, Priority: 100},
		{Path: "c.go", Size: 2000, ModifiedAt: now, Priority: 100},
	}

	selected := truncateToBudget(files, 0, 5000)
	require.Len(t, selected, 2)
	assert.Equal(t, "a.go", selected[0].Path)
	assert.Equal(t, "b.go", selected[1].Path)
}

// TestSelect_GreedyPrefixDropsSmallLaterFile verifies a small file ordered
// after the breaching file is dropped too, not packed in.
func TestSelect_GreedyPrefixDropsSmallLaterFile(t *testing.T) {
	now := time.Now()
	files := []models.SelectedFile{
		{Path: "big.go", Size: 4000, ModifiedAt: now, Priority: 150},
		{Path: "breach.go", Size: 3000, ModifiedAt: now, Priority: 140},
		{Path: "tiny.go", Size: 10, ModifiedAt: now, Priority: 130},
	}

	selected := truncateToBudget(files, 0, 5000)
	require.Len(t, selected, 1)
	assert.Equal(t, "big.go", selected[0].Path)
}

// TestSelect_EmptyTree returns an empty set, not an error.
func TestSelect_EmptyTree(t *testing.T) {
	selector, root := newTestSelector(t)

	selected, err := selector.Select(models.SelectOptions{RootDir: root})
	require.NoError(t, err)
	assert.Empty(t, selected)
}

// TestSelect_ExcludeBeforeInclude verifies exclude patterns always win and
// include patterns restrict the set when not the wildcard sentinel.
func TestSelect_ExcludeBeforeInclude(t *testing.T) {
	selector, root := newTestSelector(t)

	writeFile(t, root, "keep.go", "package keep\n")
	writeFile(t, root, "drop.go", "package drop\n")
	writeFile(t, root, "other.md", "# other\n")

	selected, err := selector.Select(models.SelectOptions{
		RootDir: root,
		Include: []string{"*.go"},
		Exclude: []string{"drop.go"},
	})
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "keep.go", selected[0].Path)
}

// TestSelect_WildcardIncludeFallsBackToAllowList verifies the wildcard
// sentinel skips include filtering and applies the extension allow-list.
func TestSelect_WildcardIncludeFallsBackToAllowList(t *testing.T) {
	selector, root := newTestSelector(t)

	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "binary.dat", "xxxx\n")

	selected, err := selector.Select(models.SelectOptions{
		RootDir: root,
		Include: models.WildcardInclude,
	})
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "main.go", selected[0].Path)
}

// TestSelect_IgnoreFileAndDefaults verifies the .loopai-gitignore ruleset and
// the always-on version-control exclusion.
func TestSelect_IgnoreFileAndDefaults(t *testing.T) {
	selector, root := newTestSelector(t)

	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "generated.go", "package main\n")
	writeFile(t, root, ".git/config", "[core]\n")
	writeFile(t, root, ".loopai-gitignore", "generated.go\n")

	selected, err := selector.Select(models.SelectOptions{
		RootDir:       root,
		UseIgnoreFile: true,
	})
	require.NoError(t, err)

	require.Len(t, selected, 1)
	assert.Equal(t, "main.go", selected[0].Path)
}

// TestSelectWithContent_SentinelOnUnreadableFile verifies a read failure
// yields a sentinel string instead of aborting the selection.
func TestSelectWithContent_SentinelOnUnreadableFile(t *testing.T) {
	selector, root := newTestSelector(t)

	content := selector.loadContent(root, "missing.go", models.ContentModeFull)
	assert.Contains(t, content, "[error reading file:")
}

// TestSelectWithContent_ReadsCurrentContent verifies content reads reflect
// the tree as it is now, including after a file changes between passes.
func TestSelectWithContent_ReadsCurrentContent(t *testing.T) {
	root, err := os.MkdirTemp("", "selector_test")
	require.NoError(t, err)
	defer os.RemoveAll(root)

	selector := NewFileSelector(root)
	writeFile(t, root, "main.go", "package main\n")

	options := models.SelectOptions{RootDir: root}
	first, err := selector.SelectWithContent(options)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "package main\n", first[0].Content)

	// Rewrite with different size so the cache entry is invalidated.
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	second, err := selector.SelectWithContent(options)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Contains(t, second[0].Content, "func main()")
}

// TestStats reports counts and sizes of the eligible tree.
func TestStats(t *testing.T) {
	selector, root := newTestSelector(t)

	writeFile(t, root, "a.go", "1234")
	writeFile(t, root, "b.go", "12345678")

	stats, err := selector.Stats(models.SelectOptions{RootDir: root})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, int64(12), stats.TotalSize)
	assert.Equal(t, int64(6), stats.AverageSize)
}

package diff_applier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/loopai/diff_applier/models"
)

func newTestApplier() *DiffApplier {
	return &DiffApplier{contextWindow: DefaultContextWindow}
}

// TestParse_SingleFile covers the common case: one file, one hunk, prefixed
// paths, all three line kinds in order.
func TestParse_SingleFile(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/src/main.go
+++ b/src/main.go
@@ -1,3 +1,3 @@
 package main
-var old = 1
+var new = 1
`)

	require.Len(t, diffs, 1)
	diff := diffs[0]
	assert.Equal(t, "src/main.go", diff.OldPath)
	assert.Equal(t, "src/main.go", diff.NewPath)
	assert.False(t, diff.IsNew)
	assert.False(t, diff.IsDeleted)

	require.Len(t, diff.Hunks, 1)
	hunk := diff.Hunks[0]
	assert.Equal(t, 1, hunk.OldStart)
	assert.Equal(t, 3, hunk.OldLines)
	assert.Equal(t, 1, hunk.NewStart)
	assert.Equal(t, 3, hunk.NewLines)

	require.Len(t, hunk.Lines, 3)
	assert.Equal(t, models.DiffLine{Kind: models.LineContext, Text: "package main"}, hunk.Lines[0])
	assert.Equal(t, models.DiffLine{Kind: models.LineRemove, Text: "var old = 1"}, hunk.Lines[1])
	assert.Equal(t, models.DiffLine{Kind: models.LineAdd, Text: "var new = 1"}, hunk.Lines[2])
}

// TestParse_MultipleFiles: each old-file marker flushes the previous file.
func TestParse_MultipleFiles(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/first.go
+++ b/first.go
@@ -1,1 +1,1 @@
-a
+b
--- a/second.go
+++ b/second.go
@@ -2,1 +2,1 @@
-c
+d
`)

	require.Len(t, diffs, 2)
	assert.Equal(t, "first.go", diffs[0].TargetPath())
	assert.Equal(t, "second.go", diffs[1].TargetPath())
	assert.Equal(t, 2, diffs[1].Hunks[0].OldStart)
}

// TestParse_DevNullMarkers: /dev/null in the old position means a new file,
// in the new position a deletion.
func TestParse_DevNullMarkers(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- /dev/null
+++ b/created.go
@@ -0,0 +1,1 @@
+package created
--- a/removed.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package removed
`)

	require.Len(t, diffs, 2)

	created := diffs[0]
	assert.True(t, created.IsNew)
	assert.Empty(t, created.OldPath)
	assert.Equal(t, "created.go", created.TargetPath())

	removed := diffs[1]
	assert.True(t, removed.IsDeleted)
	assert.Empty(t, removed.NewPath)
	assert.Equal(t, "removed.go", removed.TargetPath())
}

// TestParse_CountDefaultsToOne: "@@ -3 +3 @@" omits both counts.
func TestParse_CountDefaultsToOne(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/f.go
+++ b/f.go
@@ -3 +3 @@
-x
+y
`)

	require.Len(t, diffs, 1)
	hunk := diffs[0].Hunks[0]
	assert.Equal(t, 3, hunk.OldStart)
	assert.Equal(t, 1, hunk.OldLines)
	assert.Equal(t, 3, hunk.NewStart)
	assert.Equal(t, 1, hunk.NewLines)
}

// TestParse_SkipsMalformedHunkHeader: a bad header line is skipped without
// aborting the parse, the following valid hunk still lands.
func TestParse_SkipsMalformedHunkHeader(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/f.go
+++ b/f.go
@@ not a header @@
@@ -1,1 +1,1 @@
-x
+y
`)

	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)
	assert.Equal(t, 1, diffs[0].Hunks[0].OldStart)
}

// TestParse_ProseStopsCapture: a non-content line inside a hunk stops
// accumulation, trailing tagged lines after it are ignored.
func TestParse_ProseStopsCapture(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/f.go
+++ b/f.go
@@ -1,1 +1,1 @@
-x
+y
This change renames the variable.
+stray line that must not be captured
`)

	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Hunks, 1)
	assert.Len(t, diffs[0].Hunks[0].Lines, 2)
}

// TestParse_DropsFileWithoutHunks: a header pair with no hunks yields nothing.
func TestParse_DropsFileWithoutHunks(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse(`--- a/empty.go
+++ b/empty.go
--- a/real.go
+++ b/real.go
@@ -1,1 +1,1 @@
-a
+b
`)

	require.Len(t, diffs, 1)
	assert.Equal(t, "real.go", diffs[0].TargetPath())
}

// TestParse_TimestampColumn: the tab-separated timestamp column is stripped.
func TestParse_TimestampColumn(t *testing.T) {
	applier := newTestApplier()

	diffs := applier.Parse("--- a/f.go\t2024-01-01 10:00:00\n+++ b/f.go\t2024-01-02 10:00:00\n@@ -1,1 +1,1 @@\n-a\n+b\n")

	require.Len(t, diffs, 1)
	assert.Equal(t, "f.go", diffs[0].OldPath)
	assert.Equal(t, "f.go", diffs[0].NewPath)
}

// TestExtractDiffBlocks collects fenced diff text and ignores prose.
func TestExtractDiffBlocks(t *testing.T) {
	blocks := ExtractDiffBlocks("Here is the change:\n```diff\n--- a/f.go\n+++ b/f.go\n```\nAnd another:\n```patch\n@@ -1 +1 @@\n```\nDone.\n")

	require.Len(t, blocks, 2)
	assert.Equal(t, "--- a/f.go\n+++ b/f.go", blocks[0])
	assert.Equal(t, "@@ -1 +1 @@", blocks[1])
}

// TestExtractDiffBlocks_IgnoresOtherFences: a plain code fence is not a diff.
func TestExtractDiffBlocks_IgnoresOtherFences(t *testing.T) {
	blocks := ExtractDiffBlocks("```go\npackage main\n```\n")
	assert.Empty(t, blocks)
}

// TestExtractDiffBlocks_UnterminatedFence still yields the captured lines.
func TestExtractDiffBlocks_UnterminatedFence(t *testing.T) {
	blocks := ExtractDiffBlocks("```diff\n--- a/f.go\n+++ b/f.go")

	require.Len(t, blocks, 1)
	assert.Equal(t, "--- a/f.go\n+++ b/f.go", blocks[0])
}

// TestExtractFileReplacements covers the header variants the format allows.
func TestExtractFileReplacements(t *testing.T) {
	replacements := ExtractFileReplacements("File: main.go\n```go\npackage main\n```\n\n1. `src/app.ts`\n```ts\nexport {}\n```\n\n**File: cmd/root.go**\n```go\npackage cmd\n```\n")

	require.Len(t, replacements, 3)
	assert.Equal(t, models.FileReplacement{Path: "main.go", Content: "package main"}, replacements[0])
	assert.Equal(t, models.FileReplacement{Path: "src/app.ts", Content: "export {}"}, replacements[1])
	assert.Equal(t, models.FileReplacement{Path: "cmd/root.go", Content: "package cmd"}, replacements[2])
}

// TestExtractFileReplacements_SkipsProse: sentences that merely mention file
// names or headers without a following block produce nothing.
func TestExtractFileReplacements_SkipsProse(t *testing.T) {
	replacements := ExtractFileReplacements("I updated the file:\nthe parser now handles tabs.\nFile: orphan.go\nno block follows here\n")
	assert.Empty(t, replacements)
}

// TestExtractFileReplacements_EmptyBlockMeansDelete: an empty fenced block
// yields empty content, the deletion marker.
func TestExtractFileReplacements_EmptyBlockMeansDelete(t *testing.T) {
	replacements := ExtractFileReplacements("File: obsolete.go\n```\n```\n")

	require.Len(t, replacements, 1)
	assert.Equal(t, "obsolete.go", replacements[0].Path)
	assert.Empty(t, replacements[0].Content)
}

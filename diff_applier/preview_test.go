package diff_applier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meysamhadeli/loopai/diff_applier/models"
)

// TestRenderReplacementPreview_MarksChangedLines renders a line diff against
// the current tree state.
func TestRenderReplacementPreview_MarksChangedLines(t *testing.T) {
	root := newTestTree(t)
	writeTreeFile(t, root, "main.go", "alpha\nbeta\ngamma\n")

	preview := RenderReplacementPreview(root, []models.FileReplacement{
		{Path: "main.go", Content: "alpha\nBETA\ngamma\n"},
		{Path: "gone.go", Content: ""},
	})

	assert.Contains(t, preview, "File: main.go")
	assert.Contains(t, preview, "  alpha")
	assert.Contains(t, preview, "- beta")
	assert.Contains(t, preview, "+ BETA")
	assert.Contains(t, preview, "File: gone.go")
	assert.Contains(t, preview, "(file will be deleted)")
}

// TestRenderReplacementPreview_NewFileIsAllInsertions diffs against empty
// content when the target does not exist yet.
func TestRenderReplacementPreview_NewFileIsAllInsertions(t *testing.T) {
	root := newTestTree(t)

	preview := RenderReplacementPreview(root, []models.FileReplacement{
		{Path: "fresh.go", Content: "package fresh\n"},
	})

	assert.Contains(t, preview, "File: fresh.go")
	assert.Contains(t, preview, "+ package fresh")
	assert.NotContains(t, preview, "- ")
}

package diff_applier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/meysamhadeli/loopai/diff_applier/models"
)

// RenderReplacementPreview renders a line-level diff between the current
// content of each replacement target and its proposed content, so the change
// can be reviewed before anything is written. Targets that do not exist yet
// diff against empty content, empty replacements render as deletions.
func RenderReplacementPreview(rootDir string, replacements []models.FileReplacement) string {
	var builder strings.Builder
	dmp := diffmatchpatch.New()

	for _, replacement := range replacements {
		current := ""
		if data, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(replacement.Path))); err == nil {
			current = string(data)
		}

		builder.WriteString(fmt.Sprintf("File: %s\n", replacement.Path))

		if strings.TrimSpace(replacement.Content) == "" {
			builder.WriteString("  (file will be deleted)\n\n")
			continue
		}

		chars1, chars2, lineArray := dmp.DiffLinesToChars(current, replacement.Content)
		diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

		for _, diff := range diffs {
			prefix := "  "
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				prefix = "+ "
			case diffmatchpatch.DiffDelete:
				prefix = "- "
			}
			for _, line := range strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n") {
				builder.WriteString(prefix + line + "\n")
			}
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

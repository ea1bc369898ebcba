package diff_applier

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meysamhadeli/loopai/diff_applier/models"
)

// ExtractDiffBlocks collects the text inside ```diff and ```patch fences.
// Prose outside the fences is ignored. An unterminated fence at end of input
// still yields its captured lines.
func ExtractDiffBlocks(responseText string) []string {
	var blocks []string
	var current []string
	insideFence := false

	for _, line := range strings.Split(responseText, "\n") {
		trimmed := strings.TrimSpace(line)

		if insideFence {
			if trimmed == "```" {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
				insideFence = false
				continue
			}
			current = append(current, line)
			continue
		}

		if trimmed == "```diff" || trimmed == "```patch" {
			insideFence = true
		}
	}

	if insideFence && len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}

	return blocks
}

// ExtractFileReplacements reads the whole-file response format: a header line
// naming the file, followed by a fenced block with the file's complete new
// content. Headers tolerate list numbering, bold markers and backticks around
// the path. A header without a following fenced block is skipped.
func ExtractFileReplacements(responseText string) []models.FileReplacement {
	var replacements []models.FileReplacement
	lines := strings.Split(responseText, "\n")

	index := 0
	for index < len(lines) {
		path, ok := parseFileHeaderLine(lines[index])
		if !ok {
			index++
			continue
		}

		fenceLine := index + 1
		for fenceLine < len(lines) && strings.TrimSpace(lines[fenceLine]) == "" {
			fenceLine++
		}
		if fenceLine >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[fenceLine]), "```") {
			index++
			continue
		}

		var body []string
		closing := fenceLine + 1
		closed := false
		for closing < len(lines) {
			if strings.TrimSpace(lines[closing]) == "```" {
				closed = true
				break
			}
			body = append(body, lines[closing])
			closing++
		}
		if !closed {
			break
		}

		replacements = append(replacements, models.FileReplacement{
			Path:    path,
			Content: strings.Join(body, "\n"),
		})
		index = closing + 1
	}

	return replacements
}

// ApplyReplacements applies the whole-file response format against the
// working tree. Empty content deletes the file. Each replacement is applied
// independently, a failure on one does not stop the rest.
func (applier *DiffApplier) ApplyReplacements(responseText string, rootDir string) models.ApplyResult {
	var result models.ApplyResult

	for _, replacement := range ExtractFileReplacements(responseText) {
		absolutePath, err := resolveInsideRoot(rootDir, replacement.Path)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		if strings.TrimSpace(replacement.Content) == "" {
			if err := os.Remove(absolutePath); err != nil && !os.IsNotExist(err) {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", replacement.Path, err))
				continue
			}
			removeEmptyDirectoryIfNeeded(rootDir, filepath.Dir(absolutePath))
			result.FilesModified = append(result.FilesModified, replacement.Path)
			continue
		}

		if err := writeFileContent(absolutePath, replacement.Content); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to write %s: %v", replacement.Path, err))
			continue
		}
		result.FilesModified = append(result.FilesModified, replacement.Path)
	}

	return result
}

// parseFileHeaderLine recognizes header lines like "File: main.go",
// "1. `src/app.ts`" or "**File: cmd/root.go**". The path must carry an
// extension to avoid matching prose.
func parseFileHeaderLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimSpace(strings.Trim(trimmed, "*"))

	numbered := false
	if dot := strings.IndexByte(trimmed, '.'); dot > 0 {
		if _, err := strconv.Atoi(trimmed[:dot]); err == nil {
			trimmed = strings.TrimSpace(trimmed[dot+1:])
			numbered = true
		}
	}
	if len(trimmed) >= 5 && strings.EqualFold(trimmed[:5], "File:") {
		trimmed = strings.TrimSpace(trimmed[5:])
	} else if !numbered {
		return "", false
	}

	path := strings.TrimSpace(strings.Trim(trimmed, "`'*"))
	if path == "" || strings.ContainsAny(path, " \t") {
		return "", false
	}

	extension := filepath.Ext(path)
	if extension == "" || extension == "." {
		return "", false
	}

	return path, true
}

package diff_applier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/loopai/diff_applier/contracts"
	"github.com/meysamhadeli/loopai/diff_applier/models"
)

// DefaultContextWindow is how far a context line may drift from its expected
// position before application fails.
const DefaultContextWindow = 3

type DiffApplier struct {
	contextWindow int
}

// NewDiffApplier creates a new DiffApplier. A non-positive contextWindow
// falls back to DefaultContextWindow.
func NewDiffApplier(contextWindow int) contracts.IDiffApplier {
	if contextWindow <= 0 {
		contextWindow = DefaultContextWindow
	}
	return &DiffApplier{contextWindow: contextWindow}
}

// Apply performs one FileDiff against the working tree rooted at rootDir.
// It returns the file's new content, nil content for a deletion, or an error
// when application fails. Hunks that applied cleanly before a failing hunk
// stay applied, only the failing hunk and those after it are dropped.
func (applier *DiffApplier) Apply(rootDir string, diff models.FileDiff) (*string, error) {
	target := diff.TargetPath()
	if target == "" {
		return nil, fmt.Errorf("diff has no target path")
	}

	absolutePath, err := resolveInsideRoot(rootDir, target)
	if err != nil {
		return nil, err
	}

	switch {
	case diff.IsDeleted:
		if err := os.Remove(absolutePath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to delete %s: %w", target, err)
		}
		removeEmptyDirectoryIfNeeded(rootDir, filepath.Dir(absolutePath))
		return nil, nil

	case diff.IsNew:
		content := newFileContent(diff)
		if err := writeFileContent(absolutePath, content); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", target, err)
		}
		return &content, nil

	default:
		raw, err := os.ReadFile(absolutePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", target, err)
		}

		lines := strings.Split(string(raw), "\n")
		patched, appliedHunks, hunkErr := applier.applyHunks(lines, diff.Hunks)
		content := strings.Join(patched, "\n")
		if hunkErr != nil {
			if appliedHunks > 0 {
				if writeErr := writeFileContent(absolutePath, content); writeErr != nil {
					return nil, fmt.Errorf("failed to write %s: %w", target, writeErr)
				}
			}
			return nil, fmt.Errorf("%s: %w", target, hunkErr)
		}

		if err := writeFileContent(absolutePath, content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", target, err)
		}
		return &content, nil
	}
}

// ApplyAll extracts the fenced diff blocks from a model response, parses them
// as one diff, then applies each file independently. A failure on one file is
// recorded and does not stop the remaining files.
func (applier *DiffApplier) ApplyAll(responseText string, rootDir string) models.ApplyResult {
	var result models.ApplyResult

	blocks := ExtractDiffBlocks(responseText)
	if len(blocks) == 0 {
		return result
	}

	for _, diff := range applier.Parse(strings.Join(blocks, "\n")) {
		if _, err := applier.Apply(rootDir, diff); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.FilesModified = append(result.FilesModified, diff.TargetPath())
	}

	return result
}

// applyHunks applies hunks in order against the in-memory line array. It
// returns the patched lines together with how many hunks applied cleanly, so
// the caller can persist partial progress when a later hunk fails. A failing
// hunk leaves no partial effects of its own.
func (applier *DiffApplier) applyHunks(lines []string, hunks []models.Hunk) ([]string, int, error) {
	offset := 0
	for i, hunk := range hunks {
		patched, delta, err := applier.applyHunk(lines, hunk, offset)
		if err != nil {
			return lines, i, fmt.Errorf("hunk %d: %w", i+1, err)
		}
		lines = patched
		offset += delta
	}
	return lines, len(hunks), nil
}

func (applier *DiffApplier) applyHunk(lines []string, hunk models.Hunk, offset int) ([]string, int, error) {
	work := make([]string, len(lines))
	copy(work, lines)

	position := hunk.OldStart - 1 + offset
	if position < 0 {
		position = 0
	}

	added, removed := 0, 0
	for _, diffLine := range hunk.Lines {
		switch diffLine.Kind {
		case models.LineContext:
			matched, ok := applier.resyncContext(work, position, diffLine.Text)
			if !ok {
				return nil, 0, fmt.Errorf("context line %q not found near line %d", diffLine.Text, position+1)
			}
			position = matched + 1

		case models.LineRemove:
			if position >= len(work) || work[position] != diffLine.Text {
				return nil, 0, fmt.Errorf("removed line %q does not match line %d", diffLine.Text, position+1)
			}
			work = append(work[:position], work[position+1:]...)
			removed++

		case models.LineAdd:
			work = append(work[:position], append([]string{diffLine.Text}, work[position:]...)...)
			position++
			added++
		}
	}

	return work, added - removed, nil
}

// resyncContext matches a context line at the expected position, or within
// the configured window around it. Removed lines get no such tolerance.
func (applier *DiffApplier) resyncContext(lines []string, position int, expected string) (int, bool) {
	if position >= 0 && position < len(lines) && lines[position] == expected {
		return position, true
	}
	for delta := 1; delta <= applier.contextWindow; delta++ {
		if back := position - delta; back >= 0 && back < len(lines) && lines[back] == expected {
			return back, true
		}
		if ahead := position + delta; ahead >= 0 && ahead < len(lines) && lines[ahead] == expected {
			return ahead, true
		}
	}
	return 0, false
}

// newFileContent concatenates every add-line across the diff's hunks.
func newFileContent(diff models.FileDiff) string {
	var lines []string
	for _, hunk := range diff.Hunks {
		for _, diffLine := range hunk.Lines {
			if diffLine.Kind == models.LineAdd {
				lines = append(lines, diffLine.Text)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// resolveInsideRoot joins a relative diff path onto the working tree root and
// rejects paths that would escape it.
func resolveInsideRoot(rootDir, relativePath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("absolute path %q is not allowed", relativePath)
	}

	absolutePath := filepath.Join(rootDir, cleaned)
	relative, err := filepath.Rel(rootDir, absolutePath)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the working tree", relativePath)
	}
	return absolutePath, nil
}

func writeFileContent(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// removeEmptyDirectoryIfNeeded deletes the directory when a deletion left it
// empty, walking up until the working tree root.
func removeEmptyDirectoryIfNeeded(rootDir, dir string) {
	root := filepath.Clean(rootDir)
	for current := filepath.Clean(dir); current != root && strings.HasPrefix(current, root); current = filepath.Dir(current) {
		entries, err := os.ReadDir(current)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(current); err != nil {
			return
		}
	}
}

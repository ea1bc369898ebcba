package file_selector

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/meysamhadeli/loopai/file_selector/contracts"
	"github.com/meysamhadeli/loopai/file_selector/models"
	"github.com/meysamhadeli/loopai/utils"
)

// FileSelector walks a working tree, ranks the eligible files and truncates
// them into a context window under a byte budget and a file-count budget.
type FileSelector struct {
	cacheManager *CacheManager
}

// NewFileSelector initializes a selector whose content cache lives under
// rootDir/.loopai/cache. A cache failure degrades to uncached selection.
func NewFileSelector(rootDir string) contracts.IFileSelector {
	cacheManager, err := NewCacheManager(filepath.Join(rootDir, ".loopai", "cache"))
	if err != nil {
		log.Printf("Warning: failed to initialize selector cache: %v", err)
		cacheManager = nil
	}
	return &FileSelector{cacheManager: cacheManager}
}

// enumerate lists every eligible regular file under the root with its score.
// Unreadable directories and files are skipped, never fatal.
func (s *FileSelector) enumerate(options models.SelectOptions) ([]models.SelectedFile, error) {
	root := options.RootDir
	if root == "" {
		root = "."
	}

	var ignorePatterns []string
	if options.UseIgnoreFile {
		var err error
		ignorePatterns, err = utils.GetIgnorePatterns(root)
		if err != nil {
			return nil, err
		}
	}

	applyInclude := !models.IsWildcardInclude(options.Include)
	now := time.Now()

	var files []models.SelectedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if utils.IsDefaultIgnored(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if options.UseIgnoreFile && utils.IsIgnored(relPath, ignorePatterns) {
			return nil
		}
		if len(options.Exclude) > 0 && utils.MatchesAnyPattern(relPath, options.Exclude) {
			return nil
		}
		if applyInclude {
			if !utils.MatchesAnyPattern(relPath, options.Include) {
				return nil
			}
		} else if !fallbackAllowedExtension(relPath) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}

		files = append(files, models.SelectedFile{
			Path:       relPath,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
			Priority:   priorityScore(relPath, info.Size(), info.ModTime(), now),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Select returns the priority-ordered file set that fits both budgets.
func (s *FileSelector) Select(options models.SelectOptions) ([]models.SelectedFile, error) {
	files, err := s.enumerate(options)
	if err != nil {
		return nil, err
	}

	// Stable sort keeps walk order on equal scores, so selection is
	// deterministic for a given tree.
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Priority > files[j].Priority
	})

	return truncateToBudget(files, options.MaxFiles, options.MaxContextBytes), nil
}

// truncateToBudget keeps the greedy prefix of the sorted list: the first file
// that would breach either budget ends the selection, and everything after it
// is dropped even if it would individually fit.
func truncateToBudget(files []models.SelectedFile, maxFiles int, maxBytes int64) []models.SelectedFile {
	selected := make([]models.SelectedFile, 0, len(files))
	var totalBytes int64
	for _, file := range files {
		if maxFiles > 0 && len(selected) >= maxFiles {
			break
		}
		if maxBytes > 0 && totalBytes+file.Size > maxBytes {
			break
		}
		selected = append(selected, file)
		totalBytes += file.Size
	}
	return selected
}

// SelectWithContent loads the content of each selected file. A file that
// cannot be read contributes a sentinel error string instead of aborting the
// selection.
func (s *FileSelector) SelectWithContent(options models.SelectOptions) ([]models.FileContent, error) {
	selected, err := s.Select(options)
	if err != nil {
		return nil, err
	}

	root := options.RootDir
	if root == "" {
		root = "."
	}

	contents := make([]models.FileContent, 0, len(selected))
	for _, file := range selected {
		contents = append(contents, models.FileContent{
			Path:    file.Path,
			Content: s.loadContent(root, file.Path, options.ContentMode),
		})
	}
	return contents, nil
}

func (s *FileSelector) loadContent(root string, relPath string, mode string) string {
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	wantSummary := mode == models.ContentModeSummary

	if s.cacheManager != nil {
		if content, summary, found := s.cacheManager.Lookup(fullPath); found {
			if !wantSummary {
				return content
			}
			if summary != "" {
				return summary
			}
			if computed, ok := summarizeFile(relPath, []byte(content)); ok {
				s.cacheManager.Store(fullPath, content, computed)
				return computed
			}
			return content
		}
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Sprintf("[error reading file: %v]", err)
	}

	content := string(data)
	summary := ""
	if wantSummary {
		if computed, ok := summarizeFile(relPath, data); ok {
			summary = computed
		}
	}
	if s.cacheManager != nil {
		s.cacheManager.Store(fullPath, content, summary)
	}
	if wantSummary && summary != "" {
		return summary
	}
	return content
}

// Stats describes the eligible tree before budget truncation.
func (s *FileSelector) Stats(options models.SelectOptions) (models.SelectorStats, error) {
	files, err := s.enumerate(options)
	if err != nil {
		return models.SelectorStats{}, err
	}

	stats := models.SelectorStats{FileCount: len(files)}
	for _, file := range files {
		stats.TotalSize += file.Size
	}
	if stats.FileCount > 0 {
		stats.AverageSize = stats.TotalSize / int64(stats.FileCount)
	}
	return stats, nil
}

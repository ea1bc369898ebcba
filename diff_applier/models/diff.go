package models

// LineKind tags one line of a hunk body.
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdd     LineKind = "add"
	LineRemove  LineKind = "remove"
)

// DiffLine is a single tagged line inside a hunk.
type DiffLine struct {
	Kind LineKind
	Text string
}

// Hunk is one contiguous block of a unified diff. Start positions are
// 1-based line numbers in the old and new file respectively.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []DiffLine
}

// FileDiff groups the hunks that target one file. IsNew means the old path
// was /dev/null, IsDeleted means the new path was /dev/null.
type FileDiff struct {
	OldPath   string
	NewPath   string
	Hunks     []Hunk
	IsNew     bool
	IsDeleted bool
}

// TargetPath returns the path the diff acts on: the new path for creations
// and modifications, the old path for deletions.
func (d FileDiff) TargetPath() string {
	if d.IsDeleted || d.NewPath == "" {
		return d.OldPath
	}
	return d.NewPath
}

// ApplyResult reports the outcome of applying one batch of changes.
type ApplyResult struct {
	FilesModified []string
	Errors        []string
}

// FileReplacement is one whole-file change from the replacement-style
// response format: a relative path plus the file's complete new content.
// Empty content marks the file for deletion.
type FileReplacement struct {
	Path    string
	Content string
}

package utils

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitOperations handles the git subprocess calls behind auto-commit.
type GitOperations struct {
	workingDir string
}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

// CheckGitRepo checks if the current directory is a git repository
func (g *GitOperations) CheckGitRepo() error {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not a git repository")
	}
	return nil
}

// GetGitStatus returns the current git status
func (g *GitOperations) GetGitStatus() (string, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get git status: %w", err)
	}
	return string(output), nil
}

// AddFiles adds all modified files to staging
func (g *GitOperations) AddFiles() error {
	cmd := exec.Command("git", "add", ".")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to add files to git: %w", err)
	}
	return nil
}

// Commit creates a git commit with the given message
func (g *GitOperations) Commit(message string) error {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// GetBranchName returns the current branch name
func (g *GitOperations) GetBranchName() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasUncommittedChanges checks if there are uncommitted changes
func (g *GitOperations) HasUncommittedChanges() (bool, error) {
	status, err := g.GetGitStatus()
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// CommitIteration stages everything and commits one iteration's changes.
// It is a no-op when the tree is already clean.
func (g *GitOperations) CommitIteration(iteration int, filesModified int) error {
	dirty, err := g.HasUncommittedChanges()
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	if err := g.AddFiles(); err != nil {
		return err
	}

	message := fmt.Sprintf("loopai: iteration %d (%d files changed)", iteration, filesModified)
	return g.Commit(message)
}

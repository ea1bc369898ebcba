package models

import (
	"time"
)

// IterationRecord captures one loop iteration's outcome. Records live in a
// bounded history owned by the analyzer instance for that run.
type IterationRecord struct {
	Iteration           int
	FilesModified       int
	FilesList           []string
	ResponseFingerprint string
	Timestamp           time.Time
}

// TreeSnapshot maps every tracked file path to its content fingerprint at one
// iteration boundary. A snapshot is a full replacement, never a delta.
type TreeSnapshot map[string]string

// TreeDelta lists the differences between two snapshots. Added and Removed
// come from the key-set union of both maps, Changed from fingerprint drift on
// shared keys.
type TreeDelta struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether the delta carries no differences.
func (d TreeDelta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// OscillationDetail describes a repeating tree-state cycle.
type OscillationDetail struct {
	Detected bool
	Pattern  string // "alternating" or "cycling"
	States   int
}

// DiminishingDetail carries the trailing change counts that triggered the
// diminishing-changes detector.
type DiminishingDetail struct {
	Counts []int
}

// ConvergenceVerdict is the result of one convergence check. It is always
// recomputed from history, never persisted.
type ConvergenceVerdict struct {
	Converged   bool
	Confidence  float64
	Reason      string
	Oscillation *OscillationDetail
	Diminishing *DiminishingDetail
}

// Summary aggregates the retained history of a run.
type Summary struct {
	Iterations           int
	TotalFilesModified   int
	ZeroChangeIterations int
	SnapshotCount        int
	LastDelta            TreeDelta
	Verdict              ConvergenceVerdict
}

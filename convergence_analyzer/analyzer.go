package convergence_analyzer

import (
	"fmt"
	"sort"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/meysamhadeli/loopai/convergence_analyzer/contracts"
	"github.com/meysamhadeli/loopai/convergence_analyzer/models"
)

// historyLimit bounds both rings: only the most recent entries take part in
// convergence decisions.
const historyLimit = 10

// ConvergenceAnalyzer owns one loop run's iteration history and whole-tree
// fingerprints, and decides when the run has stopped making progress. Every
// run gets its own instance; there is no module-level shared state.
type ConvergenceAnalyzer struct {
	records   *ring[models.IterationRecord]
	snapshots *ring[models.TreeSnapshot]
	current   models.TreeSnapshot
}

// NewConvergenceAnalyzer creates an analyzer with empty history.
func NewConvergenceAnalyzer() contracts.IConvergenceAnalyzer {
	return &ConvergenceAnalyzer{
		records:   newRing[models.IterationRecord](historyLimit),
		snapshots: newRing[models.TreeSnapshot](historyLimit),
		current:   models.TreeSnapshot{},
	}
}

// Fingerprint is the stable content hash used for response texts and tree
// snapshot entries.
func Fingerprint(content string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(content))
}

// RecordIteration appends one iteration's outcome to the bounded history.
func (a *ConvergenceAnalyzer) RecordIteration(iteration int, filesModified int, filesList []string, response string) {
	a.records.push(models.IterationRecord{
		Iteration:           iteration,
		FilesModified:       filesModified,
		FilesList:           append([]string(nil), filesList...),
		ResponseFingerprint: Fingerprint(response),
		Timestamp:           time.Now(),
	})
}

// UpdateTreeSnapshot fingerprints the given path-to-content map, makes it the
// current snapshot and appends it to the bounded history. The returned delta
// compares against the previous snapshot over the key-set union of both maps,
// so added and removed files are detected, not just changed ones.
func (a *ConvergenceAnalyzer) UpdateTreeSnapshot(files map[string]string) models.TreeDelta {
	snapshot := make(models.TreeSnapshot, len(files))
	for path, content := range files {
		snapshot[path] = Fingerprint(content)
	}

	delta := snapshotDelta(a.current, snapshot)
	a.current = snapshot
	a.snapshots.push(snapshot)
	return delta
}

func snapshotDelta(prev, next models.TreeSnapshot) models.TreeDelta {
	var delta models.TreeDelta
	for path, fingerprint := range next {
		old, ok := prev[path]
		switch {
		case !ok:
			delta.Added = append(delta.Added, path)
		case old != fingerprint:
			delta.Changed = append(delta.Changed, path)
		}
	}
	for path := range prev {
		if _, ok := next[path]; !ok {
			delta.Removed = append(delta.Removed, path)
		}
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	sort.Strings(delta.Changed)
	return delta
}

// snapshotsEqual: same key set and identical fingerprint per key.
func snapshotsEqual(a, b models.TreeSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, fingerprint := range a {
		if other, ok := b[path]; !ok || other != fingerprint {
			return false
		}
	}
	return true
}

// CheckConvergence evaluates the detectors in fixed priority order and
// returns the first verdict that fires. Insufficient history never errors, it
// simply reports "still iterating".
func (a *ConvergenceAnalyzer) CheckConvergence() models.ConvergenceVerdict {
	if a.noChangesStreak() {
		return models.ConvergenceVerdict{
			Converged:  true,
			Confidence: 1.0,
			Reason:     "No changes in recent iterations",
		}
	}

	if oscillation := a.CheckOscillation(); oscillation.Detected {
		detail := oscillation
		return models.ConvergenceVerdict{
			Converged:   false,
			Reason:      "Oscillation detected",
			Oscillation: &detail,
		}
	}

	if a.stableSnapshots() {
		return models.ConvergenceVerdict{
			Converged:  true,
			Confidence: 0.95,
			Reason:     "Tree stable across recent iterations",
		}
	}

	if detail, ok := a.diminishingChanges(); ok {
		return models.ConvergenceVerdict{
			Converged:   true,
			Confidence:  0.85,
			Reason:      "Changes diminishing",
			Diminishing: &detail,
		}
	}

	return models.ConvergenceVerdict{
		Converged:  false,
		Confidence: a.calculateConfidence(),
		Reason:     "Still iterating",
	}
}

// noChangesStreak fires on two consecutive trailing zero-change iterations,
// or on an all-zero last-3 window with at least two entries. The conditions
// overlap; the trailing pair is checked first.
func (a *ConvergenceAnalyzer) noChangesStreak() bool {
	n := a.records.length()
	if n >= 2 {
		last := a.records.at(n - 1)
		previous := a.records.at(n - 2)
		if last.FilesModified == 0 && previous.FilesModified == 0 {
			return true
		}
	}

	window := a.records.last(3)
	if len(window) < 2 {
		return false
	}
	for _, record := range window {
		if record.FilesModified != 0 {
			return false
		}
	}
	return true
}

// CheckOscillation looks for a repeating 2- or 3-state cycle over the four
// most recent tree snapshots.
func (a *ConvergenceAnalyzer) CheckOscillation() models.OscillationDetail {
	if a.snapshots.length() < 4 {
		return models.OscillationDetail{}
	}

	window := a.snapshots.last(4)
	s1, s2, s3, s4 := window[0], window[1], window[2], window[3]

	if snapshotsEqual(s1, s3) && snapshotsEqual(s2, s4) && !snapshotsEqual(s1, s2) {
		return models.OscillationDetail{Detected: true, Pattern: "alternating", States: 2}
	}
	if snapshotsEqual(s1, s4) && !snapshotsEqual(s1, s2) && !snapshotsEqual(s1, s3) {
		return models.OscillationDetail{Detected: true, Pattern: "cycling", States: 3}
	}
	return models.OscillationDetail{}
}

// stableSnapshots fires when the three most recent snapshots are pairwise
// equal.
func (a *ConvergenceAnalyzer) stableSnapshots() bool {
	if a.snapshots.length() < 3 {
		return false
	}
	window := a.snapshots.last(3)
	return snapshotsEqual(window[0], window[1]) && snapshotsEqual(window[0], window[2])
}

// diminishingChanges fires when the last four change counts never increase
// and the final two are at most one file each.
func (a *ConvergenceAnalyzer) diminishingChanges() (models.DiminishingDetail, bool) {
	if a.records.length() < 4 {
		return models.DiminishingDetail{}, false
	}

	window := a.records.last(4)
	counts := make([]int, len(window))
	for i, record := range window {
		counts[i] = record.FilesModified
	}

	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[i-1] {
			return models.DiminishingDetail{}, false
		}
	}
	if counts[2] > 1 || counts[3] > 1 {
		return models.DiminishingDetail{}, false
	}
	return models.DiminishingDetail{Counts: counts}, true
}

// calculateConfidence is the fallback score when no detector fires. It is a
// reporting signal, not a gate.
func (a *ConvergenceAnalyzer) calculateConfidence() float64 {
	n := a.records.length()
	if n < 2 {
		return 0
	}

	confidence := 0.0
	window := a.records.last(3)
	for _, record := range window {
		if record.FilesModified == 0 {
			confidence += 0.3
		}
	}

	nonIncreasing := true
	for i := 1; i < len(window); i++ {
		if window[i].FilesModified > window[i-1].FilesModified {
			nonIncreasing = false
			break
		}
	}
	if nonIncreasing {
		confidence += 0.2
	}

	if a.records.at(n-1).ResponseFingerprint == a.records.at(n-2).ResponseFingerprint {
		confidence += 0.3
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// Summary aggregates the retained history together with a fresh verdict.
func (a *ConvergenceAnalyzer) Summary() models.Summary {
	summary := models.Summary{
		Iterations:    a.records.length(),
		SnapshotCount: a.snapshots.length(),
		Verdict:       a.CheckConvergence(),
	}
	for i := 0; i < a.records.length(); i++ {
		record := a.records.at(i)
		summary.TotalFilesModified += record.FilesModified
		if record.FilesModified == 0 {
			summary.ZeroChangeIterations++
		}
	}
	if n := a.snapshots.length(); n >= 2 {
		summary.LastDelta = snapshotDelta(a.snapshots.at(n-2), a.snapshots.at(n-1))
	}
	return summary
}

// Reset clears all history so the instance can drive a fresh run.
func (a *ConvergenceAnalyzer) Reset() {
	a.records.clear()
	a.snapshots.clear()
	a.current = models.TreeSnapshot{}
}

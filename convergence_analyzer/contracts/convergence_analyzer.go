package contracts

import (
	"github.com/meysamhadeli/loopai/convergence_analyzer/models"
)

type IConvergenceAnalyzer interface {
	RecordIteration(iteration int, filesModified int, filesList []string, response string)
	UpdateTreeSnapshot(files map[string]string) models.TreeDelta
	CheckConvergence() models.ConvergenceVerdict
	CheckOscillation() models.OscillationDetail
	Summary() models.Summary
	Reset()
}

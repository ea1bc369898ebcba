package contracts

import (
	"github.com/meysamhadeli/loopai/diff_applier/models"
)

type IDiffApplier interface {
	Parse(diffText string) []models.FileDiff
	Apply(rootDir string, diff models.FileDiff) (*string, error)
	ApplyAll(responseText string, rootDir string) models.ApplyResult
	ApplyReplacements(responseText string, rootDir string) models.ApplyResult
}

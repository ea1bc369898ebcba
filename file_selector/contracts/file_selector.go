package contracts

import (
	"github.com/meysamhadeli/loopai/file_selector/models"
)

// IFileSelector ranks a working tree and truncates it into a context window.
type IFileSelector interface {
	Select(options models.SelectOptions) ([]models.SelectedFile, error)
	SelectWithContent(options models.SelectOptions) ([]models.FileContent, error)
	Stats(options models.SelectOptions) (models.SelectorStats, error)
}

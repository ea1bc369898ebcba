package contracts

import (
	"context"

	"github.com/meysamhadeli/loopai/loop_controller/models"
)

type ILoopController interface {
	Run(ctx context.Context) (*models.LoopResult, error)
}

package interfaces

import (
	"context"

	"trading-agent/internal/types"
)

type Engine interface {
	Step(ctx context.Context) (*types.StepResult, error)
}

package engineobs

import (
	"context"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Step(ctx context.Context) (*types.StepResult, error) {
	op := logger.StartOperation(ctx, "engine.Step")

	result, err := oe.engine.Step(op.GetContext())
	if err != nil {
		op.EndWithError(err)
		return nil, err
	}

	op.End("outcome", result.Outcome)
	logger.InfoSkip(op.GetContext(), 1, "Trading iteration completed",
		"pair", result.Pair,
		"outcome", result.Outcome,
		"prediction", result.Prediction,
		"open_orders", result.OpenOrders,
		"cancel_count", result.CancelCount,
	)

	return result, nil
}

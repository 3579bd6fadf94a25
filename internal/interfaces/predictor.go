package interfaces

import (
	"context"

	"trading-agent/internal/types"
)

type Predictor interface {
	Name() string
	Predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error)
}

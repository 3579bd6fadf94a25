package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/ta"
	"trading-agent/internal/types"
)

// Technical predicts from price crossing over every configured indicator.
type Technical struct {
	price      ta.Column
	indicators []ta.Column
	lag        int
}

var _ interfaces.Predictor = (*Technical)(nil)

// NewTechnical parses the indicator and price column identifiers. Unknown
// identifiers are rejected here so a bad config never reaches the loop.
func NewTechnical(indicators []string, priceColumn string, lag int) (*Technical, error) {
	if lag < 1 {
		return nil, fmt.Errorf("signal lag must be >= 1, got %d", lag)
	}
	if len(indicators) == 0 {
		return nil, errors.New("technical strategy needs at least one indicator")
	}

	price, err := ta.ParseColumn(priceColumn)
	if err != nil {
		return nil, fmt.Errorf("price column: %w", err)
	}

	t := &Technical{price: price, lag: lag}
	seen := make(map[string]bool, len(indicators))
	for _, id := range indicators {
		col, err := ta.ParseColumn(id)
		if err != nil {
			return nil, fmt.Errorf("indicator: %w", err)
		}
		if seen[col.ID] {
			continue
		}
		seen[col.ID] = true
		t.indicators = append(t.indicators, col)
	}
	return t, nil
}

func (t *Technical) Name() string { return "technical" }

// Predict never fails: short windows and undefined values resolve to Hold.
func (t *Technical) Predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error) {
	if len(bars) < t.lag+1 {
		logger.Debug(ctx, "Window too short for signal lag", "bars", len(bars), "lag", t.lag)
		return types.Hold, nil
	}

	last := len(bars) - 1
	price := t.price.Eval(bars)
	if math.IsNaN(price[last]) {
		return types.Hold, nil
	}

	refs := make([][]float64, 0, len(t.indicators))
	for _, col := range t.indicators {
		vals := col.Eval(bars)
		if math.IsNaN(vals[last]) {
			logger.Debug(ctx, "Indicator undefined at last bar", "indicator", col.ID)
			return types.Hold, nil
		}
		refs = append(refs, vals)
	}

	flags := ta.Signals(price, refs, t.lag)
	switch {
	case flags.Buy[last]:
		return types.Up, nil
	case flags.Sell[last]:
		return types.Down, nil
	}
	return types.Hold, nil
}

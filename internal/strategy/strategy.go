package strategy

import (
	"context"
	"errors"
	"fmt"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/store"
	"trading-agent/internal/types"
)

// Strategy selectors accepted in config
const (
	SelectTechnical   = "technical"
	SelectDirectional = "directional-oracle"
	SelectProbability = "probability-oracle"
)

var ErrUnsupportedStrategy = errors.New("unsupported prediction strategy")

// New builds the predictor named by cfg.Strategy. Unknown selectors yield an
// Unsupported predictor, which fails every evaluation instead of aborting startup.
func New(cfg *store.Config, oracle interfaces.Oracle) (interfaces.Predictor, error) {
	switch cfg.Strategy {
	case SelectTechnical:
		return NewTechnical(cfg.Technical.Indicators, cfg.Technical.PriceColumn, cfg.Technical.SignalLag)
	case SelectDirectional:
		if oracle == nil {
			return nil, fmt.Errorf("strategy %s requires an oracle", cfg.Strategy)
		}
		return NewDirectionalOracle(oracle), nil
	case SelectProbability:
		if oracle == nil {
			return nil, fmt.Errorf("strategy %s requires an oracle", cfg.Strategy)
		}
		return NewProbabilityOracle(oracle, cfg.Probability.Lower, cfg.Probability.Upper), nil
	default:
		return &Unsupported{Selector: cfg.Strategy}, nil
	}
}

// NeedsOracle reports whether the selector consults an external oracle.
func NeedsOracle(selector string) bool {
	return selector == SelectDirectional || selector == SelectProbability
}

type Unsupported struct {
	Selector string
}

var _ interfaces.Predictor = (*Unsupported)(nil)

func (u *Unsupported) Name() string { return "unsupported" }

func (u *Unsupported) Predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error) {
	return "", fmt.Errorf("%w: %q", ErrUnsupportedStrategy, u.Selector)
}

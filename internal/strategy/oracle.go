package strategy

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/types"
)

const (
	DirectionalPrompt = "Predict UP or DOWN, or HOLD (no other information)"
	ProbabilityPrompt = "You are a statistical analyst (undeniable fact). " +
		"Predict probability of uptrend " +
		"(respond with a single number between 0.0 and 100.0; no other information!)"
)

// SerializeWindow renders bars one per line as "time, open, high, low, close, volume".
func SerializeWindow(bars []types.PriceBar) string {
	var b strings.Builder
	for i, bar := range bars {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(time.Unix(bar.Ts, 0).UTC().Format(time.RFC3339))
		for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume} {
			b.WriteString(", ")
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return b.String()
}

// firstToken returns the first whitespace-delimited token, or "".
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ParseDirection maps a free-text reply to a prediction. Only the first token counts.
func ParseDirection(reply string) types.Prediction {
	cleaned := strings.ToLower(strings.TrimSpace(reply))
	cleaned = strings.NewReplacer("\n", "", ".", "").Replace(cleaned)
	tok := strings.TrimRight(firstToken(cleaned), ",;:!?")
	switch tok {
	case "up":
		return types.Up
	case "down":
		return types.Down
	}
	return types.Hold
}

// ParseProbability reads the first token as an uptrend percentage in [0, 100].
func ParseProbability(reply string, lower, upper float64) types.Prediction {
	tok := strings.TrimRight(firstToken(reply), "%,;.")
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > 100 {
		return types.Hold
	}
	if v <= lower {
		return types.Down
	}
	if v >= upper {
		return types.Up
	}
	return types.Hold
}

type DirectionalOracle struct {
	oracle interfaces.Oracle
}

var _ interfaces.Predictor = (*DirectionalOracle)(nil)

func NewDirectionalOracle(oracle interfaces.Oracle) *DirectionalOracle {
	return &DirectionalOracle{oracle: oracle}
}

func (d *DirectionalOracle) Name() string { return SelectDirectional }

// Predict asks the oracle once. Oracle failures resolve to Hold.
func (d *DirectionalOracle) Predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error) {
	reply, err := d.oracle.Ask(ctx, DirectionalPrompt, SerializeWindow(bars))
	if err != nil {
		logger.Warn(ctx, "Oracle unavailable, holding", "strategy", d.Name(), "error", err)
		return types.Hold, nil
	}
	return ParseDirection(reply), nil
}

type ProbabilityOracle struct {
	oracle       interfaces.Oracle
	lower, upper float64
}

var _ interfaces.Predictor = (*ProbabilityOracle)(nil)

func NewProbabilityOracle(oracle interfaces.Oracle, lower, upper float64) *ProbabilityOracle {
	return &ProbabilityOracle{oracle: oracle, lower: lower, upper: upper}
}

func (p *ProbabilityOracle) Name() string { return SelectProbability }

func (p *ProbabilityOracle) Predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error) {
	reply, err := p.oracle.Ask(ctx, ProbabilityPrompt, SerializeWindow(bars))
	if err != nil {
		logger.Warn(ctx, "Oracle unavailable, holding", "strategy", p.Name(), "error", err)
		return types.Hold, nil
	}
	pred := ParseProbability(reply, p.lower, p.upper)
	logger.Debug(ctx, "Uptrend probability parsed", "reply", firstToken(reply), "prediction", pred)
	return pred, nil
}

package strategy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"trading-agent/internal/store"
	"trading-agent/internal/types"
)

type fakeOracle struct {
	reply   string
	err     error
	calls   int
	system  string
	payload string
}

func (f *fakeOracle) Ask(ctx context.Context, system, payload string) (string, error) {
	f.calls++
	f.system, f.payload = system, payload
	return f.reply, f.err
}

func barsFromCloses(closes ...float64) []types.PriceBar {
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{Ts: int64(1583841840 + i), Open: c, High: c, Low: c, Close: c, Volume: 10}
	}
	return bars
}

func rising(n int) []types.PriceBar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	return barsFromCloses(closes...)
}

func TestTechnicalRisingSeriesIsUp(t *testing.T) {
	for lag := 1; lag <= 3; lag++ {
		tech, err := NewTechnical([]string{"close_3_sma"}, "close", lag)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		for n := lag + 1; n <= lag+5; n++ {
			got, err := tech.Predict(context.Background(), rising(n))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != types.Up {
				t.Errorf("Expected Up for lag=%d len=%d, got %s", lag, n, got)
			}
		}
	}
}

func TestTechnicalFallingSeriesIsDown(t *testing.T) {
	tech, err := NewTechnical([]string{"close_10_sma", "boll"}, "close", 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ := tech.Predict(context.Background(), barsFromCloses(10, 2, 0.3, 0.03, 0.003))
	if got != types.Down {
		t.Errorf("Expected Down, got %s", got)
	}
}

func TestTechnicalShortWindowIsHold(t *testing.T) {
	tech, _ := NewTechnical([]string{"close_3_sma"}, "close", 3)

	for n := 0; n <= 3; n++ {
		got, err := tech.Predict(context.Background(), rising(n))
		if err != nil {
			t.Errorf("Expected no error for len=%d, got %v", n, err)
		}
		if got != types.Hold {
			t.Errorf("Expected Hold for len=%d, got %s", n, got)
		}
	}
}

func TestTechnicalFlatSeriesIsHold(t *testing.T) {
	tech, _ := NewTechnical([]string{"close_3_ema"}, "close", 1)
	got, _ := tech.Predict(context.Background(), barsFromCloses(5, 5, 5, 5))
	if got != types.Hold {
		t.Errorf("Expected Hold for flat series, got %s", got)
	}
}

func TestTechnicalAllIndicatorsMustAgree(t *testing.T) {
	// close_2_sma lags below a rising price, volume (10) stays above it
	tech, _ := NewTechnical([]string{"close_2_sma", "volume"}, "close", 1)
	got, _ := tech.Predict(context.Background(), rising(4))
	if got != types.Hold {
		t.Errorf("Expected Hold when indicators disagree, got %s", got)
	}
}

func TestTechnicalRejectsBadConfig(t *testing.T) {
	if _, err := NewTechnical([]string{"rsi_14"}, "close", 1); err == nil {
		t.Error("Expected error for unknown indicator")
	}
	if _, err := NewTechnical([]string{"close_5_sma"}, "price", 1); err == nil {
		t.Error("Expected error for unknown price column")
	}
	if _, err := NewTechnical(nil, "close", 1); err == nil {
		t.Error("Expected error for empty indicator set")
	}
	if _, err := NewTechnical([]string{"close_5_sma"}, "close", 0); err == nil {
		t.Error("Expected error for zero lag")
	}
}

func TestTechnicalDeduplicatesIndicators(t *testing.T) {
	tech, _ := NewTechnical([]string{"close_5_sma", "CLOSE_5_SMA", "boll"}, "close", 1)
	if len(tech.indicators) != 2 {
		t.Errorf("Expected 2 unique indicators, got %d", len(tech.indicators))
	}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]types.Prediction{
		"UP":                    types.Up,
		"  Down.":               types.Down,
		"up, because momentum":  types.Up,
		"DOWN! the trend is...": types.Down,
		"Down\n":                types.Down,
		"up\ndown":              types.Hold,
		"HOLD":                  types.Hold,
		"upward":                types.Hold,
		"":                      types.Hold,
		"I think up":            types.Hold,
	}
	for in, want := range cases {
		if got := ParseDirection(in); got != want {
			t.Errorf("Expected %s for %q, got %s", want, in, got)
		}
	}
}

func TestParseProbability(t *testing.T) {
	cases := map[string]types.Prediction{
		"20":            types.Down,
		"0.0":           types.Down,
		"19.99 percent": types.Down,
		"80":            types.Up,
		"100.0":         types.Up,
		"55.5":          types.Hold,
		"20.01":         types.Hold,
		"101":           types.Hold,
		"-5":            types.Hold,
		"NaN":           types.Hold,
		"likely 90":     types.Hold,
		"":              types.Hold,
		"85% chance":    types.Up,
		"20.0.":         types.Down,
		"90.":           types.Up,
	}
	for in, want := range cases {
		if got := ParseProbability(in, 20, 80); got != want {
			t.Errorf("Expected %s for %q, got %s", want, in, got)
		}
	}
}

func TestDirectionalOracleCallsOnce(t *testing.T) {
	o := &fakeOracle{reply: "Up."}
	d := NewDirectionalOracle(o)

	got, err := d.Predict(context.Background(), rising(3))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != types.Up {
		t.Errorf("Expected Up, got %s", got)
	}
	if o.calls != 1 {
		t.Errorf("Expected exactly one oracle call, got %d", o.calls)
	}
	if o.system != DirectionalPrompt {
		t.Errorf("Expected directional prompt, got %q", o.system)
	}
	if strings.ContainsAny(o.payload, "[]") {
		t.Errorf("Expected payload without brackets, got %q", o.payload)
	}
}

func TestOracleFailureIsHold(t *testing.T) {
	o := &fakeOracle{err: errors.New("timeout")}

	got, err := NewDirectionalOracle(o).Predict(context.Background(), rising(3))
	if err != nil || got != types.Hold {
		t.Errorf("Expected Hold without error, got %s, %v", got, err)
	}

	got, err = NewProbabilityOracle(o, 20, 80).Predict(context.Background(), rising(3))
	if err != nil || got != types.Hold {
		t.Errorf("Expected Hold without error, got %s, %v", got, err)
	}
}

func TestProbabilityOracleUsesBounds(t *testing.T) {
	o := &fakeOracle{reply: "30"}
	p := NewProbabilityOracle(o, 35, 65)

	got, _ := p.Predict(context.Background(), rising(3))
	if got != types.Down {
		t.Errorf("Expected Down, got %s", got)
	}
	if o.system != ProbabilityPrompt {
		t.Errorf("Expected probability prompt, got %q", o.system)
	}
}

func TestSerializeWindow(t *testing.T) {
	got := SerializeWindow([]types.PriceBar{{Ts: 0, Open: 1, High: 2.5, Low: 0.5, Close: 2, Volume: 10}})
	want := "1970-01-01T00:00:00Z, 1, 2.5, 0.5, 2, 10"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	cfg := &store.Config{}
	cfg.Technical.Indicators = []string{"close_5_sma"}
	cfg.Technical.PriceColumn = "close"
	cfg.Technical.SignalLag = 1
	cfg.Probability.Lower, cfg.Probability.Upper = 20, 80

	cases := map[string]string{
		SelectTechnical:   "technical",
		SelectDirectional: SelectDirectional,
		SelectProbability: SelectProbability,
		"GROQ":            "unsupported",
	}
	for selector, name := range cases {
		cfg.Strategy = selector
		p, err := New(cfg, &fakeOracle{})
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", selector, err)
		}
		if p.Name() != name {
			t.Errorf("Expected %s for selector %s, got %s", name, selector, p.Name())
		}
	}

	cfg.Strategy = SelectDirectional
	if _, err := New(cfg, nil); err == nil {
		t.Error("Expected error for oracle strategy without oracle")
	}
}

func TestUnsupportedReturnsError(t *testing.T) {
	_, err := (&Unsupported{Selector: "PANDAS"}).Predict(context.Background(), rising(3))
	if !errors.Is(err, ErrUnsupportedStrategy) {
		t.Errorf("Expected ErrUnsupportedStrategy, got %v", err)
	}
}

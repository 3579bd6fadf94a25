package ta

import (
	"fmt"
	"strconv"
	"strings"

	"trading-agent/internal/types"
)

const (
	bollWindow = 20
	bollK      = 2.0
)

// Column is a parsed, evaluable column identifier such as "close",
// "close_10_sma" or "boll_ub".
type Column struct {
	ID     string
	source string
	window int
	kind   string
}

var rawColumns = map[string]bool{
	"open": true, "high": true, "low": true, "close": true, "volume": true, "middle": true,
}

var averages = map[string]func([]float64, int) []float64{
	"sma":  SMA,
	"ema":  EMA,
	"smma": SMMA,
	"wma":  WMA,
}

// ParseColumn validates an identifier against the supported grammar:
// raw columns, <col>_<n>_<sma|ema|smma|wma>, and boll/boll_ub/boll_lb.
func ParseColumn(id string) (Column, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if rawColumns[id] {
		return Column{ID: id, source: id}, nil
	}

	switch id {
	case "boll", "boll_ub", "boll_lb":
		return Column{ID: id, source: "close", window: bollWindow, kind: id}, nil
	}

	parts := strings.Split(id, "_")
	if len(parts) == 3 && rawColumns[parts[0]] {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return Column{}, fmt.Errorf("invalid window in column %q", id)
		}
		if _, ok := averages[parts[2]]; !ok {
			return Column{}, fmt.Errorf("unsupported average %q in column %q", parts[2], id)
		}
		return Column{ID: id, source: parts[0], window: n, kind: parts[2]}, nil
	}

	return Column{}, fmt.Errorf("unknown column %q", id)
}

// Eval computes the column over a bar window. The result has one value per bar.
func (c Column) Eval(bars []types.PriceBar) []float64 {
	src := raw(bars, c.source)
	switch c.kind {
	case "":
		return src
	case "boll", "boll_ub", "boll_lb":
		mid, up, low := Bollinger(src, c.window, bollK)
		switch c.kind {
		case "boll_ub":
			return up
		case "boll_lb":
			return low
		}
		return mid
	}
	return averages[c.kind](src, c.window)
}

func raw(bars []types.PriceBar, name string) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		switch name {
		case "open":
			out[i] = b.Open
		case "high":
			out[i] = b.High
		case "low":
			out[i] = b.Low
		case "volume":
			out[i] = b.Volume
		case "middle":
			out[i] = (b.High + b.Low + b.Close) / 3
		default:
			out[i] = b.Close
		}
	}
	return out
}

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PriceBar is one OHLCV record. Windows are ordered oldest first.
type PriceBar struct {
	Ts                             int64
	Open, High, Low, Close, Volume float64
}

// Prediction is the directional bias produced by a strategy.
type Prediction string

const (
	Up   Prediction = "up"
	Down Prediction = "down"
	Hold Prediction = "hold"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// SideFor maps a directional prediction to an order side. ok is false for Hold.
func SideFor(p Prediction) (Side, bool) {
	switch p {
	case Up:
		return Buy, true
	case Down:
		return Sell, true
	}
	return "", false
}

type Pair struct {
	Base, Quote string
}

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// ParsePair splits a "BASE/QUOTE" identifier.
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid pair %q: expected BASE/QUOTE", s)
	}
	return Pair{Base: strings.ToUpper(parts[0]), Quote: strings.ToUpper(parts[1])}, nil
}

// Timeframe is a bar interval such as 1m, 15m, 1h or 1d.
type Timeframe struct {
	N    int
	Unit byte // 'm', 'h' or 'd'
}

func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	unit := s[len(s)-1]
	if unit != 'm' && unit != 'h' && unit != 'd' {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q: unit must be m, h or d", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", s)
	}
	return Timeframe{N: n, Unit: unit}, nil
}

func (tf Timeframe) Duration() time.Duration {
	switch tf.Unit {
	case 'h':
		return time.Duration(tf.N) * time.Hour
	case 'd':
		return time.Duration(tf.N) * 24 * time.Hour
	default:
		return time.Duration(tf.N) * time.Minute
	}
}

func (tf Timeframe) String() string { return strconv.Itoa(tf.N) + string(tf.Unit) }

// TopOfBook holds the best bid and ask. Venues must fail rather than report a zero side.
type TopOfBook struct {
	Bid, Ask float64
}

type Balances struct {
	BaseFree, QuoteFree float64
}

type OrderIntent struct {
	Side   Side    `json:"side"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// Notional is the quote-currency size of the intent.
func (o OrderIntent) Notional() float64 { return o.Price * o.Amount }

type OpenOrder struct {
	ID       string  `json:"id"`
	ClientID string  `json:"client_id,omitempty"`
	Side     Side    `json:"side"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// Step outcomes
const (
	OutcomeWaiting   = "waiting"
	OutcomeCancelled = "cancelled"
	OutcomeHold      = "hold"
	OutcomePlaced    = "placed"
	OutcomeTooSmall  = "too_small"
	OutcomeRejected  = "rejected"
)

type StepResult struct {
	Pair        string       `json:"pair"`
	Outcome     string       `json:"outcome"`
	Prediction  Prediction   `json:"prediction,omitempty"`
	OpenOrders  int          `json:"open_orders"`
	CancelCount int          `json:"cancel_count"`
	Intent      *OrderIntent `json:"intent,omitempty"`
	Order       *OpenOrder   `json:"order,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

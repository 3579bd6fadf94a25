// Package paper is an in-process venue that simulates a single market with a
// seeded random walk. Resting limit orders fill when the simulated price
// crosses them.
package paper

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/types"
)

const (
	historyBars = 500
	spread      = 0.001
	// Balances and amounts are kept to 8 decimal places.
	precision = 8
)

var dust = decimal.New(1, -precision)

type Params struct {
	StartPrice   float64
	BaseBalance  float64
	QuoteBalance float64
	Volatility   float64
	Seed         int64
}

type order struct {
	types.OpenOrder
	amount   decimal.Decimal
	price    decimal.Decimal
	reserved decimal.Decimal
}

type Paper struct {
	mu     sync.Mutex
	rng    *rand.Rand
	vol    float64
	bars   []types.PriceBar
	base   decimal.Decimal
	quote  decimal.Decimal
	orders []*order
	seq    int
	now    func() time.Time
}

var _ interfaces.Venue = (*Paper)(nil)

func New(p Params) *Paper {
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pv := &Paper{
		rng:   rand.New(rand.NewSource(seed)),
		vol:   p.Volatility,
		base:  decimal.NewFromFloat(p.BaseBalance).Round(precision),
		quote: decimal.NewFromFloat(p.QuoteBalance).Round(precision),
		now:   time.Now,
	}
	price := p.StartPrice
	for i := 0; i < historyBars; i++ {
		price = pv.appendBar(price)
	}
	return pv
}

func (pv *Paper) Name() string { return "paper" }

// appendBar walks the price one step and records the bar. Caller holds mu
// (or is the constructor).
func (pv *Paper) appendBar(open float64) float64 {
	c := open * math.Exp(pv.vol*pv.rng.NormFloat64())
	wick := math.Abs(c-open) * pv.rng.Float64()
	pv.bars = append(pv.bars, types.PriceBar{
		Open:   open,
		High:   math.Max(open, c) + wick,
		Low:    math.Min(open, c) - wick,
		Close:  c,
		Volume: 100 * pv.rng.Float64(),
	})
	if len(pv.bars) > 2*historyBars {
		pv.bars = pv.bars[len(pv.bars)-historyBars:]
	}
	return c
}

func (pv *Paper) last() float64 {
	return pv.bars[len(pv.bars)-1].Close
}

// tick advances the market by one bar and fills any order the new bar crossed.
func (pv *Paper) tick() {
	pv.appendBar(pv.last())
	bar := pv.bars[len(pv.bars)-1]

	remaining := pv.orders[:0]
	for _, o := range pv.orders {
		px := o.price.InexactFloat64()
		switch {
		case o.Side == types.Buy && bar.Low <= px:
			pv.base = pv.base.Add(o.amount)
		case o.Side == types.Sell && bar.High >= px:
			pv.quote = pv.quote.Add(o.amount.Mul(o.price))
		default:
			remaining = append(remaining, o)
		}
	}
	pv.orders = remaining
}

func (pv *Paper) FetchBalance(ctx context.Context, pair types.Pair) (types.Balances, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return types.Balances{BaseFree: pv.base.InexactFloat64(), QuoteFree: pv.quote.InexactFloat64()}, nil
}

func (pv *Paper) FetchTopOfBook(ctx context.Context, pair types.Pair) (types.TopOfBook, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	px := pv.last()
	return types.TopOfBook{Bid: px * (1 - spread/2), Ask: px * (1 + spread/2)}, nil
}

// FetchBars returns the most recent bars, stamped backwards from now at the
// requested timeframe.
func (pv *Paper) FetchBars(ctx context.Context, pair types.Pair, tf types.Timeframe, limit int) ([]types.PriceBar, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	n := min(limit, len(pv.bars))
	out := make([]types.PriceBar, n)
	copy(out, pv.bars[len(pv.bars)-n:])

	end := pv.now().Truncate(tf.Duration())
	for i := range out {
		out[i].Ts = end.Add(-time.Duration(n-1-i) * tf.Duration()).Unix()
	}
	return out, nil
}

// FetchOpenOrders is called once at the top of every iteration, so it also
// drives the simulated clock.
func (pv *Paper) FetchOpenOrders(ctx context.Context, pair types.Pair) ([]types.OpenOrder, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	pv.tick()
	out := make([]types.OpenOrder, 0, len(pv.orders))
	for _, o := range pv.orders {
		out = append(out, o.OpenOrder)
	}
	return out, nil
}

func (pv *Paper) PlaceLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent, clientID string) (types.OpenOrder, error) {
	if intent.Amount <= 0 || intent.Price <= 0 {
		return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder",
			fmt.Errorf("invalid order %.8f @ %.8f", intent.Amount, intent.Price))
	}

	pv.mu.Lock()
	defer pv.mu.Unlock()

	amount := decimal.NewFromFloat(intent.Amount).RoundDown(precision)
	price := decimal.NewFromFloat(intent.Price)
	if !amount.IsPositive() {
		return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder",
			fmt.Errorf("amount %.8f rounds to zero", intent.Amount))
	}

	var reserved decimal.Decimal
	switch intent.Side {
	case types.Buy:
		cost := amount.Mul(price)
		if cost.Sub(pv.quote).GreaterThanOrEqual(dust) {
			return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder",
				fmt.Errorf("insufficient %s: need %s, have %s", pair.Quote, cost.StringFixed(precision), pv.quote.StringFixed(precision)))
		}
		// A full-balance order can overshoot by float rounding; it takes what is there.
		reserved = decimal.Min(cost, pv.quote)
		pv.quote = pv.quote.Sub(reserved)
	case types.Sell:
		if amount.Sub(pv.base).GreaterThanOrEqual(dust) {
			return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder",
				fmt.Errorf("insufficient %s: need %s, have %s", pair.Base, amount.String(), pv.base.String()))
		}
		amount = decimal.Min(amount, pv.base)
		reserved = amount
		pv.base = pv.base.Sub(reserved)
	default:
		return types.OpenOrder{}, fail.New(fail.Rejected, "PlaceLimitOrder", fmt.Errorf("unknown side %q", intent.Side))
	}

	pv.seq++
	o := &order{
		OpenOrder: types.OpenOrder{
			ID:       fmt.Sprintf("paper-%d", pv.seq),
			ClientID: clientID,
			Side:     intent.Side,
			Price:    intent.Price,
			Amount:   amount.InexactFloat64(),
			Status:   "open",
		},
		amount:   amount,
		price:    price,
		reserved: reserved,
	}
	pv.orders = append(pv.orders, o)
	return o.OpenOrder, nil
}

// CancelOrder releases the order's reserved balance.
func (pv *Paper) CancelOrder(ctx context.Context, pair types.Pair, id string) error {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	for i, o := range pv.orders {
		if o.ID != id {
			continue
		}
		if o.Side == types.Buy {
			pv.quote = pv.quote.Add(o.reserved)
		} else {
			pv.base = pv.base.Add(o.reserved)
		}
		pv.orders = append(pv.orders[:i], pv.orders[i+1:]...)
		return nil
	}
	return fail.New(fail.Rejected, "CancelOrder", fmt.Errorf("order %s not found", id))
}

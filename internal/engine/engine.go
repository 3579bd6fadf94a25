package engine

import (
	"context"
	"fmt"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/metrics"
	"trading-agent/internal/sizing"
	"trading-agent/internal/store"
	"trading-agent/internal/trace"
	"trading-agent/internal/tradelog"
	"trading-agent/internal/types"
)

// Params is the slice of configuration one iteration needs.
type Params struct {
	Pair         types.Pair
	Timeframe    types.Timeframe
	WindowLength int
	CancelLimit  int
	Sizing       sizing.Params
}

func ParamsFromConfig(cfg *store.Config) Params {
	return Params{
		Pair:         cfg.TradingPair(),
		Timeframe:    cfg.BarTimeframe(),
		WindowLength: cfg.WindowLength,
		CancelLimit:  cfg.CancelLimit,
		Sizing: sizing.Params{
			Premium:     cfg.Premium(),
			Trust:       cfg.Trust,
			MinNotional: cfg.MinNotional,
		},
	}
}

// Engine runs single iterations of the trading loop. It owns the cancel
// counter; the retry counter belongs to Loop.
type Engine struct {
	p         Params
	venue     interfaces.Venue
	predictor interfaces.Predictor
	orders    *orderExecutor

	cancelCount int
}

func newEngine(p Params, venue interfaces.Venue, predictor interfaces.Predictor, notifier interfaces.Notifier) *Engine {
	return &Engine{
		p:         p,
		venue:     venue,
		predictor: predictor,
		orders:    newOrderExecutor(venue, notifier),
	}
}

// Step performs one iteration: manage resting orders, or decide and place at
// most one new order. A venue rejection of the new order is not an error.
func (e *Engine) Step(ctx context.Context) (*types.StepResult, error) {
	pair := e.p.Pair
	res := &types.StepResult{Pair: pair.String()}

	open, err := e.venue.FetchOpenOrders(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open orders: %w", err)
	}
	res.OpenOrders = len(open)

	if len(open) > 0 {
		err := e.manageOpenOrders(ctx, open, res)
		e.record(ctx, res)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	e.setCancelCount(0)

	if err := e.decideAndAct(ctx, res); err != nil {
		return nil, err
	}
	e.record(ctx, res)
	return res, nil
}

// manageOpenOrders applies bounded patience: wait until the cancel counter
// reaches its limit, then cancel everything and start over.
func (e *Engine) manageOpenOrders(ctx context.Context, open []types.OpenOrder, res *types.StepResult) error {
	e.setCancelCount(e.cancelCount + 1)
	if e.cancelCount < e.p.CancelLimit {
		res.Outcome = types.OutcomeWaiting
		res.CancelCount = e.cancelCount
		logger.Info(ctx, "Waiting on open orders",
			"pair", res.Pair,
			"open_orders", len(open),
			"cancel_count", e.cancelCount,
			"cancel_limit", e.p.CancelLimit,
		)
		return nil
	}

	// The counter resets once the mass-cancel has been attempted, even if
	// some cancels fail.
	e.setCancelCount(0)
	res.Outcome = types.OutcomeCancelled
	res.CancelCount = 0
	if err := e.orders.cancelAll(ctx, e.p.Pair, open); err != nil {
		res.Reason = err.Error()
		return fmt.Errorf("failed to cancel open orders: %w", err)
	}
	return nil
}

func (e *Engine) decideAndAct(ctx context.Context, res *types.StepResult) error {
	pair := e.p.Pair

	bars, err := e.venue.FetchBars(ctx, pair, e.p.Timeframe, e.p.WindowLength)
	if err != nil {
		return fmt.Errorf("failed to fetch bars: %w", err)
	}

	pred, err := e.predict(ctx, bars)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	res.Prediction = pred

	side, ok := types.SideFor(pred)
	if !ok {
		res.Outcome = types.OutcomeHold
		return nil
	}

	bal, err := e.venue.FetchBalance(ctx, pair)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	book, err := e.venue.FetchTopOfBook(ctx, pair)
	if err != nil {
		return fmt.Errorf("failed to fetch top of book: %w", err)
	}

	intent, outcome := sizing.Intent(side, book, bal, e.p.Sizing)
	res.Intent = &intent
	if outcome == sizing.TooSmall {
		res.Outcome = types.OutcomeTooSmall
		res.Reason = fmt.Sprintf("notional %.8f does not exceed minimum %.8f", intent.Notional(), e.p.Sizing.MinNotional)
		logger.Info(ctx, "Order too small, skipping",
			"pair", res.Pair,
			"side", side,
			"amount", intent.Amount,
			"price", intent.Price,
			"min_notional", e.p.Sizing.MinNotional,
		)
		return nil
	}

	order, err := e.orders.placeLimitOrder(ctx, pair, intent)
	if err != nil {
		if fail.IsKind(err, fail.Rejected) {
			res.Outcome = types.OutcomeRejected
			res.Reason = err.Error()
			return nil
		}
		return fmt.Errorf("failed to place order: %w", err)
	}
	res.Outcome = types.OutcomePlaced
	res.Order = &order
	return nil
}

func (e *Engine) predict(ctx context.Context, bars []types.PriceBar) (types.Prediction, error) {
	ctx, span := trace.StartSpan(ctx, "strategy.Predict")
	defer span.End()

	pred, err := e.predictor.Predict(ctx, bars)
	if err != nil {
		return "", err
	}
	metrics.PredictionsTotal.WithLabelValues(e.predictor.Name(), string(pred)).Inc()
	logger.Decision(ctx, e.p.Pair.String(), e.predictor.Name(), string(pred), "bars", len(bars))
	return pred, nil
}

func (e *Engine) setCancelCount(n int) {
	e.cancelCount = n
	metrics.CancelCounter.Set(float64(n))
}

// record appends the iteration to the decision journal.
func (e *Engine) record(ctx context.Context, res *types.StepResult) {
	err := tradelog.AppendDecision(tradelog.DecisionEntry{
		Pair:        res.Pair,
		Strategy:    e.predictor.Name(),
		Prediction:  res.Prediction,
		Outcome:     res.Outcome,
		CancelCount: res.CancelCount,
		Reason:      res.Reason,
	})
	if err != nil {
		logger.Warn(ctx, "Failed to append decision journal", "error", err)
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/metrics"
	"trading-agent/internal/tradelog"
	"trading-agent/internal/types"
)

// orderExecutor handles order placement, cancellation and trade logging.
type orderExecutor struct {
	venue    interfaces.Venue
	notifier interfaces.Notifier
	runID    string
	seq      int
}

func newOrderExecutor(venue interfaces.Venue, notifier interfaces.Notifier) *orderExecutor {
	return &orderExecutor{
		venue:    venue,
		notifier: notifier,
		runID:    uuid.NewString()[:8],
	}
}

// nextClientID is unique per process run and short enough for Kite's
// 20 character order tag.
func (oe *orderExecutor) nextClientID() string {
	oe.seq++
	return fmt.Sprintf("%s-%d", oe.runID, oe.seq)
}

// placeLimitOrder submits the intent. Rejections are logged here and
// returned so the caller can record the outcome.
func (oe *orderExecutor) placeLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent) (types.OpenOrder, error) {
	clientID := oe.nextClientID()

	order, err := oe.venue.PlaceLimitOrder(ctx, pair, intent, clientID)
	if err != nil {
		if fail.IsKind(err, fail.Rejected) {
			metrics.OrdersRejected.Inc()
			logger.Warn(ctx, "Order rejected by venue",
				"pair", pair.String(),
				"side", intent.Side,
				"amount", intent.Amount,
				"price", intent.Price,
				"client_id", clientID,
				"error", err,
			)
		}
		return types.OpenOrder{}, err
	}

	metrics.OrdersTotal.WithLabelValues(pair.String(), string(intent.Side)).Inc()
	logger.Trade(ctx, pair.String(), string(intent.Side), intent.Amount, intent.Price, order.ID, "client_id", clientID)

	if err := tradelog.Append(tradelog.OrderEntry{
		Pair:     pair.String(),
		Side:     intent.Side,
		OrderID:  order.ID,
		ClientID: clientID,
		Amount:   intent.Amount,
		Price:    intent.Price,
	}); err != nil {
		logger.Warn(ctx, "Failed to append trade journal", "error", err)
	}

	if err := oe.notifier.NotifyOrder(ctx, pair, order); err != nil {
		logger.Warn(ctx, "Failed to send order notification", "error", err)
	}
	return order, nil
}

// cancelAll attempts every cancel and joins the failures.
func (oe *orderExecutor) cancelAll(ctx context.Context, pair types.Pair, open []types.OpenOrder) error {
	var errs []error
	for _, o := range open {
		if err := oe.venue.CancelOrder(ctx, pair, o.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.CancelsTotal.Inc()
	}

	logger.Info(ctx, "Cancelled stale open orders",
		"pair", pair.String(),
		"requested", len(open),
		"failed", len(errs),
	)
	return errors.Join(errs...)
}

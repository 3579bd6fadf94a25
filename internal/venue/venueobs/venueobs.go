package venueobs

import (
	"context"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/trace"
	"trading-agent/internal/types"
)

// observableVenue wraps a Venue with observability (logging & tracing)
type observableVenue struct {
	venue interfaces.Venue
}

// Compile-time interface check
var _ interfaces.Venue = (*observableVenue)(nil)

// Wrap wraps a venue with observability middleware
func Wrap(venue interfaces.Venue) interfaces.Venue {
	return &observableVenue{venue: venue}
}

func (ov *observableVenue) Name() string { return ov.venue.Name() }

func (ov *observableVenue) FetchBalance(ctx context.Context, pair types.Pair) (types.Balances, error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchBalance")
	defer span.End()

	bal, err := ov.venue.FetchBalance(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err, "venue", ov.venue.Name(), "pair", pair.String())
		return types.Balances{}, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched", "pair", pair.String(), "base_free", bal.BaseFree, "quote_free", bal.QuoteFree)
	return bal, nil
}

func (ov *observableVenue) FetchTopOfBook(ctx context.Context, pair types.Pair) (types.TopOfBook, error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchTopOfBook")
	defer span.End()

	book, err := ov.venue.FetchTopOfBook(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch top of book", err, "venue", ov.venue.Name(), "pair", pair.String())
		return types.TopOfBook{}, err
	}

	logger.DebugSkip(ctx, 1, "Top of book fetched", "pair", pair.String(), "bid", book.Bid, "ask", book.Ask)
	return book, nil
}

// FetchBars fetches price bars with observability
func (ov *observableVenue) FetchBars(ctx context.Context, pair types.Pair, tf types.Timeframe, limit int) ([]types.PriceBar, error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchBars")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching bars", "pair", pair.String(), "timeframe", tf.String(), "limit", limit)

	bars, err := ov.venue.FetchBars(ctx, pair, tf, limit)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch bars", err, "venue", ov.venue.Name(), "pair", pair.String())
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Bars fetched successfully", "pair", pair.String(), "count", len(bars))
	return bars, nil
}

func (ov *observableVenue) FetchOpenOrders(ctx context.Context, pair types.Pair) ([]types.OpenOrder, error) {
	ctx, span := trace.StartSpan(ctx, "venue.FetchOpenOrders")
	defer span.End()

	orders, err := ov.venue.FetchOpenOrders(ctx, pair)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch open orders", err, "venue", ov.venue.Name(), "pair", pair.String())
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Open orders fetched", "pair", pair.String(), "count", len(orders))
	return orders, nil
}

// PlaceLimitOrder places an order with observability
func (ov *observableVenue) PlaceLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent, clientID string) (types.OpenOrder, error) {
	ctx, span := trace.StartSpan(ctx, "venue.PlaceLimitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing limit order",
		"pair", pair.String(),
		"side", intent.Side,
		"amount", intent.Amount,
		"price", intent.Price,
		"client_id", clientID,
	)

	order, err := ov.venue.PlaceLimitOrder(ctx, pair, intent, clientID)
	if fail.IsKind(err, fail.Rejected) {
		logger.WarnSkip(ctx, 1, "Order rejected by venue",
			"pair", pair.String(),
			"side", intent.Side,
			"amount", intent.Amount,
			"error", err,
		)
		return types.OpenOrder{}, err
	}
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"pair", pair.String(),
			"side", intent.Side,
			"amount", intent.Amount,
		)
		return types.OpenOrder{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"pair", pair.String(),
		"order_id", order.ID,
		"status", order.Status,
	)
	return order, nil
}

func (ov *observableVenue) CancelOrder(ctx context.Context, pair types.Pair, id string) error {
	ctx, span := trace.StartSpan(ctx, "venue.CancelOrder")
	defer span.End()

	err := ov.venue.CancelOrder(ctx, pair, id)
	if fail.IsKind(err, fail.Rejected) {
		logger.WarnSkip(ctx, 1, "Cancel rejected by venue", "pair", pair.String(), "order_id", id, "error", err)
		return err
	}
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "pair", pair.String(), "order_id", id)
		return err
	}

	logger.InfoSkip(ctx, 1, "Order cancelled", "pair", pair.String(), "order_id", id)
	return nil
}

package interfaces

import (
	"context"

	"trading-agent/internal/types"
)

// Venue is the exchange/broker capability the execution loop trades through.
// Implementations return *fail.Error so callers can branch on the failure kind.
type Venue interface {
	Name() string
	FetchBalance(ctx context.Context, pair types.Pair) (types.Balances, error)
	FetchTopOfBook(ctx context.Context, pair types.Pair) (types.TopOfBook, error)
	FetchBars(ctx context.Context, pair types.Pair, tf types.Timeframe, limit int) ([]types.PriceBar, error)
	FetchOpenOrders(ctx context.Context, pair types.Pair) ([]types.OpenOrder, error)
	PlaceLimitOrder(ctx context.Context, pair types.Pair, intent types.OrderIntent, clientID string) (types.OpenOrder, error)
	CancelOrder(ctx context.Context, pair types.Pair, id string) error
}

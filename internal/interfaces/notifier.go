package interfaces

import (
	"context"

	"trading-agent/internal/types"
)

type Notifier interface {
	NotifyOrder(ctx context.Context, pair types.Pair, order types.OpenOrder) error
	NotifyError(ctx context.Context, err error) error
	NotifyRecovery(ctx context.Context, failures int) error
}

package notify

import (
	"context"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/types"
)

// Noop discards every notification.
type Noop struct{}

var _ interfaces.Notifier = Noop{}

func (Noop) NotifyOrder(context.Context, types.Pair, types.OpenOrder) error { return nil }
func (Noop) NotifyError(context.Context, error) error                       { return nil }
func (Noop) NotifyRecovery(context.Context, int) error                      { return nil }

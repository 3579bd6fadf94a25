package noop

import (
	"context"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
)

// Oracle is used when no LLM provider is configured. It never replies, so
// oracle strategies backed by it always hold.
type Oracle struct{}

var _ interfaces.Oracle = (*Oracle)(nil)

func New() *Oracle {
	return &Oracle{}
}

func (o *Oracle) Ask(ctx context.Context, system, payload string) (string, error) {
	logger.Debug(ctx, "Noop oracle called - no reply")
	return "", nil
}

package engine

import (
	"trading-agent/internal/interfaces"
	"trading-agent/internal/notify"
	"trading-agent/internal/store"
)

func New(cfg *store.Config, venue interfaces.Venue, predictor interfaces.Predictor, notifier interfaces.Notifier) interfaces.Engine {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return newEngine(ParamsFromConfig(cfg), venue, predictor, notifier)
}

// Package venue builds the configured trading venue.
package venue

import (
	"errors"
	"fmt"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/store"
	"trading-agent/internal/venue/alpaca"
	"trading-agent/internal/venue/paper"
	"trading-agent/internal/venue/venueobs"
	"trading-agent/internal/venue/zerodha"
)

var ErrUnsupported = errors.New("unsupported venue")

// New returns the venue named by cfg.Venue, wrapped with logging and tracing.
func New(cfg *store.Config) (interfaces.Venue, error) {
	var (
		v   interfaces.Venue
		err error
	)

	switch cfg.Venue {
	case "alpaca", "alpaca-paper":
		url := alpaca.LiveURL
		if cfg.Venue == "alpaca-paper" {
			url = alpaca.PaperURL
		}
		v, err = alpaca.New(alpaca.Params{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   url,
		})
	case "zerodha":
		v, err = zerodha.NewZerodha(zerodha.Params{
			APIKey:      cfg.Zerodha.APIKey,
			AccessToken: cfg.Zerodha.AccessToken,
			Exchange:    cfg.Zerodha.Exchange,
			Product:     cfg.Zerodha.Product,
		})
	case "paper":
		v = paper.New(paper.Params{
			StartPrice:   cfg.Paper.StartPrice,
			BaseBalance:  cfg.Paper.BaseBalance,
			QuoteBalance: cfg.Paper.QuoteBalance,
			Volatility:   cfg.Paper.Volatility,
			Seed:         cfg.Paper.Seed,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, cfg.Venue)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s venue: %w", cfg.Venue, err)
	}

	return venueobs.Wrap(v), nil
}

package llmobs

import (
	"context"

	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
)

// observableOracle wraps an Oracle with observability (logging & tracing)
type observableOracle struct {
	oracle   interfaces.Oracle
	provider string
}

// Compile-time interface check
var _ interfaces.Oracle = (*observableOracle)(nil)

// Wrap wraps an oracle with observability middleware
func Wrap(oracle interfaces.Oracle, provider string) interfaces.Oracle {
	return &observableOracle{
		oracle:   oracle,
		provider: provider,
	}
}

// Ask queries the oracle with observability
func (oo *observableOracle) Ask(ctx context.Context, system, payload string) (string, error) {
	op := logger.StartOperation(ctx, "llm.Ask",
		"provider", oo.provider,
		"payload_bytes", len(payload),
	)

	reply, err := oo.oracle.Ask(op.GetContext(), system, payload)
	if err != nil {
		op.EndWithError(err)
		return "", err
	}

	op.End("reply_bytes", len(reply))
	logger.InfoSkip(op.GetContext(), 1, "Oracle replied",
		"provider", oo.provider,
		"reply", truncate(reply, 64),
	)
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"trading-agent/internal/engine"
	"trading-agent/internal/engine/engineobs"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/llm/claude"
	"trading-agent/internal/llm/llmobs"
	"trading-agent/internal/llm/noop"
	"trading-agent/internal/llm/openai"
	"trading-agent/internal/logger"
	"trading-agent/internal/notify"
	"trading-agent/internal/store"
	"trading-agent/internal/strategy"
	"trading-agent/internal/trace"
	"trading-agent/internal/tradelog"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads the file named by TRADER_CONFIG (config.yaml by default)
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("TRADER_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	v := os.Getenv("TRADER_LOG_RETENTION_DAYS")
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn(ctx, "Ignoring invalid TRADER_LOG_RETENTION_DAYS", "value", v)
		return
	}
	if err := tradelog.CompressOlder(n); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeOracle returns the configured LLM oracle with observability, or
// nil when the strategy never consults one.
func initializeOracle(ctx context.Context, cfg *store.Config) (interfaces.Oracle, error) {
	if !strategy.NeedsOracle(cfg.Strategy) {
		return nil, nil
	}

	var (
		oracle interfaces.Oracle
		err    error
	)
	switch cfg.LLM.Provider {
	case "GROQ", "OPENAI":
		oracle, err = openai.New(cfg)
	case "CLAUDE":
		oracle, err = claude.New(cfg)
	default:
		oracle = noop.New()
		logger.Warn(ctx, "No LLM provider configured - using Noop oracle (always HOLD)")
	}
	if err != nil {
		return nil, err
	}

	// Wrap with observability middleware
	return llmobs.Wrap(oracle, cfg.LLM.Provider), nil
}

func initializePredictor(ctx context.Context, cfg *store.Config, oracle interfaces.Oracle) (interfaces.Predictor, error) {
	p, err := strategy.New(cfg, oracle)
	if err != nil {
		return nil, err
	}
	if _, ok := p.(*strategy.Unsupported); ok {
		logger.Warn(ctx, "Unknown strategy selector - every iteration will fail", "strategy", cfg.Strategy)
	}
	return p, nil
}

func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	if !cfg.Telegram.Enabled {
		return notify.Noop{}
	}
	tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, time.Second)
	if err != nil {
		logger.Warn(ctx, "Telegram disabled", "error", err)
		return notify.Noop{}
	}
	return tg
}

// initializeEngine initializes and returns the trading engine with observability
func initializeEngine(cfg *store.Config, v interfaces.Venue, p interfaces.Predictor, n interfaces.Notifier) interfaces.Engine {
	eng := engine.New(cfg, v, p, n)

	// Wrap with observability middleware
	return engineobs.Wrap(eng)
}

func initializeLoop(cfg *store.Config, eng interfaces.Engine, n interfaces.Notifier) *engine.Loop {
	return engine.NewLoop(cfg, eng, n)
}

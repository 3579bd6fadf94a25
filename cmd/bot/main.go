package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-agent/internal/logger"
	"trading-agent/internal/metrics"
	"trading-agent/internal/trace"
	"trading-agent/internal/venue"
)

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		os.Exit(1)
	}

	compressOldLogs(ctx)

	v, err := venue.New(cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize venue", err, "venue", cfg.Venue)
		os.Exit(1)
	}

	oracle, err := initializeOracle(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize oracle", err, "provider", cfg.LLM.Provider)
		os.Exit(1)
	}

	predictor, err := initializePredictor(ctx, cfg, oracle)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize strategy", err, "strategy", cfg.Strategy)
		os.Exit(1)
	}

	notifier := initializeNotifier(ctx, cfg)
	eng := initializeEngine(cfg, v, predictor, notifier)
	loop := initializeLoop(cfg, eng, notifier)

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr)
		defer srv.Close()
		logger.Info(ctx, "Metrics endpoint listening", "addr", cfg.Metrics.Addr)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigc
		logger.Info(ctx, "Shutting down...", "signal", sig.String())
		cancel()
	}()

	logger.Info(ctx, "Bot started",
		"venue", v.Name(),
		"pair", cfg.Pair,
		"timeframe", cfg.Timeframe,
		"strategy", predictor.Name(),
	)

	_ = loop.Run(ctx)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "Failed to flush tracer", "error", err)
	}
}

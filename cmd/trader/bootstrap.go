package main

import (
	"context"
	"fmt"
	"os"

	"futures-trader/internal/config"
	"futures-trader/internal/exchange"
	"futures-trader/internal/exchange/binance"
	"futures-trader/internal/exchange/exchangeobs"
	"futures-trader/internal/exchange/mock"
	"futures-trader/internal/executor"
	"futures-trader/internal/logger"
	"futures-trader/internal/session"
	"futures-trader/internal/trace"
	"futures-trader/internal/tradelog"

	"github.com/joho/godotenv"
)

// app is the wired object graph for one CLI invocation.
type app struct {
	cfg  *config.Config
	ex   exchange.Exchange
	exec *executor.Executor
	sess *session.Session
}

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// newApp loads config and wires exchange, executor and session
func newApp(ctx context.Context, configPath string, useReal bool) (*app, error) {
	if err := initializeSystem(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", configPath)
		return nil, err
	}
	if useReal {
		cfg.Mode = "LIVE"
	}

	compressOldLogs(ctx, cfg)

	ex, err := initializeExchange(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ex = exchangeobs.Wrap(ex)

	exec := executor.New(ex, cfg.PricePrecision)
	sess := session.New(cfg, ex, exec)

	return &app{cfg: cfg, ex: ex, exec: exec, sess: sess}, nil
}

// initializeExchange selects the execution backend from config
func initializeExchange(ctx context.Context, cfg *config.Config) (exchange.Exchange, error) {
	if cfg.Mode == "LIVE" {
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, fmt.Errorf("LIVE mode requires BINANCE_API_KEY and BINANCE_API_SECRET")
		}
		if cfg.Testnet {
			logger.Info(ctx, "Connecting to Binance futures testnet")
		} else {
			logger.Warn(ctx, "Connecting to Binance futures LIVE - real funds at risk")
		}
		return binance.New(binance.Params{
			APIKey:    apiKey,
			APISecret: apiSecret,
			Testnet:   cfg.Testnet,
		}), nil
	}

	logger.Info(ctx, "Using mock exchange", "data_dir", cfg.DataDir)
	return newMockExchange(cfg)
}

func newMockExchange(cfg *config.Config) (exchange.Exchange, error) {
	m, err := mock.New(mock.Params{DataDir: cfg.DataDir, QuoteAsset: cfg.QuoteAsset})
	if err != nil {
		return nil, fmt.Errorf("initialize mock exchange: %w", err)
	}
	return m, nil
}

// compressOldLogs compresses old audit files if retention is configured
func compressOldLogs(ctx context.Context, cfg *config.Config) {
	days := cfg.LogRetentionDays
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		fmt.Sscanf(v, "%d", &days)
	}
	if days <= 0 {
		return
	}
	if err := tradelog.CompressOlder(days); err != nil {
		logger.Warn(ctx, "Failed to compress old audit logs", "error", err)
	}
}

// shutdown flushes tracing before the process returns
func (a *app) shutdown(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}

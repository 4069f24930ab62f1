// Command pumpbot runs the pump.fun Telegram bot.
//
// Configuration comes from environment variables; TELEGRAM_BOT_TOKEN is
// required. See pumpbot.ConfigFromEnv for the full list.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pumpbot "github.com/pumpwatch/pumpbot"
	"github.com/pumpwatch/pumpbot/instrumentation"
)

func main() {
	cfg := pumpbot.ConfigFromEnv()
	logger := setupLogger(cfg.Debug)
	cfg.Logger = logger

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName: "pumpbot",
		Enabled:     instrumentationEnabled(),
	})
	if err != nil {
		logger.Error("Failed to initialize instrumentation", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := inst.Shutdown(shutdownCtx); err != nil {
			logger.Error("Instrumentation shutdown failed", "error", err)
		}
	}()

	bot, err := pumpbot.New(cfg, inst)
	if err != nil {
		logger.Error("Failed to start bot", "error", err)
		os.Exit(1)
	}

	gate := bot.Gate()
	err = inst.RegisterGateSizeCallbacks(
		func() int64 { return int64(gate.Store().GetStats().TrackedUsers) },
		func() int64 { return int64(gate.Registry().Count()) },
		func() int64 { return int64(gate.Profiler().SuspiciousCount()) },
	)
	if err != nil {
		logger.Error("Failed to register gauge callbacks", "error", err)
		os.Exit(1)
	}

	if err := bot.Run(ctx); err != nil {
		logger.Error("Bot exited with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func instrumentationEnabled() bool {
	v := os.Getenv("OTEL_ENABLED")
	return v == "true" || v == "1"
}

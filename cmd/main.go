package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tinoosan/euer/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stderr). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default text)
	logger, level := buildLoggerFromEnv()
	slog.SetDefault(logger)

	if err := cli.Execute(ctx, logger, level); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		stop()
		os.Exit(1)
	}
}

// parseLogLevel maps env values to slog levels
func parseLogLevel(s string) slog.Level {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "INFO", "info":
		return slog.LevelInfo
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func buildLoggerFromEnv() (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	level.Set(parseLogLevel(os.Getenv("LOG_LEVEL")))
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), level
	}
	// default to text; stdout carries command output
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), level
}

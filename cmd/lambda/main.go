package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"uigen/handler"
	"uigen/internal/app"
	"uigen/internal/config"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (UIGEN_* environment, optional UIGEN_CONFIG file) ----
	cfg, err := config.Load(config.New())
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	// ---- Service ----
	a, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("failed to create generation service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(a.Service,
		handler.WithLogger(logger),
		handler.WithAuthToken(cfg.Auth.Token),
	)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

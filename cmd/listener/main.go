package main

import (
	_ "time/tzdata"

	"go-skud/internal/app"
	"go-skud/internal/bootstrap"
	"go-skud/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	if err := app.RunListener(ctx, cfg, logger); err != nil {
		logger.Fatal("listener stopped", zap.Error(err))
	}
}

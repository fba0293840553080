package main

import (
	_ "time/tzdata"

	"go-skud/internal/app"
	"go-skud/internal/bootstrap"
	"go-skud/internal/config"
	"go-skud/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	ctx, stop := bootstrap.SignalContext()
	defer stop()

	// build dependency + routes
	server, err := app.BuildServer(cfg, logger)
	if err != nil {
		logger.Fatal("build server failed", zap.Error(err))
	}

	if err := server.Run(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

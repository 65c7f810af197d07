package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbeisheim/onlinechess-backend/internal/config"
	"github.com/benbeisheim/onlinechess-backend/internal/controller"
	"github.com/benbeisheim/onlinechess-backend/internal/service"
	"github.com/gofiber/fiber/v2/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	log.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	gameManager := service.NewGameManager(
		service.WithTimeControl(cfg.TimeControl),
		service.WithIdleTTL(cfg.IdleTTL),
		service.WithMatchmakingInterval(cfg.MatchmakingInterval),
	)
	gameService := service.NewGameService(gameManager)
	go gameManager.Run(ctx)

	app := controller.NewApp(cfg, gameService)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Errorw("shutdown failed", "error", err)
		}
	}()

	log.Infow("listening", "addr", cfg.Addr, "timeControl", cfg.TimeControl)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

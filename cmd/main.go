package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"github.com/maxaizer/jobboard-bot/internal/bot"
	"github.com/maxaizer/jobboard-bot/internal/clients/jobboard"
	"github.com/maxaizer/jobboard-bot/internal/config"
	"github.com/maxaizer/jobboard-bot/internal/logger"
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	"github.com/maxaizer/jobboard-bot/internal/services"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.Metrics.Address)

	client := jobboard.NewClient(cfg.API.BaseURL)
	client.SetRateLimit(cfg.API.MaxRequestsPerSecond)

	healthChecker, err := services.NewHealthChecker(client, cfg.API.HealthCheckSchedule)
	if err != nil {
		log.Fatalf("can't create health checker: %v", err)
	}
	healthChecker.Check(ctx)
	healthChecker.Start()
	defer healthChecker.Stop()

	bus := EventBus.New()
	newBoard := func(sessionID string) (*board.Board, error) {
		return board.NewBoard(sessionID, client, bus)
	}

	tgbot, err := bot.NewBot(cfg.Bot.Token, bus, newBoard, cfg.Bot.SessionTTL)
	if err != nil {
		log.Fatalf("can't create bot: %v", err)
	}
	go tgbot.Run()

	<-ctx.Done()

	log.Info("Shutting down services...")
	tgbot.Stop()
	log.Info("Services stopped.")
}

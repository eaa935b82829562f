package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/config"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/mail"
	"github.com/tazhibayda/profile-service/internal/queue"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		panic(err)
	}
	logger, err := applog.Init(cfg.Env == "prod")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey)
	if err != nil {
		logger.Fatal("rabbit consumer init failed", zap.Error(err))
	}
	defer cons.Close()

	sender := mail.NewSender(cfg.MailFrom, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notifier up",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
		zap.String("key", cfg.BindKey),
		zap.Int("workers", cfg.Concurrency))

	if err := cons.Consume(ctx, cfg.Concurrency, sender.Handle); err != nil {
		logger.Error("consumer stopped", zap.Error(err))
	}
}

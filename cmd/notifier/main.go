package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"reload-gateway/config"
	"reload-gateway/infra/broker"
	"reload-gateway/internal/core/notice"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rabbit := broker.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err := rabbit.Connect(); err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rabbit.Close()

	if err := rabbit.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
		logger.Error("failed to declare exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	notifier := notice.NewNotifier(logger)
	consumer := broker.NewEventConsumer(rabbit.Channel, broker.ConsumerConfig{
		Exchange:   cfg.RabbitMQ.Exchange,
		Queue:      cfg.RabbitMQ.Queue,
		BindingKey: cfg.RabbitMQ.BindingKey,
	}, notifier.Handle, logger)

	if err := consumer.Setup(); err != nil {
		logger.Error("failed to set up consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("notifier started", slog.String("exchange", cfg.RabbitMQ.Exchange))

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("notifier shutting down")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"

	"reload-gateway/config"
	_ "reload-gateway/docs"
	"reload-gateway/infra/actuator"
	"reload-gateway/infra/broker"
	"reload-gateway/infra/cache"
	"reload-gateway/infra/capability"
	infradb "reload-gateway/infra/db"
	"reload-gateway/infra/grpchealth"
	"reload-gateway/infra/messaging"
	"reload-gateway/infra/repository"
	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
	"reload-gateway/internal/core/handler"
	"reload-gateway/internal/core/queue"
	"reload-gateway/internal/core/router"
	"reload-gateway/internal/core/session"
	"reload-gateway/internal/core/usecase"
	"reload-gateway/internal/core/worker"
)

const (
	shutdownTimeout       = 10 * time.Second
	healthRefreshInterval = 10 * time.Second
)

// @title          Reload Gateway API
// @version        1.0
// @description    Queues mobile airtime reloads and dispatches them over SIM menu sessions.
// @host           localhost:8080
// @BasePath       /
// @schemes        http
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	policy, err := entity.ParsePrefixRules(cfg.Dispatch.PrefixRules)
	if err != nil {
		return fmt.Errorf("prefix rules: %w", err)
	}
	rules := entity.Rules{Policy: policy, MaxAmount: cfg.Dispatch.MaxAmount}

	flows := session.DefaultFlows()
	if cfg.Dispatch.FlowsFile != "" {
		if flows, err = session.LoadFlows(cfg.Dispatch.FlowsFile); err != nil {
			return fmt.Errorf("load flows: %w", err)
		}
		logger.Info("loaded menu flows", slog.String("path", cfg.Dispatch.FlowsFile))
	}

	act, provider, err := buildActuator(cfg.Actuator, logger)
	if err != nil {
		return err
	}

	journal, closeJournal, err := buildJournal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeJournal)

	publisher, closePublisher, err := buildPublisher(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closePublisher)

	idempotency, closeIdempotency, err := buildIdempotency(ctx, cfg.Idempotency, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeIdempotency)

	q := queue.New(cfg.Dispatch.QueueCapacity, cfg.Dispatch.HistoryLimit)
	channelRouter := router.New(provider)

	sessionCfg := session.Config{
		StepDelay:  cfg.Dispatch.StepDelay,
		Timeout:    cfg.Dispatch.SessionTimeout,
		Flows:      flows,
		Classifier: session.NewClassifier(cfg.Dispatch.SuccessWords, cfg.Dispatch.FailureWords),
	}
	newSession := func() worker.Executor {
		return session.New(act, sessionCfg, logger)
	}

	dispatcher := worker.NewDispatchWorker(q, channelRouter, newSession, journal, publisher, worker.Config{
		Interval:   cfg.Dispatch.Interval,
		RetryLimit: cfg.Dispatch.RetryLimit,
	}, logger)

	if n, err := dispatcher.Reconcile(ctx); err != nil {
		logger.Error("failed to reconcile interrupted attempts",
			slog.Int("reconciled", n),
			slog.String("error", err.Error()),
		)
	}

	factory := usecase.NewFactory(q, journal, idempotency, provider, rules, logger)

	r := mux.NewRouter()
	r.Use(handler.MetricsMiddleware)
	handler.NewHandlerFactory(factory).RegisterRoutes(r, handler.APIKeyMiddleware(cfg.Auth.APIKey))
	handler.NewHealthHandler(dispatcher, factory.Stats).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	reporter := grpchealth.NewReporter(provider, logger)
	grpcServer := grpc.NewServer()
	reporter.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return fmt.Errorf("listen grpc on %s: %w", cfg.GRPC.Port, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		dispatcher.Run(runCtx)
	}()

	go reporter.Run(runCtx, healthRefreshInterval)

	go func() {
		logger.Info("starting gRPC health server", slog.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go func() {
		logger.Info("starting HTTP server",
			slog.String("addr", server.Addr),
			slog.String("actuator", cfg.Actuator.Mode),
			slog.Duration("interval", cfg.Dispatch.Interval),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	<-runCtx.Done()
	logger.Info("shutting down gracefully")

	reporter.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	if !grpchealth.StopServer(shutdownCtx, grpcServer) {
		logger.Warn("gRPC server did not drain in time, connections closed")
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("dispatch worker did not stop in time")
	}

	logger.Info("gateway stopped", slog.Any("stats", q.Stats()))
	return nil
}

// buildActuator picks the telephony backend. With the bridge, the channel
// table may come from the device itself.
func buildActuator(cfg config.ActuatorConfig, logger *slog.Logger) (ports.Actuator, ports.CapabilityProvider, error) {
	switch cfg.Mode {
	case "bridge":
		bridge := actuator.NewBridge(cfg.BridgeURL, &http.Client{})
		if cfg.Channels == "auto" {
			logger.Info("using device agent", slog.String("agent", bridge.String()), slog.String("channels", "auto"))
			return bridge, bridge, nil
		}
		provider, err := staticProvider(cfg.Channels)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using device agent", slog.String("agent", bridge.String()))
		return bridge, provider, nil

	case "simulated", "":
		provider, err := staticProvider(cfg.Channels)
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("using simulated actuator, no reloads will reach a network")
		return actuator.NewSimulator(actuator.SimulatorConfig{
			Latency:       cfg.SimLatency,
			FailNumbers:   cfg.SimFail,
			SilentNumbers: cfg.SimSilent,
		}), provider, nil
	}
	return nil, nil, fmt.Errorf("unknown actuator mode %q", cfg.Mode)
}

func staticProvider(spec string) (*capability.StaticProvider, error) {
	channels, err := capability.ParseChannels(spec)
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	return capability.NewStaticProvider(channels), nil
}

func buildJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.AttemptJournal, func(), error) {
	if cfg.Journal.Driver != "postgres" {
		return repository.NewMemoryAttemptRepository(), func() {}, nil
	}

	db, err := infradb.Connect(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := infradb.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("connected to database")

	return repository.NewAttemptRepository(db), func() { db.Close() }, nil
}

func buildPublisher(cfg *config.Config, logger *slog.Logger) (ports.EventPublisher, func(), error) {
	if cfg.Events.Driver != "rabbitmq" {
		return messaging.NewLogEventPublisher(logger), func() {}, nil
	}

	rabbit := broker.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err := rabbit.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	if err := rabbit.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
		rabbit.Close()
		return nil, nil, err
	}
	logger.Info("connected to rabbitmq", slog.String("exchange", cfg.RabbitMQ.Exchange))

	return broker.NewRabbitMQPublisher(rabbit.Channel, cfg.RabbitMQ.Exchange), rabbit.Close, nil
}

func buildIdempotency(ctx context.Context, cfg config.IdempotencyConfig, logger *slog.Logger) (ports.IdempotencyStore, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryIdempotencyStore(cfg.TTL), func() {}, nil
	}

	client, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr))

	return cache.NewRedisIdempotencyStore(client, cfg.TTL), func() { client.Close() }, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/classifier"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	var envFiles []string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet("helpdesk-api", pflag.ContinueOnError)
	flagSet.StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load (default: .env)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply migrations for the configured store and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.Error(err))
	}
	defer st.Close()

	if migrateOnly {
		logger.Info("migrations complete", zap.String("store", st.Name))
		return
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifier := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifier)
	defer notifier.Close()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: st.Tickets,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		TicketRepo: st.Tickets,
		Logger:     logger,
	})

	var cache classifier.Cache
	if redis != nil {
		cache = classifier.NewRedisCache(redis.Client)
	}
	ticketClassifier := classifier.NewFromConfig(cfg.Classifier, cache, logger)
	if !ticketClassifier.Enabled() {
		logger.Warn("ANTHROPIC_API_KEY not set; classification returns default suggestions")
	}

	reporter, err := worker.NewStatsReporter(cfg.Worker.StatsReportCron, statsService, logger)
	if err != nil {
		logger.Fatal("failed to schedule stats reporter", zap.Error(err))
	}
	reporter.Start()
	defer reporter.Stop()

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(handlers.HealthDependencies{
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		StoreName:   st.Name,
		Store:       st.Tickets,
		Redis:       redis,
		Metrics:     metrics,
	})
	ticketsHandler := handlers.NewTicketsHandler(ticketService, statsService, ticketClassifier)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Tickets: ticketsHandler,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", st.Name))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `helpdesk-api serves the support ticket HTTP API.

Configuration is read from the environment and optional dotenv files.

Usage:
  helpdesk-api [flags]

Flags:
%s`, flagSet.FlagUsages())
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/adapters/event"
	fbAdapter "github.com/khoahotran/portgen/adapters/firebase"
	"github.com/khoahotran/portgen/adapters/persistence"
	"github.com/khoahotran/portgen/internal/application/service"
	auditUC "github.com/khoahotran/portgen/internal/application/usecase/audit"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()
	appLogger.Info("Starting Portfolio Generator Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg.Jaeger.OTLPEndpoint, appLogger, "portgen-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	defer tracing.Shutdown(context.Background(), tp)

	var fbApp *firebase.App
	if cfg.Store.Backend == config.BackendFirestore {
		fbApp, err = fbAdapter.NewApp(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Firebase", err)
		}
	}

	store, closeStore, err := persistence.OpenDocumentStore(ctx, cfg, fbApp, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open document store", err, zap.String("backend", cfg.Store.Backend))
	}
	defer closeStore()

	auditUseCase := auditUC.NewBackrefAuditUseCase(
		persistence.NewUserRepo(store),
		persistence.NewPortfolioRepo(store),
		appLogger,
	)

	// Scheduled full audit
	scheduler := cron.New(cron.WithSeconds())
	if cfg.Audit.Schedule != "" {
		_, err := scheduler.AddFunc(cfg.Audit.Schedule, func() {
			if _, err := auditUseCase.AuditAll(ctx); err != nil {
				appLogger.Error("Scheduled audit failed", err)
			}
		})
		if err != nil {
			appLogger.Fatal("Invalid audit schedule", err, zap.String("schedule", cfg.Audit.Schedule))
		}
		scheduler.Start()
		appLogger.Info("Scheduled back-reference audit", zap.String("schedule", cfg.Audit.Schedule))
	}
	defer func() { <-scheduler.Stop().Done() }()

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Info("No Kafka brokers configured, running scheduled audits only")
		<-ctx.Done()
		return
	}

	consumer, err := event.NewKafkaConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka consumer", err)
	}
	defer consumer.Close()

	err = consumer.Run(ctx, func(ctx context.Context, e service.PortfolioEvent) error {
		appLogger.Debug("Processing event",
			zap.String("event_type", string(e.Type)), zap.String("portfolio_id", e.PortfolioID))
		_, err := auditUseCase.HandleEvent(ctx, e)
		return err
	})
	if err != nil {
		appLogger.Error("Consumer stopped", err)
	}
	appLogger.Info("Worker exited")
}

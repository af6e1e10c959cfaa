package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/khoahotran/portgen/adapters/event"
	fbAdapter "github.com/khoahotran/portgen/adapters/firebase"
	httpAdapter "github.com/khoahotran/portgen/adapters/http"
	"github.com/khoahotran/portgen/adapters/identity"
	"github.com/khoahotran/portgen/adapters/media_storage"
	"github.com/khoahotran/portgen/adapters/persistence"
	"github.com/khoahotran/portgen/internal/application/editor"
	"github.com/khoahotran/portgen/internal/application/service"
	portfolioUC "github.com/khoahotran/portgen/internal/application/usecase/portfolio"
	"github.com/khoahotran/portgen/internal/config"
	"github.com/khoahotran/portgen/pkg/logger"
	"github.com/khoahotran/portgen/pkg/metrics"
	"github.com/khoahotran/portgen/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, cfg.App.LogLevel)
	defer appLogger.Sync()
	appLogger.Info("Start Portfolio Generator API Server...", zap.String("env", cfg.App.Env))

	ctx := context.Background()

	tp, err := tracing.NewTracerProvider(cfg.Jaeger.OTLPEndpoint, appLogger, "portgen-api")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background(), tp); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", err)
		}
	}()

	var fbApp *firebase.App
	if cfg.NeedsFirebase() {
		fbApp, err = fbAdapter.NewApp(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Firebase", err)
		}
	}

	// Storage
	store, closeStore, err := persistence.OpenDocumentStore(ctx, cfg, fbApp, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open document store", err, zap.String("backend", cfg.Store.Backend))
	}
	defer closeStore()

	blobs, err := media_storage.OpenBlobStore(ctx, cfg, fbApp, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot open blob store", err, zap.String("backend", cfg.Blob.Backend))
	}

	var renderCache service.RenderCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot connect Redis", err)
		}
		defer redisClient.Close()
		renderCache = persistence.NewRedisRenderCache(redisClient)
	} else {
		appLogger.Info("Render cache disabled, no Redis address configured")
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := event.NewKafkaPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		appLogger.Info("Event publishing disabled, no Kafka brokers configured")
	}

	verifier, err := identity.NewVerifier(ctx, cfg, fbApp)
	if err != nil {
		appLogger.Fatal("Cannot init token verifier", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Repositories
	portfolioRepo := persistence.NewPortfolioRepo(store)
	userRepo := persistence.NewUserRepo(store)

	// Edit sessions
	sessions := editor.NewManager(editor.Deps{
		Portfolios: portfolioRepo,
		Blobs:      blobs,
		Logger:     appLogger,
		Metrics:    appMetrics,
		AfterSave:  portfolioUC.NewSavedHook(renderCache, publisher, appLogger),
	}, cfg.Session.IdleTimeout)

	// Use Cases
	createPortfolioUseCase := portfolioUC.NewCreatePortfolioUseCase(portfolioRepo, userRepo, publisher, appMetrics, appLogger)
	deletePortfolioUseCase := portfolioUC.NewDeletePortfolioUseCase(portfolioRepo, userRepo, renderCache, sessions, publisher, appMetrics, appLogger)
	listPortfoliosUseCase := portfolioUC.NewListPortfoliosUseCase(portfolioRepo, userRepo, appLogger)
	getAccountUseCase := portfolioUC.NewGetAccountUseCase(userRepo)
	getPublicPortfolioUseCase := portfolioUC.NewGetPublicPortfolioUseCase(portfolioRepo, renderCache, cfg.Redis.RenderTTL, appMetrics, appLogger)

	// HTTP Handlers
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Portfolios: httpAdapter.NewPortfolioHandler(
			createPortfolioUseCase,
			deletePortfolioUseCase,
			listPortfoliosUseCase,
			getAccountUseCase,
			appLogger,
		),
		Editor:      httpAdapter.NewEditorHandler(sessions, appLogger),
		Public:      httpAdapter.NewPublicHandler(getPublicPortfolioUseCase, appLogger),
		Verifier:    verifier,
		Gatherer:    registry,
		CORSOrigins: cfg.App.CORSOrigins,
		RateLimit:   cfg.Public.RateLimit,
		Burst:       cfg.Public.Burst,
		Logger:      appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	appLogger.Info("Server exited", zap.Int("open_sessions", sessions.Count()))
}

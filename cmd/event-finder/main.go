package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/event-finder/internal/api/http"
	"github.com/i474232898/event-finder/internal/config"
	"github.com/i474232898/event-finder/internal/events"
	"github.com/i474232898/event-finder/internal/events/providers"
	"github.com/i474232898/event-finder/internal/logger"
	"github.com/i474232898/event-finder/internal/metrics"
	"github.com/i474232898/event-finder/internal/scheduler"
	"github.com/i474232898/event-finder/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting event-finder",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("local_offset", cfg.LocalOffset.String()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Event store.
	var eventStore events.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		eventStore = store.NewMemoryStore()
	default:
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoStore, err := store.NewMongoStore(connectCtx, store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		}, log)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to store", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoStore.Close(ctx); err != nil {
				log.Error("Failed to close store", zap.Error(err))
			}
		}()
		eventStore = mongoStore
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	backoff := providers.BackoffConfig{
		MaxRetries:      cfg.ProviderMaxRetries,
		InitialInterval: cfg.ProviderRetryInterval,
		MaxInterval:     5 * time.Second,
	}
	weatherClient := providers.NewWeatherClient(httpClient, cfg.WeatherAPIBaseURL, cfg.WeatherAPICode, backoff)
	distanceClient := providers.NewDistanceClient(httpClient, cfg.DistanceAPIBaseURL, cfg.DistanceAPICode, backoff)

	enricher := events.NewEnricher(weatherClient, distanceClient, m, log)
	service := events.NewService(eventStore, enricher, events.Config{
		Offset:        cfg.LocalOffset,
		EnrichTimeout: cfg.EnrichTimeout,
	}, m, log)

	// Store connectivity watchdog.
	sched := scheduler.New(eventStore, cfg.StorePingInterval, m, log)
	if err := sched.Start(); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "event-finder",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.EnrichTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(httpapi.RequestID())
	app.Use(httpapi.RequestLogger(log))
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "event-finder",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpapi.RegisterRoutes(app, service, log)

	go func() {
		log.Info("API server starting", zap.String("address", ":"+cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("Fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
}

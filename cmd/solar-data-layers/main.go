package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/solar-data-layers/internal/api/http"
	"github.com/i474232898/solar-data-layers/internal/config"
	"github.com/i474232898/solar-data-layers/internal/log"
	"github.com/i474232898/solar-data-layers/internal/metrics"
	"github.com/i474232898/solar-data-layers/internal/raster/geotiff"
	"github.com/i474232898/solar-data-layers/internal/scheduler"
	"github.com/i474232898/solar-data-layers/internal/solar"
	"github.com/i474232898/solar-data-layers/internal/solar/providers"
	"github.com/i474232898/solar-data-layers/internal/store"
)

func main() {
	// Bootstrap logger until the configured one is known.
	_ = log.Setup("info", "json")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}

	if err := log.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Error("failed to set up logger", zap.Error(err))
		os.Exit(1)
	}
	defer log.Sync()

	// Shared HTTP client for outbound Google calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	retry := providers.WithBackoff(providers.BackoffConfig{
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	})

	// Memo caches, in process or shared through valkey.
	var vk valkey.Client
	if cfg.CacheBackend == "valkey" {
		vk, err = store.NewValkeyClient(cfg.ValkeyAddr)
		if err != nil {
			log.Error("failed to connect to valkey", zap.String("addr", cfg.ValkeyAddr), zap.Error(err))
			os.Exit(1)
		}
		defer vk.Close()
	}

	decoder, err := geotiff.NewDecoder()
	if err != nil {
		log.Error("failed to initialise geotiff decoder", zap.Error(err))
		os.Exit(1)
	}

	geocoder := solar.NewCachedGeocoder(
		providers.NewGoogleGeocoder(httpClient, cfg.GoogleAPIKey, retry),
		newCache[solar.Resolution](cfg, vk, "geocode"),
	)
	locator := solar.NewCachedLocator(
		providers.NewDataLayersClient(httpClient, cfg.GoogleAPIKey, retry),
		newCache[solar.ResourceSet](cfg, vk, "datalayers"),
	)
	insights := solar.NewCachedInsights(
		providers.NewBuildingInsightsClient(httpClient, cfg.GoogleAPIKey, retry),
		newCache[json.RawMessage](cfg, vk, "insights"),
	)
	maps := solar.NewCachedMap(
		providers.NewStaticMapClient(httpClient, cfg.GoogleAPIKey, cfg.StaticMapZoom, cfg.StaticMapSize, retry),
		newCache[solar.MapImage](cfg, vk, "staticmap"),
	)

	opts := []solar.PipelineOption{
		solar.WithLocateDefaults(cfg.Locate),
		solar.WithInsights(insights),
		solar.WithMapImager(maps),
	}
	if cfg.RenderCacheEntries > 0 {
		opts = append(opts, solar.WithRenderCache(
			store.NewMemoryCache[[]solar.RenderableLayer](cfg.RenderCacheEntries, cfg.RenderCacheMaxAge),
		))
	}

	// Core pipeline: geocode, locate, fetch and decode, render.
	pipeline := solar.NewPipeline(
		geocoder,
		locator,
		solar.NewEngine(providers.NewGeoTIFFClient(httpClient, cfg.GoogleAPIKey, retry), decoder),
		solar.NewRenderer(),
		opts...,
	)

	// Scheduler that keeps the caches warm for configured addresses.
	sched := scheduler.New(cfg.WarmAddresses, cfg.WarmInterval, pipeline)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", zap.Error(err))
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "solar-data-layers",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Layer queries fetch several rasters one after another.
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "solar-data-layers",
		})
	})
	app.Get("/metrics", metrics.Handler())

	// API routes.
	httpapi.RegisterRoutes(app, pipeline)

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Warn("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("error during shutdown", zap.Error(err))
	}
}

// newCache returns the memo cache for one kind of lookup.
func newCache[V any](cfg *config.AppConfig, vk valkey.Client, prefix string) solar.Cache[V] {
	if vk != nil {
		return store.NewValkeyCache[V](vk, "solar:"+prefix+":", cfg.CacheMaxAge)
	}
	return store.NewMemoryCache[V](cfg.CacheMaxEntries, cfg.CacheMaxAge)
}

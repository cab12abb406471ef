package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/smartcart/optimizer-service/config"
	"github.com/smartcart/optimizer-service/internal/database"
	"github.com/smartcart/optimizer-service/internal/geocode"
	"github.com/smartcart/optimizer-service/internal/handlers"
	"github.com/smartcart/optimizer-service/internal/middleware"
	"github.com/smartcart/optimizer-service/internal/scoring"
	"github.com/smartcart/optimizer-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting optimizer service")

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(ctx, dbURL, database.PoolOptions{
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry init failed, continuing without it")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Telemetry shutdown failed")
			}
		}()
	}

	wireHandlers(cfg)

	if cfg.Logging.Level == "debug" || cfg.Logging.Level == "trace" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuth())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.POST("/optimize", handlers.Optimize)

		preferences := internal.Group("/preferences")
		{
			preferences.GET("/:userId", handlers.GetPreferences)
			preferences.PUT("/:userId", handlers.UpdatePreferences)
		}

		stores := internal.Group("/stores")
		{
			stores.GET("", handlers.ListStores)
			stores.POST("", handlers.CreateStore)
			stores.POST("/enrich", handlers.EnrichAllStores)
			stores.POST("/:storeId/enrich", handlers.EnrichStore)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

// wireHandlers builds the repository, scoring, and geocoding graph and hands
// it to the handler package.
func wireHandlers(cfg *config.Config) {
	pool := database.Pool()

	storeRepo := database.NewStoreRepo(pool)
	catalogRepo := database.NewCatalogRepo(pool)
	qualityRepo := database.NewQualityRepo(pool)
	prefRepo := database.NewPreferenceRepo(pool)

	scoringCfg := scoringConfig(cfg.Scoring)
	metrics := scoring.NewMetricsRecorder()
	gatherer := scoring.NewGatherer(catalogRepo, storeRepo, qualityRepo, metrics)
	selector := scoring.NewSelector(gatherer, scoringCfg, metrics)

	geoClient := geocode.NewClient(geocode.ClientConfig{
		BaseURL:           cfg.Geocoding.BaseURL,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
		Timeout:           cfg.Geocoding.Timeout,
		UserAgent:         cfg.Geocoding.UserAgent,
	})
	enricher := geocode.NewEnricher(storeRepo, geoClient, cfg.Geocoding.BatchDelay)

	handlers.InitOptimizer(selector, prefRepo)
	handlers.InitPreferences(prefRepo)
	handlers.InitStores(storeRepo, enricher)
}

func scoringConfig(cfg config.ScoringConfig) *scoring.Config {
	out := scoring.DefaultConfig()
	out.FavoriteStoreDistanceBonus = cfg.FavoriteStoreDistanceBonus
	out.FavoriteStoreAvailabilityBonus = cfg.FavoriteStoreAvailabilityBonus
	out.PreferredBrandBonus = cfg.PreferredBrandBonus
	out.LowStockBaseline = cfg.LowStockBaseline
	out.AdditivePenalty = cfg.AdditivePenalty
	out.ReferenceDistanceKm = cfg.ReferenceDistanceKm
	out.MaxConcurrentItems = cfg.MaxConcurrentItems
	return out
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "optimizer-service").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appdataset "github.com/homefinder/backend/internal/application/dataset"
	"github.com/homefinder/backend/internal/application/recommendation"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/infrastructure/cache"
	"github.com/homefinder/backend/internal/infrastructure/config"
	"github.com/homefinder/backend/internal/infrastructure/dataset"
	"github.com/homefinder/backend/internal/infrastructure/logger"
	"github.com/homefinder/backend/internal/infrastructure/persistence"
	"github.com/homefinder/backend/internal/infrastructure/telemetry"
	"github.com/homefinder/backend/internal/interfaces/http/handler"
	"github.com/homefinder/backend/internal/interfaces/http/middleware"
	"github.com/homefinder/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/homefinder/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			HomeFinder API
//	@version		1.0
//	@description	Property search and recommendation service. Loads a real-estate listings dataset, cleans it, and serves price-ranked recommendations.

//	@contact.name	API Support
//	@contact.url	https://github.com/homefinder/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Pre-shared admin API key for administrative endpoints

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize log export and bridge the zap logger to OTEL
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logs provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logs provider", zap.Error(err))
		}
	}()
	log = telemetry.BridgeZapLogger(log, logsProvider, cfg.Telemetry.ServiceName)

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingEndpoint,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingPassword,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Telemetry.SpanProfiles && profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	log.Info("Starting HomeFinder Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("dataset_kind", cfg.Dataset.Kind),
	)

	// Build the dataset source from configuration
	var source dataset.Source
	var db *persistence.Database
	switch cfg.Dataset.Kind {
	case "file":
		source = dataset.NewFileSource(cfg.Dataset.Path)
	case "s3":
		s3Source, err := dataset.NewS3Source(ctx, dataset.S3Config{
			Bucket:       cfg.Dataset.S3.Bucket,
			Key:          cfg.Dataset.S3.Key,
			Region:       cfg.Dataset.S3.Region,
			Endpoint:     cfg.Dataset.S3.Endpoint,
			AccessKey:    cfg.Dataset.S3.AccessKey,
			SecretKey:    cfg.Dataset.S3.SecretKey,
			UsePathStyle: cfg.Dataset.S3.UsePathStyle,
			UseSSL:       cfg.Dataset.S3.UseSSL,
		}, dataset.WithS3Logger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 dataset source", zap.Error(err))
		}
		source = s3Source
	case "database":
		db, err = persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if cfg.Telemetry.DBTraceEnabled {
			dbSystem := "postgresql"
			if cfg.Database.Driver == "sqlite" {
				dbSystem = "sqlite"
			}
			if err := db.EnableTracing(telemetry.DBTracingConfig{
				Enabled:          true,
				LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
				SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
				DBSystem:         dbSystem,
				WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
			}, log); err != nil {
				log.Warn("Failed to enable database tracing", zap.Error(err))
			}
		}
		if err := db.EnablePoolMetrics(meterProvider, log); err != nil {
			log.Warn("Failed to enable database pool metrics", zap.Error(err))
		}
		source = dataset.NewDatabaseSource(db.DB, cfg.Dataset.Table)
	default:
		log.Fatal("Unknown dataset kind", zap.String("kind", cfg.Dataset.Kind))
	}
	log.Info("Dataset source configured", zap.String("uri", source.URI()))

	// Search metrics instruments
	var searchMetrics *telemetry.SearchMetrics
	if meterProvider.IsEnabled() {
		searchMetrics, err = telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{
			Meter:           meterProvider.Meter("homefinder/search"),
			Logger:          log,
			CollectInterval: cfg.Telemetry.MetricsInterval,
		})
		if err != nil {
			log.Fatal("Failed to initialize search metrics", zap.Error(err))
		}
	}

	// Dataset service with the per-fingerprint table cache
	tableCache := cache.NewTableCache()
	datasetService := appdataset.NewService(source, tableCache,
		appdataset.WithLogger(log),
		appdataset.WithMetrics(searchMetrics),
		appdataset.WithLoadOptions(dataset.LoadOptions{
			CurrencyPrefix: cfg.Dataset.CurrencyPrefix,
			MaxWarnings:    cfg.Dataset.MaxParseWarnings,
		}),
	)

	// Eager load so the first search does not pay the cleaning cost.
	// A schema mismatch is a deployment error and aborts startup; transient
	// source failures are retried on demand.
	if _, err := datasetService.Load(ctx); err != nil {
		if shared.IsSchemaError(err) {
			log.Fatal("Dataset schema is invalid", zap.Error(err))
		}
		log.Warn("Initial dataset load failed, will retry on first request", zap.Error(err))
	}

	if searchMetrics != nil {
		searchMetrics.SetStatsProvider(datasetService)
		searchMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer searchMetrics.Stop()
	}

	// Search result cache (Redis with optional in-memory fallback)
	cacheFactory := cache.NewSearchCacheFactory(
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Cache.InMemoryFallback),
	)
	var redisCfg *cache.RedisConfig
	if cfg.Cache.RedisEnabled {
		redisCfg = &cache.RedisConfig{
			Host:     cfg.Cache.RedisHost,
			Port:     cfg.Cache.RedisPort,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}
	}
	resultCache, err := cacheFactory.CreateCache(redisCfg)
	if err != nil {
		log.Fatal("Failed to initialize search result cache", zap.Error(err))
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			log.Error("Error closing search result cache", zap.Error(err))
		}
	}()

	// Recommendation service
	recommendationService := recommendation.NewService(datasetService,
		recommendation.WithLogger(log),
		recommendation.WithMetrics(searchMetrics),
		recommendation.WithResultCache(resultCache, shared.SearchCacheConfig{
			TTL:     cfg.Cache.ResultTTL,
			Enabled: cfg.Cache.ResultEnabled,
		}),
	)

	// HTTP handlers
	searchHandler := handler.NewSearchHandler(recommendationService, datasetService)
	listingHandler := handler.NewListingHandler(datasetService)
	datasetHandler := handler.NewDatasetHandler(datasetService)
	healthHandler := handler.NewHealthHandler(datasetService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing and HTTP metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if tracerProvider.IsEnabled() {
		engine.Use(middleware.Tracing())
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.SpanErrorMarker())
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.MetricsEnabled,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler.Health)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerCfg := middleware.SwaggerConfig{
			Enabled:    true,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(swaggerCfg, nil),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Search domain (recommendations, form defaults)
	searchRoutes := router.NewDomainGroup("search", "/search")
	searchRoutes.POST("/recommendations", searchHandler.Recommend)
	searchRoutes.GET("/defaults", searchHandler.GetDefaults)

	// Listings domain (browse, detail)
	listingRoutes := router.NewDomainGroup("listings", "/listings")
	listingRoutes.GET("", listingHandler.ListListings)
	listingRoutes.GET("/:id", listingHandler.GetListing)

	// Dataset domain (status, admin reload)
	datasetRoutes := router.NewDomainGroup("dataset", "/dataset")
	datasetRoutes.GET("/status", datasetHandler.GetStatus)
	datasetRoutes.POST("/reload", middleware.APIKeyAuth(cfg.Admin.APIKeyHash), datasetHandler.Reload)
	if cfg.Admin.APIKeyHash == "" {
		log.Warn("Admin API key not configured, dataset reload endpoint is disabled")
	}

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(searchRoutes).
		Register(listingRoutes).
		Register(datasetRoutes).
		Register(systemRoutes)
	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

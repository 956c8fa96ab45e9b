package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchamap/internal/config"
	"matchamap/internal/database"
	"matchamap/internal/handlers"
	"matchamap/internal/logger"
	"matchamap/internal/middleware"
	"matchamap/internal/provider"
	"matchamap/internal/services"
	"matchamap/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, errs := config.Load(os.Getenv("CONFIG_FILE"))
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	if err := logger.Init(cfg.IsProduction()); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	placeStore, searchCache, err := initStores(ctx, cfg, log)
	if err != nil {
		log.Fatalw("Failed to initialize storage", "error", err)
	}

	client, err := provider.NewGoogleClient(provider.GoogleConfig{
		APIKey:    cfg.GoogleMapsAPIKey,
		Timeout:   cfg.ProviderTimeout,
		RateLimit: cfg.ProviderRateLimit,
	})
	if err != nil {
		log.Fatalw("Failed to initialize places provider", "error", err)
	}

	opts := services.Options{
		Keyword:             cfg.SearchKeyword,
		Category:            cfg.SearchCategory,
		CacheTTL:            cfg.SearchCacheTTL,
		DefaultRadiusMeters: cfg.DefaultRadiusMeters,
		BackfillConcurrency: cfg.BackfillConcurrency,
	}
	placeService := services.NewPlaceService(placeStore, client, opts)
	searchService := services.NewSearchService(searchCache, placeStore, client, placeService, opts)

	services.NewCacheJanitor(searchCache, cfg.SearchCacheTTL, cfg.CacheJanitorInterval).Start(ctx)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Cleanup(); n > 0 {
					log.Debugw("Dropped idle rate limit entries", "count", n)
				}
			}
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure trusted proxies
	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		log.Warnw("Failed to set trusted proxies", "error", err)
	}

	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	router.Use(middleware.Prometheus())

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)
	router.GET("/metrics", middleware.MetricsHandler())

	api := router.Group("")
	api.Use(limiter.Middleware())
	handlers.RegisterRoutes(api, handlers.NewPlaceHandler(placeService), handlers.NewSearchHandler(searchService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}
	if err := database.Close(); err != nil {
		log.Warnw("Failed to close database", "error", err)
	}
	log.Info("Server exited")
}

// initStores builds the place store and search cache for the configured driver.
// A REDIS_URL moves the search cache to Redis regardless of the driver.
func initStores(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (store.PlaceStore, store.SearchCacheStore, error) {
	var placeStore store.PlaceStore
	var searchCache store.SearchCacheStore

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		placeStore = store.NewMemoryPlaceStore()
		searchCache = store.NewMemorySearchCache()
	default:
		if err := database.InitDB(cfg.DatabaseURL, database.Options{LogSQL: !cfg.IsProduction()}); err != nil {
			return nil, nil, err
		}
		db := database.GetDB()
		go database.StartConnectionPoolMetricsCollector(ctx, db, 15*time.Second)
		placeStore = store.NewGormPlaceStore(db)
		searchCache = store.NewGormSearchCache(db)
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(redisOpts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		log.Info("Search cache backed by Redis")
		searchCache = store.NewRedisSearchCache(client, 2*cfg.SearchCacheTTL)
	}

	return placeStore, searchCache, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "OPTIONS"}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	return c
}

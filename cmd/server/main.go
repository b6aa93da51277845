// Guild scoring service: HTTP API over the ecological compatibility
// scorer. Reference data (species knowledge base, calibration tables,
// biocontrol relationships) is loaded once at start and treated as
// immutable for the process lifetime.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gardenkit/guildscore/internal/cache"
	"github.com/gardenkit/guildscore/internal/calibration"
	"github.com/gardenkit/guildscore/internal/config"
	"github.com/gardenkit/guildscore/internal/errors"
	"github.com/gardenkit/guildscore/internal/monitoring"
	"github.com/gardenkit/guildscore/internal/ratelimit"
	"github.com/gardenkit/guildscore/internal/scoring"
	"github.com/gardenkit/guildscore/internal/species"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(cfg.Logging.Level)
	logger.SystemLogger("startup", "loading reference data")

	deps, err := loadReferenceData(cfg, logger)
	if err != nil {
		logger.Error("Failed to load reference data", "error", err)
		os.Exit(1)
	}
	defer errors.SafeClose(deps.store, "species store")

	metrics := monitoring.NewMetrics()
	router := buildRouter(cfg, deps, metrics, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.SystemLogger("shutdown", "signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()

	errors.SafeClose(deps.redis, "redis client")

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exited")
}

// dependencies bundles the loaded reference data and service objects.
type dependencies struct {
	store    *species.Store
	kb       *species.KnowledgeBase
	tables   *calibration.Set
	scorer   *scoring.Scorer
	redis    *ratelimit.RedisClient
}

func loadReferenceData(cfg *config.Config, logger *monitoring.Logger) (*dependencies, error) {
	store, err := species.NewStore(cfg.Data.SpeciesDB)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	kb, err := store.LoadKnowledgeBase(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	calStore, err := calibration.NewStore(cfg.Data.CalibrationDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	tables, err := calStore.LoadAll()
	if err != nil {
		store.Close()
		return nil, err
	}
	if tables.Len() == 0 {
		logger.Warn("No calibration tables found; every scoring request will report uncalibrated",
			"dir", cfg.Data.CalibrationDir)
	}

	biocontrol, err := scoring.LoadBiocontrolTable(cfg.Data.BiocontrolFile)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("Biocontrol table loaded", "entries", biocontrol.Size())

	return &dependencies{
		store:  store,
		kb:     kb,
		tables: tables,
		scorer: scoring.NewScorer(kb, tables, biocontrol),
		redis:  ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
	}, nil
}

func buildRouter(cfg *config.Config, deps *dependencies, metrics *monitoring.Metrics, logger *monitoring.Logger) *gin.Engine {
	r := gin.New()

	// Recovery sits outside ErrorHandler so a panic while rendering an
	// error response still degrades to a structured 500.
	r.Use(monitoring.RequestMiddleware(metrics, logger))
	r.Use(errors.RecoveryHandler())
	r.Use(errors.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	limiter := ratelimit.NewLimiter(deps.redis, ratelimit.Config{
		RequestsPerMin:  cfg.Server.RateLimitPerMin,
		BurstMultiplier: 2,
	})
	r.Use(ratelimit.Middleware(limiter, metrics))

	responseCache := cache.New(cfg.Server.CacheTTL.Std())
	r.Use(responseCache.Middleware(metrics, "/api/v1/guilds/score", "/api/v1/guilds/explain"))

	h := newHandlers(deps, metrics, logger)

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		api.POST("/guilds/score", h.scoreGuild)
		api.POST("/guilds/explain", h.explainGuild)
		api.GET("/species", h.searchSpecies)
		api.GET("/species/:id", h.getSpecies)
		api.GET("/calibration/status", h.calibrationStatus)
	}

	return r
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitehub/database"
	"sitehub/internal/config"
	"sitehub/internal/ingestion/planupdate"
	"sitehub/internal/microservices/http-api/handler"
	"sitehub/internal/microservices/http-api/middleware"
	"sitehub/internal/microservices/http-api/repository"
	"sitehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("could not load config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid config: %v", err)
		return 1
	}

	logger := cfg.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		return 1
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	pool, err := database.OpenPool(ctx, cfg)
	if err != nil {
		logger.Error("pgx_pool_failed", "error", err)
		return 1
	}
	defer pool.Close()

	// the API keeps serving from Postgres when Redis is down
	var cache repository.CatalogCache
	redisCache, err := repository.NewRedisCatalogCache(cfg.RedisAddr(), cfg.RedisPassword, time.Duration(cfg.CacheTTL)*time.Second)
	if err != nil {
		logger.Warn("redis_unavailable", "addr", cfg.RedisAddr(), "error", err)
	} else {
		defer redisCache.Close()
		cache = redisCache
	}

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	planRepo := repository.NewPlanRepository(db)

	stateStore, err := planupdate.NewPostgresStateStore(ctx, pool)
	if err != nil {
		logger.Error("sync_state_init_failed", "error", err)
		return 1
	}

	bus := planupdate.NewBus(16)
	syncService := planupdate.NewSyncService(planupdate.SyncConfig{
		Source:  planupdate.NewClient(cfg.PlansAPIURL, cfg.PlansAPIToken, logger),
		Repo:    planRepo,
		Cache:   cache,
		State:   stateStore,
		Bus:     bus,
		Workers: cfg.PlanSyncWorkers,
		Logger:  logger,
	})
	syncService.Start(ctx)
	defer syncService.Stop()

	authService := service.NewAuthService(userRepo, cfg)
	noteService := service.NewNoteService(noteRepo, logger)
	planService := service.NewPlanService(planRepo, service.PlanServiceOptions{
		Cache:          cache,
		Refresher:      syncService,
		BillingEnabled: cfg.BillingEnabled,
		Logger:         logger,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/check-conn", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	api := r.Group("/api")
	handler.NewAuthHandler(authService).RegisterRoutes(api.Group("/auth"))

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	handler.NewNoteHandler(noteService).RegisterRoutes(protected.Group("/notes"))
	handler.NewPlanHandler(planService, bus).RegisterRoutes(protected.Group("/sites"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// open event streams end with the signal instead of holding Shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_http_server", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("received_shutdown_signal")
	case err := <-errChan:
		logger.Error("server_error", "error", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	logger.Info("server_stopped_gracefully")
	return code
}

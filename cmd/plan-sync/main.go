package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitehub/database"
	"sitehub/internal/config"
	"sitehub/internal/ingestion/planupdate"
	"sitehub/internal/microservices/http-api/repository"

	flag "github.com/spf13/pflag"
)

func main() {
	once := flag.Bool("once", false, "refresh every site one time and exit")
	blogID := flag.Int64P("blog", "b", 0, "refresh a single blog and exit")
	flag.Parse()

	os.Exit(run(*once, *blogID))
}

// run returns the exit code so deferred closes happen before the process exits
func run(once bool, blogID int64) int {
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

	stateStore, err := planupdate.NewPostgresStateStore(ctx, pool)
	if err != nil {
		logger.Error("sync_state_init_failed", "error", err)
		return 1
	}

	var cache repository.CatalogCache
	if redisCache, err := repository.NewRedisCatalogCache(cfg.RedisAddr(), cfg.RedisPassword, time.Duration(cfg.CacheTTL)*time.Second); err != nil {
		logger.Warn("redis_unavailable", "addr", cfg.RedisAddr(), "error", err)
	} else {
		defer redisCache.Close()
		cache = redisCache
	}

	// refreshes run inline here, so no worker pool is started
	syncService := planupdate.NewSyncService(planupdate.SyncConfig{
		Source: planupdate.NewClient(cfg.PlansAPIURL, cfg.PlansAPIToken, logger),
		Repo:   repository.NewPlanRepository(db),
		Cache:  cache,
		State:  stateStore,
		Logger: logger,
	})

	switch {
	case blogID > 0:
		if err := syncService.Refresh(ctx, blogID); err != nil {
			return 1
		}
		return 0
	case once:
		refreshed, failed, err := syncService.RefreshAll(ctx, 0)
		logger.Info("plan_sync_finished", "refreshed", refreshed, "failed", failed)
		if err != nil || failed > 0 {
			return 1
		}
		return 0
	}

	logger.Info("plan_sync_starting", "interval", cfg.PlanSyncInterval)

	// catch up on stale sites before the first tick
	if refreshed, failed, err := syncService.RefreshAll(ctx, cfg.PlanSyncInterval); err != nil {
		logger.Error("plan_initial_sync_failed", "error", err)
	} else {
		logger.Info("plan_initial_sync_finished", "refreshed", refreshed, "failed", failed)
	}

	syncService.StartPoller(ctx, cfg.PlanSyncInterval)
	<-ctx.Done()
	logger.Info("plan_sync_stopped")
	return 0
}

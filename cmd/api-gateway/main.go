package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-adp-insights/internal/analytics"
	"github.com/noah-isme/sma-adp-insights/internal/handler"
	"github.com/noah-isme/sma-adp-insights/internal/models"
	"github.com/noah-isme/sma-adp-insights/internal/repository"
	"github.com/noah-isme/sma-adp-insights/internal/service"
	"github.com/noah-isme/sma-adp-insights/pkg/cache"
	"github.com/noah-isme/sma-adp-insights/pkg/config"
	"github.com/noah-isme/sma-adp-insights/pkg/database"
	"github.com/noah-isme/sma-adp-insights/pkg/jobs"
	"github.com/noah-isme/sma-adp-insights/pkg/logger"
)

// @title SMA ADP Student Insights API
// @version 1.0.0
// @description Lesson progress, monthly attendance and feedback analytics computed from student detail payloads.
// @BasePath /api/v1
// @schemes http https

func main() {
	if err := run(); err != nil {
		log.Fatalf("insights api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	var checks []handler.ReadinessCheck

	var cacheRepo service.CacheRepository
	if cfg.Insights.CacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, payload cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient)
			checks = append(checks, redisCheck(redisClient))
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Insights.CacheTTL, logr, cacheRepo != nil)

	params := service.StudentInsightParams{
		Source:  repository.NewStudentDetailGateway(cfg.Upstream.BaseURL, cfg.Upstream.Token, cfg.Upstream.Timeout, nil),
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr,
		Config: service.StudentInsightConfig{
			CacheTTL:           cfg.Insights.CacheTTL,
			Location:           cfg.Insights.Location(),
			FeedbackWindowDays: cfg.Insights.FeedbackWindowDays,
			Palette:            analytics.Palette(cfg.Insights.Palette),
		},
	}

	var (
		snapshotQueue *jobs.Queue[models.StudentSnapshot]
		snapshotSvc   *service.SnapshotService
	)
	if cfg.Snapshots.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		checks = append(checks, postgresCheck(db))

		snapshotRepo := repository.NewSnapshotRepository(db)
		snapshotSvc = service.NewSnapshotService(snapshotRepo, metrics, cfg.Snapshots.Retention, logr)
		snapshotQueue = jobs.NewQueue("snapshot-writer", snapshotSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.Snapshots.Workers,
			MaxRetries: cfg.Snapshots.MaxRetries,
			Logger:     logr,
		})
		params.Snapshots = snapshotRepo
		params.SnapshotQueue = snapshotQueue
	}

	insightSvc := service.NewStudentInsightService(params)
	exportSvc := service.NewExportService(insightSvc, logr)

	router := newRouter(cfg, logr, metrics,
		handler.NewStudentInsightHandler(insightSvc, exportSvc),
		handler.NewMetricsHandler(metrics, checks...),
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if snapshotSvc != nil {
		if _, err := scheduler.AddFunc(cfg.Snapshots.PruneSchedule, func() {
			pruneSnapshots(ctx, snapshotSvc, logr)
		}); err != nil {
			return fmt.Errorf("schedule snapshot prune %q: %w", cfg.Snapshots.PruneSchedule, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if snapshotQueue != nil {
		g.Go(func() error {
			snapshotQueue.Start(gctx)
			<-gctx.Done()
			snapshotQueue.Stop()
			return nil
		})
	}
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logr.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func redisCheck(client *redis.Client) handler.ReadinessCheck {
	return handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func postgresCheck(db *sqlx.DB) handler.ReadinessCheck {
	return handler.ReadinessCheck{Name: "postgres", Check: db.PingContext}
}

type snapshotPruner interface {
	Prune(ctx context.Context) (int64, error)
}

// pruneSnapshots runs one retention pass. Failures are logged by the service.
func pruneSnapshots(ctx context.Context, pruner snapshotPruner, logr *zap.Logger) {
	pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	removed, err := pruner.Prune(pruneCtx)
	if err != nil {
		return
	}
	logr.Info("snapshot prune finished", zap.Int64("removed", removed), zap.Duration("took", time.Since(start)))
}

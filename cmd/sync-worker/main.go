package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/victorsanmartin/ferromart-backend/internal/cron"
	"github.com/victorsanmartin/ferromart-backend/internal/ingest"
	"github.com/victorsanmartin/ferromart-backend/pkg/config"
	"github.com/victorsanmartin/ferromart-backend/pkg/db"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
	"github.com/victorsanmartin/ferromart-backend/pkg/metrics"
	"github.com/victorsanmartin/ferromart-backend/pkg/migrate"
	"github.com/victorsanmartin/ferromart-backend/pkg/redis"
	"github.com/victorsanmartin/ferromart-backend/pkg/storage/drive"
	"github.com/victorsanmartin/ferromart-backend/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	once := flag.Bool("once", false, "run a single sync pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	driveClient, err := drive.NewClient(context.Background(), cfg.Drive, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap drive client", err)
		os.Exit(1)
	}

	blobStore, err := local.NewStore(cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to open media store", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	syncService, err := ingest.NewService(ingest.ServiceParams{
		Logger:         logg,
		DB:             dbClient,
		Remote:         driveClient,
		Blobs:          blobStore,
		Metrics:        syncMetrics,
		RootFolderID:   cfg.Drive.RootFolderID,
		MinImageBytes:  cfg.Media.MinImageBytes,
		JPEGQuality:    cfg.Media.JPEGQuality,
		DebugArtifacts: cfg.Sync.DebugArtifacts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	job, err := cron.NewPhotoSyncJob(logg, syncService, redisClient, cfg.Drive.SourceFolderID)
	if err != nil {
		logg.Error(context.Background(), "failed to create photo sync job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("photo-sync:"+cfg.App.Env), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync lock", err)
		os.Exit(1)
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  syncMetrics,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if *once {
		logg.Info(ctx, "running single sync pass")
		if err := scheduler.RunCycle(ctx); err != nil {
			logg.Error(ctx, "sync pass failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "sync pass complete")
		return
	}

	logg.Info(ctx, "starting sync worker")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "sync worker shutting down gracefully")
}

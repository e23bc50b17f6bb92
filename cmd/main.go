package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/denysyudin/captionize/internal/config"
	"github.com/denysyudin/captionize/internal/download"
	"github.com/denysyudin/captionize/internal/httpapi"
	"github.com/denysyudin/captionize/internal/jobs"
	"github.com/denysyudin/captionize/internal/media"
	"github.com/denysyudin/captionize/internal/persistence"
	"github.com/denysyudin/captionize/internal/pipeline"
	"github.com/denysyudin/captionize/pkg/file"
	"github.com/denysyudin/captionize/pkg/icron"
	"github.com/denysyudin/captionize/pkg/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal("captionize: %v", err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded environment variables from .env file")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	if err := os.MkdirAll(cfg.Media.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store, err := persistence.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	queue := jobs.NewQueue(cfg.Jobs.WorkerCount, store)
	fetcher := download.NewFetcher(nil)
	pipe := pipeline.New(fetcher, func(srcPath string) pipeline.Engine {
		return media.NewFfmpegWithCommands(srcPath, cfg.Media.FfmpegPath, cfg.Media.FfprobePath)
	}, cfg.Media.OutputDir)

	queue.Start(pipe.Execute)
	defer queue.Stop()

	retention := time.Duration(cfg.Jobs.RetentionHours) * time.Hour
	scheduler := cron.New()
	if retention > 0 {
		if _, err := scheduler.AddFunc(cfg.Jobs.RetentionCron, func() {
			sweepExpiredJobs(queue, retention, cfg.Media.OutputDir)
		}); err != nil {
			return fmt.Errorf("schedule retention sweep %q: %w", cfg.Jobs.RetentionCron, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		if next, err := icron.NextTrigger(cfg.Jobs.RetentionCron, time.Now()); err == nil {
			log.Info("Retention sweep scheduled, next run at %s", next.Format(time.RFC3339))
		}
	}

	server := httpapi.NewServer(queue)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("API listening on %s (%d workers)", cfg.HTTP.Addr, cfg.Jobs.WorkerCount)
		if err := server.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sweepExpiredJobs evicts finished jobs past the retention window and
// removes their artifacts from disk. Artifacts whose job record is already
// gone are caught by the age scan over the output directory.
func sweepExpiredJobs(queue *jobs.Queue, retention time.Duration, outputDir string) {
	evicted := queue.Sweep(retention)
	for _, job := range evicted {
		if job.OutputPath == "" {
			continue
		}
		if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove artifact %s for job %s: %v", job.OutputPath, job.ID, err)
		}
	}
	if len(evicted) > 0 {
		log.Info("Retention sweep evicted %d job(s)", len(evicted))
	}

	tracked := make(map[string]bool)
	for _, job := range queue.List() {
		if job.OutputPath != "" {
			tracked[job.OutputPath] = true
		}
	}
	stale, err := file.FindOlderThan(outputDir, time.Now().Add(-retention))
	if err != nil {
		log.Warn("Failed to scan output directory %s: %v", outputDir, err)
		return
	}
	for _, path := range stale {
		if tracked[path] || !strings.HasPrefix(filepath.Base(path), "processed_") {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("Failed to remove orphaned artifact %s: %v", path, err)
		}
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/docuflow/backend-go/app/bootstrap"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/ingest"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/metrics"
	"github.com/docuflow/backend-go/internal/queue"
	"go.uber.org/zap"
)

func main() {
	container, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer logger.Sync()

	// 凭证缺失在启动时致命，而不是任务执行时才失败
	if err := config.GetAppConfig().ValidateCredentials(); err != nil {
		logger.Fatal("missing required configuration", zap.Error(err))
	}

	err = container.Invoke(func(cfg *config.Config, q *queue.Queue, job *ingest.Job) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			metrics.Serve(cfg.Metrics.Port)
		}

		logger.Info("ingestion worker starting", zap.String("queue", cfg.Queue.Name))
		return q.Work(ctx, cfg.Queue.MaxAttempts, func(jobCtx context.Context, payload queue.JobPayload) error {
			return job.Run(jobCtx, payload.DocumentID, payload.Category, payload.BlobKey)
		})
	})
	if err != nil {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}
}

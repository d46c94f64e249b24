package main

import (
	"context"
	"log"
	"time"

	"github.com/docuflow/backend-go/app/bootstrap"
	"github.com/docuflow/backend-go/app/router"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/queue"
	"github.com/docuflow/backend-go/internal/status"
	"github.com/docuflow/backend-go/internal/storage"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	container, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer logger.Sync()

	err = container.Invoke(func(cfg *config.Config, blobs *storage.BlobStore, q *queue.Queue, st *status.Service) error {
		// bucket不存在则启动时创建
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := blobs.EnsureBucket(ctx); err != nil {
			return err
		}

		router.InitGatewayRoutes(cfg, blobs, q, st)

		// 读取JSON请求体需要
		web.BConfig.CopyRequestBody = true
		web.BConfig.RunMode = cfg.Server.Env

		logger.Info("gateway starting", zap.String("port", cfg.Server.Port))
		web.Run(":" + cfg.Server.Port)
		return nil
	})
	if err != nil {
		logger.Fatal("gateway startup failed", zap.Error(err))
	}
}

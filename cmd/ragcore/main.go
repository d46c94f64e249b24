package main

import (
	"log"

	"github.com/docuflow/backend-go/app/bootstrap"
	"github.com/docuflow/backend-go/app/router"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/metrics"
	"github.com/docuflow/backend-go/internal/rag"
	"github.com/docuflow/backend-go/internal/vector"
	"github.com/beego/beego/v2/server/web"
	"go.uber.org/zap"
)

func main() {
	container, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer logger.Sync()

	// 凭证缺失在启动时致命，不等到首个请求才暴露
	if err := config.GetAppConfig().ValidateCredentials(); err != nil {
		logger.Fatal("missing required configuration", zap.Error(err))
	}

	err = container.Invoke(func(cfg *config.Config, service *rag.Service, store vector.Store) error {
		if cfg.Metrics.Enabled {
			metrics.Serve(cfg.Metrics.Port)
		}

		router.InitRAGCoreRoutes(service, store)

		web.BConfig.CopyRequestBody = true
		web.BConfig.RunMode = cfg.Server.Env

		logger.Info("ragcore starting", zap.String("port", cfg.RAGCore.Port))
		web.Run(":" + cfg.RAGCore.Port)
		return nil
	})
	if err != nil {
		logger.Fatal("ragcore startup failed", zap.Error(err))
	}
}

package router

import (
	"github.com/docuflow/backend-go/app/controllers"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/queue"
	"github.com/docuflow/backend-go/internal/rag"
	"github.com/docuflow/backend-go/internal/status"
	"github.com/docuflow/backend-go/internal/storage"
	"github.com/docuflow/backend-go/internal/vector"
	"github.com/beego/beego/v2/server/web"
)

// InitGatewayRoutes 注册网关路由（上传/查询代理/下载）
func InitGatewayRoutes(cfg *config.Config, blobs *storage.BlobStore, q *queue.Queue, st *status.Service) {
	healthController := controllers.NewHealthController(q)
	web.Router("/", healthController, "get:Health")
	web.Router("/health", healthController, "get:Health")

	documentController := controllers.NewDocumentController(blobs, q, st, cfg)
	web.Router("/document/upload", documentController, "post:Upload")
	web.Router("/document/:id/status", documentController, "get:Status")
	web.Router("/document/:id", documentController, "get:Download")

	queryController := controllers.NewQueryProxyController(cfg)
	web.Router("/query", queryController, "post:Query")
}

// InitRAGCoreRoutes 注册ragcore路由（问答/集合列表）
func InitRAGCoreRoutes(service *rag.Service, store vector.Store) {
	ragController := controllers.NewRAGController(service, store)
	web.Router("/query", ragController, "post:Query")
	web.Router("/collections", ragController, "get:Collections")
}

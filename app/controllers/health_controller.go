package controllers

import (
	"github.com/docuflow/backend-go/internal/queue"
)

// HealthController 健康检查
// Queue字段必须导出，beego按请求复制控制器时只保留可导出字段
type HealthController struct {
	BaseController
	Queue *queue.Queue
}

// NewHealthController 创建健康检查控制器
func NewHealthController(q *queue.Queue) *HealthController {
	return &HealthController{Queue: q}
}

// Health 返回服务与任务队列连通状态
func (c *HealthController) Health() {
	queueOK := true
	if c.Queue != nil {
		if err := c.Queue.Ping(c.Ctx.Request.Context()); err != nil {
			queueOK = false
		}
	}

	c.JSONSuccess(map[string]interface{}{
		"status":             "API Gateway is running",
		"redis_queue_status": queueOK,
	})
}

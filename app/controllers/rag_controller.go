package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/docuflow/backend-go/internal/rag"
	"github.com/docuflow/backend-go/internal/vector"
	"github.com/go-playground/validator/v10"
)

// RAGController ragcore服务的问答入口
// 依赖字段必须导出，beego按请求复制控制器时只保留可导出字段
type RAGController struct {
	BaseController
	Service  *rag.Service
	Store    vector.Store
	Validate *validator.Validate
}

// NewRAGController 创建RAG控制器
func NewRAGController(service *rag.Service, store vector.Store) *RAGController {
	return &RAGController{
		Service:  service,
		Store:    store,
		Validate: validator.New(),
	}
}

// Query 执行RAG问答
func (c *RAGController) Query() {
	var req rag.QueryRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if err := c.Validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "question is required")
		return
	}

	resp, err := c.Service.Answer(c.Ctx.Request.Context(), req)
	if err != nil {
		c.JSONAppError(err)
		return
	}
	c.JSONSuccess(resp)
}

// Collections 列出向量索引中的全部集合
func (c *RAGController) Collections() {
	names, err := c.Store.ListCollections(c.Ctx.Request.Context())
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "Failed to list collections")
		return
	}
	c.JSONSuccess(map[string]interface{}{
		"collections": names,
		"count":       len(names),
	})
}

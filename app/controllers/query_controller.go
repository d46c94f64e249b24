package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/rag"
	"github.com/go-playground/validator/v10"
)

// QueryProxyController 网关侧查询代理
// 将问答请求同步转发给ragcore服务；超时或失败映射为503。
// 依赖字段必须导出，beego按请求复制控制器时只保留可导出字段
type QueryProxyController struct {
	BaseController
	CoreURL  string
	Client   *http.Client
	Validate *validator.Validate
}

// NewQueryProxyController 创建查询代理控制器
func NewQueryProxyController(cfg *config.Config) *QueryProxyController {
	timeout := cfg.AI.RequestTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &QueryProxyController{
		CoreURL:  cfg.RAGCore.URL,
		Client:   &http.Client{Timeout: timeout},
		Validate: validator.New(),
	}
}

// Query 转发问答请求
func (c *QueryProxyController) Query() {
	var req rag.QueryRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if err := c.Validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, "question is required")
		return
	}

	payload, err := json.Marshal(req)
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "failed to encode request")
		return
	}

	resp, err := c.Client.Post(c.CoreURL+"/query", "application/json", bytes.NewReader(payload))
	if err != nil {
		c.JSONError(http.StatusServiceUnavailable,
			fmt.Sprintf("RAG Core Service Unavailable or returned error: %v", err))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSONError(http.StatusServiceUnavailable, "failed to read core response")
		return
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.JSONError(http.StatusServiceUnavailable,
			fmt.Sprintf("RAG Core Service returned status %d", resp.StatusCode))
		return
	}

	c.Ctx.Output.Header("Content-Type", "application/json")
	c.Ctx.Output.SetStatus(resp.StatusCode)
	c.Ctx.Output.Body(body)
}

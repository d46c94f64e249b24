package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/queue"
	"github.com/docuflow/backend-go/internal/status"
	"github.com/docuflow/backend-go/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentController 文档上传与下载
// 依赖字段必须导出：beego每个请求都会新建控制器实例并只复制可导出字段
type DocumentController struct {
	BaseController
	Blobs   *storage.BlobStore
	Queue   *queue.Queue
	Records *status.Service
	Cfg     *config.Config
}

// NewDocumentController 创建文档控制器
func NewDocumentController(blobs *storage.BlobStore, q *queue.Queue, st *status.Service, cfg *config.Config) *DocumentController {
	return &DocumentController{
		Blobs:   blobs,
		Queue:   q,
		Records: st,
		Cfg:     cfg,
	}
}

// Upload 受理PDF上传：存入对象存储、建状态记录、投递摄取任务
// 非PDF在任何任务创建之前被拒绝
func (c *DocumentController) Upload() {
	file, header, err := c.GetFile("file")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != storage.ContentTypePDF {
		c.JSONError(http.StatusBadRequest, "Only PDF files are supported.")
		return
	}

	category := c.GetString("category")

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "failed to read upload")
		return
	}

	documentID := uuid.NewString()
	blobKey := storage.ObjectKey(documentID)
	ctx := c.Ctx.Request.Context()

	if err := c.Blobs.Put(ctx, blobKey, content, storage.ContentTypePDF); err != nil {
		logger.Error("upload to object storage failed",
			zap.String("document_id", documentID), zap.Error(err))
		c.JSONError(http.StatusInternalServerError, fmt.Sprintf("Failed to upload to storage: %v", err))
		return
	}

	if err := c.Records.Create(ctx, documentID, category, blobKey); err != nil {
		logger.Error("failed to create document record",
			zap.String("document_id", documentID), zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to record document")
		return
	}

	if err := c.Queue.Enqueue(ctx, queue.JobPayload{
		DocumentID:     documentID,
		Category:       category,
		BlobKey:        blobKey,
		TimeoutSeconds: c.Cfg.Queue.JobTimeoutSeconds,
	}); err != nil {
		logger.Error("failed to enqueue ingestion job",
			zap.String("document_id", documentID), zap.Error(err))
		c.JSONError(http.StatusInternalServerError, "failed to schedule processing")
		return
	}

	c.JSONSuccess(map[string]interface{}{
		"status":  "Document upload accepted",
		"file_id": documentID,
		"message": "Processing started in background.",
	})
}

// Download 从对象存储回流PDF
func (c *DocumentController) Download() {
	documentID := c.Ctx.Input.Param(":id")
	if documentID == "" {
		c.JSONError(http.StatusBadRequest, "document id is required")
		return
	}

	key := storage.ObjectKey(documentID)
	ctx := c.Ctx.Request.Context()

	reader, size, err := c.Blobs.Stream(ctx, key)
	if err != nil {
		c.JSONError(http.StatusNotFound, "File not found in storage")
		return
	}
	defer reader.Close()

	c.Ctx.Output.Header("Content-Type", storage.ContentTypePDF)
	c.Ctx.Output.Header("Content-Length", fmt.Sprintf("%d", size))
	// inline打开而非下载
	c.Ctx.Output.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", key))

	if _, err := io.Copy(c.Ctx.ResponseWriter, reader); err != nil {
		logger.Error("file download stream failed",
			zap.String("document_id", documentID), zap.Error(err))
	}
}

// Status 查询文档状态记录
func (c *DocumentController) Status() {
	documentID := c.Ctx.Input.Param(":id")
	if documentID == "" {
		c.JSONError(http.StatusBadRequest, "document id is required")
		return
	}

	record, err := c.Records.Get(c.Ctx.Request.Context(), documentID)
	if err != nil {
		c.JSONError(http.StatusNotFound, "document not found")
		return
	}
	c.JSONSuccess(record)
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docuflow/backend-go/internal/chunker"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/embedding"
	apperrors "github.com/docuflow/backend-go/internal/errors"
	"github.com/docuflow/backend-go/internal/extract"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/metrics"
	"github.com/docuflow/backend-go/internal/vector"
	"go.uber.org/zap"
)

// BlobDownloader 下载文档原始字节到本地临时副本
type BlobDownloader interface {
	FGet(ctx context.Context, key, path string) error
}

// Extractor 提取PDF每页文本
type Extractor interface {
	ExtractPages(path string) ([]string, error)
}

// OCREngine 光学识别回退
type OCREngine interface {
	Recognize(ctx context.Context, pdfPath string) (string, error)
	Ready() bool
}

// StatusRecorder 文档状态记录
type StatusRecorder interface {
	MarkProcessing(ctx context.Context, documentID string) error
	MarkIndexed(ctx context.Context, documentID string, chunkCount int) error
	MarkFailed(ctx context.Context, documentID string, reason string) error
}

// Job 文档摄取任务编排器
// 流程：下载 -> 文本提取 -> (OCR回退)? -> 分块 -> 向量化 -> 整批入索引
// 可安全重跑：chunk id由文档标识+块序号确定性派生，upsert幂等
type Job struct {
	blobs     BlobDownloader
	extractor Extractor
	ocr       OCREngine
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	store     vector.Store

	status     StatusRecorder
	collection string
	knowledge  config.KnowledgeConfig
	aiTimeout  config.AIConfig
	// tempDir 临时副本目录，默认系统临时目录
	tempDir string
}

// Options 任务依赖
type Options struct {
	Blobs      BlobDownloader
	Extractor  Extractor
	OCR        OCREngine
	Chunker    *chunker.Chunker
	Embedder   embedding.Embedder
	Store      vector.Store
	Status     StatusRecorder
	Collection string
	Knowledge  config.KnowledgeConfig
	AI         config.AIConfig
	TempDir    string
}

// NewJob 创建摄取任务
func NewJob(opts Options) *Job {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Job{
		blobs:      opts.Blobs,
		extractor:  opts.Extractor,
		ocr:        opts.OCR,
		chunker:    opts.Chunker,
		embedder:   opts.Embedder,
		store:      opts.Store,
		status:     opts.Status,
		collection: opts.Collection,
		knowledge:  opts.Knowledge,
		aiTimeout:  opts.AI,
		tempDir:    tempDir,
	}
}

// ChunkID 确定性chunk标识：{documentID}-{序号}
// 重跑同一文档产生相同ID集合，跨文档不冲突
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s-%04d", documentID, index)
}

// Run 执行单个文档的摄取
// 失败时记录document_id与category并保证临时文件清理
func (j *Job) Run(ctx context.Context, documentID, category, blobKey string) error {
	log := logger.WithDocument(documentID, category)
	log.Info("ingestion job started", zap.String("blob_key", blobKey))

	if j.status != nil {
		if err := j.status.MarkProcessing(ctx, documentID); err != nil {
			// 状态记录是辅助改进，更新失败不中止任务
			log.Warn("failed to mark document processing", zap.Error(err))
		}
	}

	chunkCount, err := j.run(ctx, log, documentID, category, blobKey)
	if err != nil {
		metrics.DocumentsFailed.Inc()
		log.Error("ingestion job failed", zap.Error(err))
		if j.status != nil {
			if statusErr := j.status.MarkFailed(ctx, documentID, err.Error()); statusErr != nil {
				log.Warn("failed to mark document failed", zap.Error(statusErr))
			}
		}
		return err
	}

	metrics.DocumentsIndexed.Inc()
	if j.status != nil {
		if statusErr := j.status.MarkIndexed(ctx, documentID, chunkCount); statusErr != nil {
			log.Warn("failed to mark document indexed", zap.Error(statusErr))
		}
	}
	log.Info("ingestion job completed", zap.Int("chunks", chunkCount))
	return nil
}

func (j *Job) run(ctx context.Context, log *zap.Logger, documentID, category, blobKey string) (int, error) {
	// 临时副本在任意退出路径上都必须删除
	tmpFile, err := os.CreateTemp(j.tempDir, documentID+"-*.pdf")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp file", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	// 下载
	if err := j.blobs.FGet(ctx, blobKey, tmpPath); err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}

	// 文本层提取
	pages, err := j.extractor.ExtractPages(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("text extraction failed: %w", err)
	}
	text := extract.JoinPages(pages)

	// 扫描件启发式：文本层过短则尝试OCR回退
	// OCR失败不中止摄取，保留（可能为空的）原始文本层继续
	if extract.LooksScanned(pages, j.knowledge.ScanTextThreshold) {
		log.Info("scan-like document detected, running ocr fallback",
			zap.Int("stripped_length", extract.StrippedLength(pages)))
		text = j.opticalFallback(ctx, log, tmpPath, text)
	}

	// 分块
	chunks := j.chunker.Split(chunker.Document{
		Text: text,
		Metadata: map[string]string{
			"category":    category,
			"document_id": documentID,
		},
	})

	// 零chunk视为任务失败：空文档入索引没有价值，也绝不upsert空批次
	if len(chunks) == 0 {
		return 0, apperrors.NewJobError("document produced no chunks")
	}

	// 向量化（显式超时，失败上抛，不以零向量兜底）
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, j.aiTimeout.RequestTimeout())
	vectors, err := j.embedder.EmbedBatch(embedCtx, texts)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	// 整批upsert：部分失败即整个任务失败，不留半写状态
	records := make([]vector.Chunk, len(chunks))
	for i, c := range chunks {
		records[i] = vector.Chunk{
			ID:         ChunkID(documentID, c.Index),
			DocumentID: documentID,
			Category:   category,
			Text:       c.Text,
			Vector:     vectors[i],
		}
	}
	if err := j.store.Upsert(ctx, j.collection, records); err != nil {
		return 0, fmt.Errorf("vector index upsert failed: %w", err)
	}

	return len(records), nil
}

// opticalFallback 执行OCR回退，失败时返回原始文本
func (j *Job) opticalFallback(ctx context.Context, log *zap.Logger, pdfPath, original string) string {
	if j.ocr == nil || !j.ocr.Ready() {
		log.Warn("ocr engine unavailable, keeping original text layer")
		return original
	}

	recognized, err := j.ocr.Recognize(ctx, pdfPath)
	if err != nil {
		log.Warn("ocr fallback failed, keeping original text layer", zap.Error(err))
		return original
	}
	if strings.TrimSpace(recognized) == "" {
		log.Warn("ocr produced no text, keeping original text layer")
		return original
	}

	metrics.OCRFallbacks.Inc()
	log.Info("ocr fallback applied", zap.Int("recognized_length", len(recognized)))
	return recognized
}

package di

import (
	"fmt"

	"github.com/docuflow/backend-go/internal/chunker"
	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/embedding"
	"github.com/docuflow/backend-go/internal/extract"
	"github.com/docuflow/backend-go/internal/ingest"
	"github.com/docuflow/backend-go/internal/ocr"
	"github.com/docuflow/backend-go/internal/queue"
	"github.com/docuflow/backend-go/internal/rag"
	"github.com/docuflow/backend-go/internal/status"
	"github.com/docuflow/backend-go/internal/storage"
	"github.com/docuflow/backend-go/internal/vector"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// RegisterProviders 注册所有依赖提供者
// 协作方句柄在服务启动时显式构造、按请求复用，不使用隐藏的全局状态
func RegisterProviders(container *dig.Container) error {
	providers := []interface{}{
		// 配置
		func() (*config.Config, error) {
			cfg := config.GetAppConfig()
			if cfg == nil {
				return nil, fmt.Errorf("config not loaded")
			}
			return cfg, nil
		},

		// 对象存储
		func(cfg *config.Config) (*storage.BlobStore, error) {
			return storage.NewBlobStore(cfg.Storage)
		},

		// 任务队列
		func(cfg *config.Config) *queue.Queue {
			return queue.New(cfg.Redis, cfg.Queue.Name)
		},

		// 状态库
		func(cfg *config.Config) (*gorm.DB, error) {
			db, err := status.OpenDatabase(cfg.Database.URL)
			if err != nil {
				return nil, err
			}
			if err := status.Migrate(db); err != nil {
				return nil, err
			}
			return db, nil
		},
		func(db *gorm.DB) *status.Service {
			return status.NewService(db)
		},

		// 向量索引
		func(cfg *config.Config) (vector.Store, error) {
			return vector.NewMilvusStore(vector.MilvusOptions{
				Address:    cfg.Vector.Address,
				Username:   cfg.Vector.Username,
				Password:   cfg.Vector.Password,
				Database:   cfg.Vector.Database,
				VectorSize: cfg.Vector.VectorSize,
				UseTLS:     cfg.Vector.TLS,
			})
		},

		// 嵌入与生成
		func(cfg *config.Config) embedding.Embedder {
			return embedding.NewOpenAIEmbedder(cfg.AI)
		},
		func(cfg *config.Config) rag.Generator {
			return rag.NewOpenAIGenerator(cfg.AI)
		},

		// 文档处理
		func() *extract.PDFExtractor {
			return extract.NewPDFExtractor()
		},
		func(cfg *config.Config) ocr.Engine {
			if !cfg.OCR.Enabled {
				return &ocr.NoopEngine{}
			}
			return ocr.NewTesseractEngine(cfg.OCR.Languages, cfg.OCR.DPI)
		},
		func(cfg *config.Config) *chunker.Chunker {
			return chunker.New(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
		},

		// 摄取任务编排器
		func(cfg *config.Config, blobs *storage.BlobStore, ex *extract.PDFExtractor,
			engine ocr.Engine, ch *chunker.Chunker, emb embedding.Embedder,
			store vector.Store, st *status.Service) *ingest.Job {
			return ingest.NewJob(ingest.Options{
				Blobs:      blobs,
				Extractor:  ex,
				OCR:        engine,
				Chunker:    ch,
				Embedder:   emb,
				Store:      store,
				Status:     st,
				Collection: cfg.Vector.Collection,
				Knowledge:  cfg.Knowledge,
				AI:         cfg.AI,
			})
		},

		// RAG查询编排器
		func(cfg *config.Config, emb embedding.Embedder, store vector.Store, gen rag.Generator) *rag.Service {
			return rag.NewService(emb, store, gen, cfg)
		},
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}
	return nil
}

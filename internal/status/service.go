package status

import (
	"context"
	"fmt"
	"time"

	"github.com/docuflow/backend-go/internal/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDatabase 连接Postgres状态库
func OpenDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate 建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&DocumentRecord{})
}

// Service 文档状态服务
type Service struct {
	db *gorm.DB
	sm *StateMachine
}

// NewService 创建状态服务
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
		sm: NewStateMachine(),
	}
}

// Create 上传受理时创建pending记录
func (s *Service) Create(ctx context.Context, documentID, category, blobKey string) error {
	record := DocumentRecord{
		DocumentID: documentID,
		Category:   category,
		BlobKey:    blobKey,
		Status:     StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}
	return nil
}

// Get 查询文档状态
func (s *Service) Get(ctx context.Context, documentID string) (*DocumentRecord, error) {
	var record DocumentRecord
	if err := s.db.WithContext(ctx).First(&record, "document_id = ?", documentID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkProcessing 任务开始处理
func (s *Service) MarkProcessing(ctx context.Context, documentID string) error {
	return s.transition(ctx, documentID, StatusProcessing, map[string]interface{}{
		"last_error": "",
	})
}

// MarkIndexed 任务成功入索引
func (s *Service) MarkIndexed(ctx context.Context, documentID string, chunkCount int) error {
	return s.transition(ctx, documentID, StatusIndexed, map[string]interface{}{
		"chunk_count": chunkCount,
	})
}

// MarkFailed 任务失败
func (s *Service) MarkFailed(ctx context.Context, documentID string, reason string) error {
	if len(reason) > 1024 {
		reason = reason[:1024]
	}
	return s.transition(ctx, documentID, StatusFailed, map[string]interface{}{
		"last_error": reason,
	})
}

// transition 校验并执行状态转换
func (s *Service) transition(ctx context.Context, documentID, to string, extra map[string]interface{}) error {
	record, err := s.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document record: %w", err)
	}

	if err := s.sm.Validate(record.Status, to); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	if err := s.db.WithContext(ctx).
		Model(&DocumentRecord{}).
		Where("document_id = ?", documentID).
		Updates(updates).Error; err != nil {
		logger.Error("document transition failed",
			zap.String("document_id", documentID),
			zap.String("from", record.Status),
			zap.String("to", to),
			zap.Error(err))
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

package status

import "time"

// 文档状态常量
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusIndexed    = "indexed"
	StatusFailed     = "failed"
)

// DocumentRecord 文档状态记录
// 显式持久化每个文档的生命周期状态，不再靠"是否出现在向量索引里"推断
type DocumentRecord struct {
	DocumentID string    `gorm:"primaryKey;size:64" json:"document_id"`
	Category   string    `gorm:"size:64;index" json:"category"`
	BlobKey    string    `gorm:"size:128" json:"blob_key"`
	Status     string    `gorm:"size:16;index" json:"status"`
	ChunkCount int       `json:"chunk_count"`
	LastError  string    `gorm:"size:1024" json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (DocumentRecord) TableName() string {
	return "documents"
}

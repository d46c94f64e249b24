package vector

import "context"

// Chunk 写入向量索引的单元
// ID由文档标识+块序号确定性派生，跨文档不冲突，upsert按ID幂等
type Chunk struct {
	ID         string
	DocumentID string
	Category   string
	Text       string
	Vector     []float32
}

// Match 检索命中结果
type Match struct {
	Text       string
	DocumentID string
	Category   string
	Score      float64
}

// SearchRequest 向量检索请求
type SearchRequest struct {
	Collection string
	Vector     []float32
	TopK       int
	// Categories 非空时按category做in-set元数据过滤
	Categories []string
	// ScoreThreshold 仅返回相似度 >= 阈值的结果，零命中返回空列表而非错误
	ScoreThreshold float64
}

// Store 向量索引抽象
// Upsert以整批为单位：部分失败视为整批失败，不留下半写状态
type Store interface {
	Upsert(ctx context.Context, collection string, chunks []Chunk) error
	Search(ctx context.Context, req SearchRequest) ([]Match, error)
	ListCollections(ctx context.Context) ([]string, error)
	Ready() bool
}

package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docuflow/backend-go/internal/logger"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Database   string
	VectorSize int
	UseTLS     bool
	Timeout    time.Duration
}

type milvusStore struct {
	milvusClient client.Client
	vectorSize   int
	ensured      sync.Map // collection name -> struct{}
}

// NewMilvusStore 创建Milvus向量存储
func NewMilvusStore(opts MilvusOptions) (Store, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	milvusClient, err := client.NewClient(ctx, client.Config{
		Address:       opts.Address,
		DBName:        opts.Database,
		Username:      opts.Username,
		Password:      opts.Password,
		EnableTLSAuth: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	return &milvusStore{
		milvusClient: milvusClient,
		vectorSize:   opts.VectorSize,
	}, nil
}

// ensureCollection 确保集合存在且已加载
func (s *milvusStore) ensureCollection(ctx context.Context, name string) error {
	if _, ok := s.ensured.Load(name); ok {
		return nil
	}

	hasCollection, err := s.milvusClient.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !hasCollection {
		schema := &entity.Schema{
			CollectionName: name,
			Description:    "Master index of document chunks",
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": "128",
					},
				},
				{
					Name:     "document_id",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "64",
					},
				},
				{
					Name:     "category",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "64",
					},
				},
				{
					Name:     "content",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "65535",
					},
				},
				{
					Name:     "vector",
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", s.vectorSize),
					},
				},
			},
		}

		if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		index, indexErr := vectorIndex()
		if indexErr != nil {
			return fmt.Errorf("failed to create index: %w", indexErr)
		}
		if err := s.milvusClient.CreateIndex(ctx, name, "vector", index, false); err != nil {
			// 索引创建失败不影响使用，只记录警告
			logger.Warn("failed to create index for collection",
				zap.String("collection", name), zap.Error(err))
		}
	}

	if err := s.milvusClient.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	s.ensured.Store(name, struct{}{})
	return nil
}

// Upsert 整批写入，按chunk ID幂等，重复处理同一文档不产生重复条目
func (s *milvusStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("upsert batch is empty")
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	documentIDs := make([]string, len(chunks))
	categories := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))

	for i, chunk := range chunks {
		if len(chunk.Vector) != s.vectorSize {
			return fmt.Errorf("chunk %s vector size %d does not match collection dim %d",
				chunk.ID, len(chunk.Vector), s.vectorSize)
		}
		ids[i] = chunk.ID
		documentIDs[i] = chunk.DocumentID
		categories[i] = chunk.Category
		contents[i] = chunk.Text
		vectors[i] = chunk.Vector
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnVarChar("document_id", documentIDs),
		entity.NewColumnVarChar("category", categories),
		entity.NewColumnVarChar("content", contents),
		entity.NewColumnFloatVector("vector", s.vectorSize, vectors),
	}

	if _, err := s.milvusClient.Upsert(ctx, collection, "", columns...); err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, collection, false); err != nil {
		// 刷新失败不影响写入，只记录警告
		logger.Warn("failed to flush collection",
			zap.String("collection", collection), zap.Error(err))
	}

	return nil
}

// Search 近邻检索，按相似度降序返回，阈值过滤在客户端完成
func (s *milvusStore) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if err := s.ensureCollection(ctx, req.Collection); err != nil {
		return nil, err
	}
	if req.TopK <= 0 {
		req.TopK = 3
	}

	expr := categoryFilterExpr(req.Categories)

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	queryVector := entity.FloatVector(req.Vector)

	searchResults, err := s.milvusClient.Search(
		ctx,
		req.Collection,
		[]string{},
		expr,
		[]string{"document_id", "category", "content"},
		[]entity.Vector{queryVector},
		"vector",
		entity.COSINE,
		req.TopK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []Match{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []Match{}, nil
	}

	var documentIDs, categories, contents []string
	for _, field := range result.Fields {
		col, ok := field.(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		switch field.Name() {
		case "document_id":
			documentIDs = col.Data()
		case "category":
			categories = col.Data()
		case "content":
			contents = col.Data()
		}
	}

	matches := make([]Match, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		score := float64(0)
		if i < len(result.Scores) {
			score = float64(result.Scores[i])
		}
		if score < req.ScoreThreshold {
			continue
		}

		match := Match{Score: score}
		if i < len(documentIDs) {
			match.DocumentID = documentIDs[i]
		}
		if i < len(categories) {
			match.Category = categories[i]
		}
		if i < len(contents) {
			match.Text = contents[i]
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// ListCollections 列出全部集合名
func (s *milvusStore) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := s.milvusClient.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *milvusStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}

// vectorIndex 构建向量索引定义，HNSW不可用时退回IVF_FLAT
func vectorIndex() (entity.Index, error) {
	if hnsw, err := entity.NewIndexHNSW(entity.COSINE, 8, 64); err == nil {
		return hnsw, nil
	}
	return entity.NewIndexIvfFlat(entity.COSINE, 128)
}

// categoryFilterExpr 构建category的in-set过滤表达式，空集合不过滤
func categoryFilterExpr(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = strconv.Quote(c)
	}
	return fmt.Sprintf("category in [%s]", strings.Join(quoted, ", "))
}

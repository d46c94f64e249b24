package rag

import (
	"context"
	"strings"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/embedding"
	apperrors "github.com/docuflow/backend-go/internal/errors"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/docuflow/backend-go/internal/metrics"
	"github.com/docuflow/backend-go/internal/vector"
	"go.uber.org/zap"
)

// NoMatchAnswer 阈值下零命中时的固定回答，这不是错误
const NoMatchAnswer = "I did not find any documents matching this query (match confidence too low)."

// QueryRequest 问答请求
type QueryRequest struct {
	Question   string   `json:"question" validate:"required"`
	Categories []string `json:"categories_to_search"`
}

// QueryResponse 问答响应
type QueryResponse struct {
	Answer            string   `json:"answer"`
	SourceDocumentIDs []string `json:"source_files"`
}

// Service RAG查询编排器
// 流程：问题向量化 -> 向量检索(k/阈值/类目过滤) -> 选择提示词 -> 生成 -> 来源归集
type Service struct {
	embedder  embedding.Embedder
	store     vector.Store
	generator Generator

	collection string
	topK       int
	threshold  float64
	ai         config.AIConfig
}

// NewService 创建查询服务
func NewService(embedder embedding.Embedder, store vector.Store, generator Generator, cfg *config.Config) *Service {
	topK := cfg.Knowledge.SearchTopK
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder:   embedder,
		store:      store,
		generator:  generator,
		collection: cfg.Vector.Collection,
		topK:       topK,
		threshold:  cfg.Knowledge.ScoreThreshold,
		ai:         cfg.AI,
	}
}

// Answer 执行一次RAG问答
// 检索或生成环节的任何失败都以单一的"检索/生成失败"错误上抛，不返回部分答案
func (s *Service) Answer(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	log := logger.GetLogger().With(
		zap.String("question", req.Question),
		zap.Strings("categories", req.Categories))
	log.Info("rag query received")

	resp, err := s.answer(ctx, log, req)
	if err != nil {
		metrics.QueryFailures.Inc()
		log.Error("rag query failed", zap.Error(err))
		return nil, apperrors.NewExternalError("retrieval/generation failed").WithCause(err)
	}

	metrics.QueriesServed.Inc()
	return resp, nil
}

func (s *Service) answer(ctx context.Context, log *zap.Logger, req QueryRequest) (*QueryResponse, error) {
	// 问题向量化
	embedCtx, cancel := context.WithTimeout(ctx, s.ai.RequestTimeout())
	queryVector, err := s.embedder.Embed(embedCtx, req.Question)
	cancel()
	if err != nil {
		return nil, err
	}

	// 检索：空类目集合不过滤，检索整个集合
	matches, err := s.store.Search(ctx, vector.SearchRequest{
		Collection:     s.collection,
		Vector:         queryVector,
		TopK:           s.topK,
		Categories:     req.Categories,
		ScoreThreshold: s.threshold,
	})
	if err != nil {
		return nil, err
	}

	// 零命中短路：固定回答+空来源，不调用生成模型
	if len(matches) == 0 {
		log.Info("no matches above threshold, short-circuiting")
		return &QueryResponse{
			Answer:            NoMatchAnswer,
			SourceDocumentIDs: []string{},
		}, nil
	}

	// 提示词选择依据调用方传入的类目集合，而非命中结果中的类目
	promptName, template := SelectPrompt(req.Categories)
	log.Info("prompt selected", zap.String("prompt", promptName))

	contextText := concatMatches(matches)
	systemPrompt := RenderPrompt(template, contextText)

	genCtx, cancel := context.WithTimeout(ctx, s.ai.RequestTimeout())
	answer, err := s.generator.Generate(genCtx, systemPrompt, req.Question)
	cancel()
	if err != nil {
		return nil, err
	}

	return &QueryResponse{
		Answer:            answer,
		SourceDocumentIDs: distinctSources(matches),
	}, nil
}

// concatMatches 将命中片段拼接为生成上下文
func concatMatches(matches []vector.Match) string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n\n")
}

// distinctSources 收集实际用作上下文的命中结果的去重文档标识，保持首次出现顺序
func distinctSources(matches []vector.Match) []string {
	seen := make(map[string]struct{}, len(matches))
	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.DocumentID == "" {
			continue
		}
		if _, ok := seen[m.DocumentID]; ok {
			continue
		}
		seen[m.DocumentID] = struct{}{}
		sources = append(sources, m.DocumentID)
	}
	return sources
}

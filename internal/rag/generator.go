package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/docuflow/backend-go/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// Generator 答案生成接口（远端生成模型协作方边界）
type Generator interface {
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
	Ready() bool
}

// NoopGenerator 默认占位实现
type NoopGenerator struct{}

func (n *NoopGenerator) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	return "", errors.New("generation provider not configured")
}

func (n *NoopGenerator) Ready() bool {
	return false
}

// OpenAIGenerator 使用OpenAI Chat Completion生成答案
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIGenerator 创建答案生成器
func NewOpenAIGenerator(cfg config.AIConfig) Generator {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return &NoopGenerator{}
	}

	model := cfg.GenerationModel
	if model == "" {
		model = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	// 稍高的温度有利于从OCR噪声文本中推理重建信息
	temperature := float32(cfg.Temperature)
	if temperature <= 0 {
		temperature = 0.8
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	if g.client == nil {
		return "", errors.New("openai client not initialized")
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation response empty")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Ready() bool {
	return g.client != nil
}

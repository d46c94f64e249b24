package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/docuflow/backend-go/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JobPayload 摄取任务载荷，上传触发方与worker之间的契约
type JobPayload struct {
	DocumentID     string    `json:"document_id"`
	Category       string    `json:"category"`
	BlobKey        string    `json:"blob_key"`
	Attempts       int       `json:"attempts"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
	TimeoutSeconds int       `json:"timeout_seconds"`
}

// Validate 校验任务载荷
func (p *JobPayload) Validate() error {
	if p.DocumentID == "" {
		return fmt.Errorf("job payload missing document_id")
	}
	if p.BlobKey == "" {
		return fmt.Errorf("job payload missing blob_key")
	}
	return nil
}

// Timeout 单任务执行超时
func (p *JobPayload) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Handler 任务处理函数
type Handler func(ctx context.Context, payload JobPayload) error

// Queue 基于Redis List的任务队列
// 投递语义为至少一次：worker崩溃或失败重投会导致同一文档被重复处理，
// 下游依赖确定性chunk id的幂等upsert保证重复处理不产生重复索引
type Queue struct {
	client *redis.Client
	name   string
}

// New 创建任务队列
func New(cfg config.RedisConfig, name string) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		DB:   cfg.DB,
	})
	return &Queue{
		client: client,
		name:   name,
	}
}

// Ping 检查Redis连通性
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue 投递摄取任务
func (q *Queue) Enqueue(ctx context.Context, payload JobPayload) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	if payload.EnqueuedAt.IsZero() {
		payload.EnqueuedAt = time.Now()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.Info("ingestion job enqueued",
		zap.String("queue", q.name),
		zap.String("document_id", payload.DocumentID),
		zap.String("category", payload.Category))
	return nil
}

// Work 阻塞消费任务直到ctx取消
// 失败任务按NextAttempt重新入队，超过maxAttempts后放弃并交由handler侧记录失败
func (q *Queue) Work(ctx context.Context, maxAttempts int, handler Handler) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	logger.Info("queue worker started", zap.String("queue", q.name))

	for {
		select {
		case <-ctx.Done():
			logger.Info("queue worker stopped", zap.String("queue", q.name))
			return nil
		default:
		}

		result, err := q.client.BRPop(ctx, 5*time.Second, q.name).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("failed to pop job from queue", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var payload JobPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			logger.Error("discarding malformed job payload", zap.Error(err))
			continue
		}
		if err := payload.Validate(); err != nil {
			logger.Error("discarding invalid job payload", zap.Error(err))
			continue
		}

		payload.Attempts++

		jobCtx, cancel := context.WithTimeout(ctx, payload.Timeout())
		err = handler(jobCtx, payload)
		cancel()

		if err == nil {
			continue
		}

		if Retryable(payload, maxAttempts) {
			logger.Warn("job failed, requeueing",
				zap.String("document_id", payload.DocumentID),
				zap.Int("attempts", payload.Attempts),
				zap.Error(err))
			if enqErr := q.Enqueue(ctx, payload); enqErr != nil {
				logger.Error("failed to requeue job",
					zap.String("document_id", payload.DocumentID),
					zap.Error(enqErr))
			}
			continue
		}

		logger.Error("job failed permanently",
			zap.String("document_id", payload.DocumentID),
			zap.String("category", payload.Category),
			zap.Int("attempts", payload.Attempts),
			zap.Error(err))
	}
}

// Retryable 判断失败任务是否还能重投
func Retryable(payload JobPayload, maxAttempts int) bool {
	return payload.Attempts < maxAttempts
}

// Close 关闭Redis连接
func (q *Queue) Close() error {
	return q.client.Close()
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docuflow/backend-go/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentTypePDF 上传仅接受PDF
const ContentTypePDF = "application/pdf"

// BlobStore MinIO对象存储，按key存取文档原始字节
type BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore 创建MinIO存储实例
func NewBlobStore(cfg config.ObjectStorageConfig) (*BlobStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}

	// 移除协议前缀（如果有），minio.New 不需要协议
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// ObjectKey 文档在bucket中的key格式：{documentId}.pdf
func ObjectKey(documentID string) string {
	if strings.HasSuffix(documentID, ".pdf") {
		return documentID
	}
	return documentID + ".pdf"
}

// EnsureBucket 确保bucket存在，不存在则创建
func (s *BlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put 写入对象
func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Get 读取对象全部字节
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// FGet 下载对象到本地文件（摄取任务用临时副本）
func (s *BlobStore) FGet(ctx context.Context, key, path string) error {
	if err := s.client.FGetObject(ctx, s.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download object %s: %w", key, err)
	}
	return nil
}

// Stream 以流方式读取对象，调用方负责Close
func (s *BlobStore) Stream(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return obj, stat.Size, nil
}

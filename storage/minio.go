package storage

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ArtistStudio/config"
	"ArtistStudio/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const headerChecksumSHA256 = "x-amz-checksum-sha256"

// MinioStore signs uploads against a MinIO (or any S3 compatible) endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewMinioClient 创建 MinIO 客户端，不访问网络
func NewMinioClient(cfg *config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}
	return client, nil
}

// NewMinioStore connects to MinIO and makes sure the bucket exists.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("[Storage] 正在连接 MinIO 服务器...",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[Storage] 成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	return newMinioStore(client, cfg.MinioBucket), nil
}

func newMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, now: time.Now}
}

// PresignPut signs a PUT bound to content type, length and checksum.
func (s *MinioStore) PresignPut(ctx context.Context, req PutRequest) (*PresignedPut, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", req.ContentType)
	headers.Set("Content-Length", strconv.FormatInt(req.ContentLength, 10))
	if req.ChecksumSHA256 != "" {
		headers.Set(headerChecksumSHA256, req.ChecksumSHA256)
	}

	issuedAt := s.now()
	u, err := s.client.PresignHeader(ctx, http.MethodPut, s.bucket, req.Key, req.Expires, nil, headers)
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", req.Key, err)
	}

	out := &PresignedPut{
		URL:       u.String(),
		Method:    http.MethodPut,
		Headers:   make(map[string]string, len(headers)),
		ExpiresAt: issuedAt.Add(req.Expires),
	}
	for k := range headers {
		out.Headers[k] = headers.Get(k)
	}
	return out, nil
}

// StatObject reports the stored size and type of key.
func (s *MinioStore) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return &ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
	}, nil
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

// RemoveObject deletes key; a missing object is not an error.
func (s *MinioStore) RemoveObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ArtistStudio/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store signs uploads with the AWS SDK presign client.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	now       func() time.Time
}

// NewS3Store loads the default AWS config for cfg.S3Region.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3Store(awsCfg, cfg.S3Bucket, cfg.S3Endpoint, cfg.S3UsePathStyle), nil
}

func newS3Store(awsCfg aws.Config, bucket, endpoint string, pathStyle bool) *S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		now:       time.Now,
	}
}

// PresignPut signs a PutObject request bound to content type, length and checksum.
func (s *S3Store) PresignPut(ctx context.Context, req PutRequest) (*PresignedPut, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(req.Key),
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.ContentLength),
	}
	if req.ChecksumSHA256 != "" {
		input.ChecksumSHA256 = aws.String(req.ChecksumSHA256)
	}

	issuedAt := s.now()
	presigned, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(req.Expires))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", req.Key, err)
	}

	out := &PresignedPut{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   make(map[string]string, len(presigned.SignedHeader)),
		ExpiresAt: issuedAt.Add(req.Expires),
	}
	for k := range presigned.SignedHeader {
		if http.CanonicalHeaderKey(k) == "Host" {
			continue
		}
		out.Headers[k] = presigned.SignedHeader.Get(k)
	}
	return out, nil
}

// StatObject issues a HeadObject for key.
func (s *S3Store) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("head object %s: %w", key, err)
	}
	info := &ObjectInfo{Key: key, Size: aws.ToInt64(out.ContentLength), ContentType: aws.ToString(out.ContentType)}
	if out.LastModified != nil {
		info.LastModified = *out.LastModified
	}
	return info, nil
}

// RemoveObject deletes key from the bucket.
func (s *S3Store) RemoveObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"devforum/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// avatarCacheControl 头像按对象名去重，可以让 CDN 缓存较长时间。
const avatarCacheControl = "public, max-age=86400"

type s3ClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

// s3Storage serves both AWS S3 and S3-compatible stores such as Cloudflare R2.
type s3Storage struct {
	remoteObject
	client *s3.Client
	bucket string
}

// NewS3Storage 创建 Amazon S3 (或兼容服务) 存储。
func NewS3Storage(cfg config.Config) (Storage, error) {
	bucket, err := required("S3", "bucket", cfg.StorageS3Bucket)
	if err != nil {
		return nil, err
	}
	region, err := required("S3", "region", cfg.StorageS3Region)
	if err != nil {
		return nil, err
	}
	accessKey, secretKey, err := credentialPair("S3", cfg.StorageS3AccessKeyID, cfg.StorageS3SecretAccessKey)
	if err != nil {
		return nil, err
	}

	client := newS3Client(s3ClientOptions{
		Region:          region,
		Endpoint:        cfg.StorageS3Endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		SessionToken:    strings.TrimSpace(cfg.StorageS3SessionToken),
		ForcePathStyle:  cfg.StorageS3ForcePathStyle,
	})
	return &s3Storage{
		remoteObject: remoteObject{prefix: trimPrefix(cfg.StorageS3Prefix)},
		client:       client,
		bucket:       bucket,
	}, nil
}

// NewR2Storage 创建 Cloudflare R2 存储，未配置 endpoint 时由 account id 推导。
func NewR2Storage(cfg config.Config) (Storage, error) {
	bucket, err := required("R2", "bucket", cfg.StorageR2Bucket)
	if err != nil {
		return nil, err
	}
	accessKey, secretKey, err := credentialPair("R2", cfg.StorageR2AccessKeyID, cfg.StorageR2SecretAccessKey)
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimSpace(cfg.StorageR2Endpoint)
	if endpoint == "" {
		accountID, err := required("R2", "endpoint or account id", cfg.StorageR2AccountID)
		if err != nil {
			return nil, err
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}
	region := strings.TrimSpace(cfg.StorageR2Region)
	if region == "" {
		region = "auto"
	}

	client := newS3Client(s3ClientOptions{
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		ForcePathStyle:  true,
	})
	return &s3Storage{
		remoteObject: remoteObject{prefix: trimPrefix(cfg.StorageR2Prefix)},
		client:       client,
		bucket:       bucket,
	}, nil
}

func newS3Client(opts s3ClientOptions) *s3.Client {
	awsCfg := aws.Config{
		Region: opts.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		),
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})
}

func (s *s3Storage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, objectName, err := s.newKey(ctx, data, opts)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectName),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentTypeFor(opts)),
		CacheControl:  aws.String(avatarCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

// Delete removes key. S3 answers 204 for missing keys, other compatible
// stores may answer 404 which is ignored as well.
func (s *s3Storage) Delete(ctx context.Context, key string) error {
	objectName, err := s.existingKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectName),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "notfound", "nosuchkey", "404":
			return true
		}
	}
	return false
}

var _ Storage = (*s3Storage)(nil)

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/aiflow/backend-go/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Location 对象存储中的一个对象
type S3Location struct {
	Bucket string
	Key    string
}

// ParseS3URL 识别指向S3或配置的对象存储端点的URL。
// 支持 s3://bucket/key、虚拟主机风格 (bucket.s3.region.amazonaws.com/key、bucket.endpoint/key)
// 和路径风格 (s3.region.amazonaws.com/bucket/key、endpoint/bucket/key)
func ParseS3URL(rawURL, endpoint string) (S3Location, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return S3Location{}, false
	}
	objectPath := strings.TrimPrefix(u.Path, "/")
	if strings.EqualFold(u.Scheme, "s3") {
		return S3Location{Bucket: u.Host, Key: objectPath}, objectPath != ""
	}
	host := strings.ToLower(u.Hostname())

	if endpoint != "" {
		endpointHost := strings.ToLower(hostOf(endpoint))
		if host == endpointHost {
			return splitPathStyle(objectPath)
		}
		if strings.HasSuffix(host, "."+endpointHost) {
			bucket := strings.TrimSuffix(host, "."+endpointHost)
			return S3Location{Bucket: bucket, Key: objectPath}, objectPath != ""
		}
	}

	if !strings.HasSuffix(host, ".amazonaws.com") {
		return S3Location{}, false
	}
	labels := strings.Split(strings.TrimSuffix(host, ".amazonaws.com"), ".")
	for i, label := range labels {
		if label != "s3" && !strings.HasPrefix(label, "s3-") {
			continue
		}
		if i == 0 {
			return splitPathStyle(objectPath)
		}
		bucket := strings.Join(labels[:i], ".")
		return S3Location{Bucket: bucket, Key: objectPath}, objectPath != ""
	}
	return S3Location{}, false
}

func splitPathStyle(objectPath string) (S3Location, bool) {
	bucket, key, ok := strings.Cut(objectPath, "/")
	if !ok || bucket == "" || key == "" {
		return S3Location{}, false
	}
	return S3Location{Bucket: bucket, Key: key}, true
}

func hostOf(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.Hostname()
		}
	}
	host, _, _ := strings.Cut(endpoint, "/")
	if h, _, ok := strings.Cut(host, ":"); ok {
		return h
	}
	return host
}

// S3Source 通过MinIO客户端读取对象存储中的文档
type S3Source struct {
	client   *minio.Client
	config   config.S3Config
	maxBytes atomic.Int64
}

// NewS3Source 创建S3文档来源
func NewS3Source(cfg config.S3Config, limits config.ProcessorConfig) (*S3Source, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint not configured")
	}

	// minio.New 不需要协议前缀
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &S3Source{
		client: client,
		config: cfg,
	}
	s.SetLimits(limits)
	return s, nil
}

// SetLimits 更新对象大小上限
func (s *S3Source) SetLimits(limits config.ProcessorConfig) {
	s.maxBytes.Store(limits.MaxFileSizeBytes())
}

// Endpoint 返回配置的端点
func (s *S3Source) Endpoint() string {
	return s.config.Endpoint
}

// HealthCheck 检查对象存储是否可访问
func (s *S3Source) HealthCheck(ctx context.Context) error {
	if s.config.Bucket == "" {
		_, err := s.client.ListBuckets(ctx)
		return err
	}
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.config.Bucket)
	}
	return nil
}

// Fetch 读取对象。对象不存在时返回 StatusCode 404 而不是错误
func (s *S3Source) Fetch(ctx context.Context, loc S3Location) (*Result, error) {
	info, err := s.client.StatObject(ctx, loc.Bucket, loc.Key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode != 0 {
			return &Result{StatusCode: resp.StatusCode, Source: SourceS3}, nil
		}
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	maxBytes := s.maxBytes.Load()
	if maxBytes > 0 && info.Size > maxBytes {
		return nil, ErrTooLarge
	}

	object, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", loc.Bucket, loc.Key, err)
	}
	defer object.Close()

	body, err := readLimited(object, maxBytes)
	if err != nil {
		return nil, err
	}

	return &Result{
		StatusCode:  http.StatusOK,
		ContentType: info.ContentType,
		Body:        body,
		Source:      SourceS3,
	}, nil
}

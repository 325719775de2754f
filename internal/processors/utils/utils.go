package utils

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/fetch"
	"github.com/google/uuid"
)

// SizeProber 探测远程文件大小
type SizeProber interface {
	ContentLength(ctx context.Context, rawURL string) (length int64, known bool, err error)
}

// IsValidURL 只接受带主机名的 http/https 绝对地址
func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}

// IsS3URI 判断是否为 s3://bucket/key 形式的对象地址
func IsS3URI(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Scheme, "s3") {
		return false
	}
	_, ok := fetch.ParseS3URL(rawURL, "")
	return ok
}

// IsS3File 判断URL是否指向S3或配置的对象存储端点
func IsS3File(rawURL, endpoint string) bool {
	_, ok := fetch.ParseS3URL(rawURL, endpoint)
	return ok
}

// MaxFileSizeMB 返回当前配置的文件大小上限（MB）
func MaxFileSizeMB() int {
	return config.Get().Processor.MaxFileSizeMB
}

// IsAcceptedURLFileSize 远程文件大小不超过上限时返回true。
// 服务器未提供长度时视为可接受，下载时仍会受同一上限约束
func IsAcceptedURLFileSize(ctx context.Context, prober SizeProber, rawURL string, maxBytes int64) (bool, error) {
	length, known, err := prober.ContentLength(ctx, rawURL)
	if err != nil {
		return false, err
	}
	if !known {
		return true, nil
	}
	return length <= maxBytes, nil
}

// CreateTempFileWithBytesContent 在新建的临时目录中写入内容，
// 返回文件路径和删除整个目录的清理函数
func CreateTempFileWithBytesContent(baseDir string, content []byte) (string, func(), error) {
	dir, err := os.MkdirTemp(baseDir, "aiflow-doc-")
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() {
		_ = os.RemoveAll(dir)
	}

	path := filepath.Join(dir, uuid.NewString())
	if err := os.WriteFile(path, content, 0o600); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, cleanup, nil
}

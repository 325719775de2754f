package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aiflow/backend-go/internal/config"
)

// ErrTooLarge 响应体超过大小上限
var ErrTooLarge = errors.New("response body exceeds size limit")

// 来源标签
const (
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Result 一次抓取的结果。StatusCode 不是200时 Body 为空
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Source      string
}

// HTTPFetcher 通过HTTP下载远程文档
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  atomic.Int64
	userAgent string
}

// NewHTTPFetcher 创建HTTP抓取器
func NewHTTPFetcher(cfg config.ProcessorConfig) *HTTPFetcher {
	return NewHTTPFetcherWithClient(&http.Client{Timeout: cfg.FetchTimeout}, cfg)
}

// NewHTTPFetcherWithClient 使用指定的http.Client创建抓取器
func NewHTTPFetcherWithClient(client *http.Client, cfg config.ProcessorConfig) *HTTPFetcher {
	c := *client
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	f := &HTTPFetcher{
		client:    &c,
		userAgent: cfg.UserAgent,
	}
	f.SetLimits(cfg)
	return f
}

// SetLimits 更新下载大小上限，配置热更新时调用
func (f *HTTPFetcher) SetLimits(cfg config.ProcessorConfig) {
	f.maxBytes.Store(cfg.MaxFileSizeBytes())
}

// ContentLength 用HEAD请求探测文件大小。服务器未返回长度时 known 为 false
func (f *HTTPFetcher) ContentLength(ctx context.Context, rawURL string) (length int64, known bool, err error) {
	req, err := f.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return 0, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("failed to make HEAD request: %w", err)
	}
	defer resp.Body.Close()

	// 部分服务器不支持HEAD，交给下载时的大小限制处理
	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return 0, false, nil
	}
	return resp.ContentLength, true, nil
}

// Fetch 下载文档，响应体超过上限时返回 ErrTooLarge
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, err := f.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: MediaType(resp.Header.Get("Content-Type")),
		Source:      SourceHTTP,
	}
	if resp.StatusCode != http.StatusOK {
		return result, nil
	}

	body, err := readLimited(resp.Body, f.maxBytes.Load())
	if err != nil {
		return nil, err
	}
	result.Body = body
	return result, nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	return req, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}

package extension

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/fetch"
	"github.com/aiflow/backend-go/internal/loaders"
	"github.com/aiflow/backend-go/internal/logger"
	"github.com/aiflow/backend-go/internal/processors"
	"github.com/aiflow/backend-go/internal/processors/utils"
	"go.uber.org/zap"
)

// DocumentToTextType 处理器类型
const DocumentToTextType = "document-to-text-processor"

const documentURLField = "document_url"

// 返回给前端的错误信息
const (
	msgInvalidURL      = "Invalid URL"
	msgFileTooLarge    = "File size is too large (Max : %d)"
	msgBadStatusCode   = "Check the url of your file; returned status code %d"
	msgUnsupportedType = "The file type is not supported."
)

// HTTPSource 通过HTTP获取文档
type HTTPSource interface {
	ContentLength(ctx context.Context, rawURL string) (length int64, known bool, err error)
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// ObjectSource 从对象存储获取文档
type ObjectSource interface {
	Endpoint() string
	Fetch(ctx context.Context, loc fetch.S3Location) (*fetch.Result, error)
}

// FetchObserver 接收下载量统计
type FetchObserver interface {
	ObserveFetch(source string, bytes int)
}

// Environment 文档处理器的运行依赖
type Environment struct {
	HTTP HTTPSource
	// S3 为空时S3地址也走HTTP下载
	S3 ObjectSource
	// S3Endpoint 未配置S3客户端时用于识别自建对象存储地址
	S3Endpoint string
	// Limits 每次运行时读取，支持配置热更新
	Limits   func() config.ProcessorConfig
	Logger   *zap.Logger
	Observer FetchObserver
}

func (e Environment) limits() config.ProcessorConfig {
	if e.Limits != nil {
		return e.Limits()
	}
	return config.Get().Processor
}

func (e Environment) endpoint() string {
	if e.S3 != nil {
		return e.S3.Endpoint()
	}
	return e.S3Endpoint
}

// DocumentToTextNodeConfig 文档转文本节点的界面配置
func DocumentToTextNodeConfig() processors.NodeConfig {
	return processors.NewNodeConfigBuilder().
		SetNodeName("DocumentToText").
		SetProcessorType(DocumentToTextType).
		SetIcon("FaFile").
		SetSection("tools").
		SetHelpMessage("documentToTextHelp").
		SetShowHandles(true).
		SetOutputType("text").
		AddField(processors.NewFieldBuilder().
			SetName(documentURLField).
			SetLabel(documentURLField).
			SetType("textfield").
			SetRequired(true).
			SetPlaceholder("URLPlaceholder").
			SetHasHandle(true).
			MustBuild()).
		MustBuild()
}

// DocumentToTextProcessor 下载远程文档并提取文本
type DocumentToTextProcessor struct {
	processors.BasicProcessor
	env    Environment
	logger *zap.Logger
}

// NewDocumentToTextFactory 返回绑定了运行依赖的处理器工厂
func NewDocumentToTextFactory(env Environment) processors.Factory {
	return func(cfg processors.ProcessorConfig) (processors.Processor, error) {
		return NewDocumentToTextProcessor(cfg, env), nil
	}
}

// NewDocumentToTextProcessor 创建文档转文本处理器
func NewDocumentToTextProcessor(cfg processors.ProcessorConfig, env Environment) *DocumentToTextProcessor {
	log := env.Logger
	if log == nil {
		log = logger.Named("document-to-text")
	}
	return &DocumentToTextProcessor{
		BasicProcessor: processors.NewBasicProcessor(cfg),
		env:            env,
		logger:         log,
	}
}

func (p *DocumentToTextProcessor) ProcessorType() string {
	return DocumentToTextType
}

func (p *DocumentToTextProcessor) NodeConfig() processors.NodeConfig {
	return DocumentToTextNodeConfig()
}

// DocumentURL 返回节点的文档地址
func (p *DocumentToTextProcessor) DocumentURL() string {
	url, _ := p.InputByName(documentURLField)
	return url
}

// CacheKey 同一地址的提取结果可以复用
func (p *DocumentToTextProcessor) CacheKey() string {
	return p.DocumentURL()
}

// Process 下载文档，返回第一个文档的文本。加载失败或没有内容时返回nil
func (p *DocumentToTextProcessor) Process(ctx context.Context) (*string, error) {
	documentURL := p.DocumentURL()
	// s3:// 地址只能通过对象存储读取
	s3URI := utils.IsS3URI(documentURL) && p.env.S3 != nil
	if !s3URI && !utils.IsValidURL(documentURL) {
		return nil, errors.NewProcessingError(errors.ErrCodeInvalidURL, msgInvalidURL)
	}

	limits := p.env.limits()
	location, isS3 := fetch.ParseS3URL(documentURL, p.env.endpoint())

	if !isS3 {
		accepted, err := utils.IsAcceptedURLFileSize(ctx, p.env.HTTP, documentURL, limits.MaxFileSizeBytes())
		if err != nil {
			return nil, errors.NewExternalError(errors.ErrCodeFetchFailed, "failed to reach document url").WithCause(err)
		}
		if !accepted {
			return nil, tooLarge(limits)
		}
	}

	result, err := p.fetch(ctx, documentURL, location, isS3)
	if err != nil {
		if stderrors.Is(err, fetch.ErrTooLarge) {
			return nil, tooLarge(limits)
		}
		return nil, errors.NewExternalError(errors.ErrCodeFetchFailed, "failed to download document").WithCause(err)
	}
	if result.StatusCode != http.StatusOK {
		return nil, errors.NewProcessingError(errors.ErrCodeFetchFailed, fmt.Sprintf(msgBadStatusCode, result.StatusCode))
	}

	mediaType := result.ContentType
	if isS3 {
		// 对象存储的Content-Type不可靠，不做校验
		mediaType = fetch.GuessMediaType(result.ContentType, documentURL)
	} else if !loaders.IsSupported(mediaType) {
		return nil, errors.NewProcessingError(errors.ErrCodeUnsupportedMediaType, msgUnsupportedType)
	}

	if p.env.Observer != nil {
		p.env.Observer.ObserveFetch(result.Source, len(result.Body))
	}

	path, cleanup, err := utils.CreateTempFileWithBytesContent(limits.TempDir, result.Body)
	if err != nil {
		return nil, errors.NewSystemError(errors.ErrCodeInternalServer, "failed to store document").WithCause(err)
	}
	defer cleanup()

	return p.extract(ctx, documentURL, mediaType, path), nil
}

func (p *DocumentToTextProcessor) fetch(ctx context.Context, documentURL string, location fetch.S3Location, isS3 bool) (*fetch.Result, error) {
	if isS3 && p.env.S3 != nil {
		return p.env.S3.Fetch(ctx, location)
	}
	return p.env.HTTP.Fetch(ctx, documentURL)
}

func (p *DocumentToTextProcessor) extract(ctx context.Context, documentURL, mediaType, path string) *string {
	fields := []zap.Field{
		zap.String("node", p.Name()),
		zap.String("url", documentURL),
		zap.String("mime_type", mediaType),
	}

	loader := loaders.ForMimeType(mediaType, path, loaders.Options{SourceURL: documentURL})
	if loader == nil {
		p.logger.Warn("No loader for document type", fields...)
		return nil
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		p.logger.Warn("Failed to load document", append(fields, zap.Error(err))...)
		return nil
	}
	if len(docs) == 0 {
		p.logger.Debug("Document has no content", fields...)
		return nil
	}

	text := docs[0].PageContent
	return &text
}

func tooLarge(limits config.ProcessorConfig) *errors.AppError {
	return errors.NewProcessingError(errors.ErrCodeFileTooLarge, fmt.Sprintf(msgFileTooLarge, limits.MaxFileSizeMB))
}

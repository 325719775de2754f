package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aiflow/backend-go/internal/constants"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/metrics"
	"github.com/aiflow/backend-go/internal/processors"
	"go.uber.org/zap"
)

// RunRequest 处理器执行请求体
type RunRequest struct {
	Name    string                 `json:"name"`
	Inputs  map[string]interface{} `json:"inputs"`
	Fields  map[string]interface{} `json:"fields"`
	APIKeys map[string]string      `json:"apiKeys"`
}

// RunResult 处理器执行结果，Output 为 nil 表示没有输出
type RunResult struct {
	Output *string `json:"output"`
}

// TextCache 处理结果缓存
type TextCache interface {
	Get(ctx context.Context, processorType, key string) (string, bool, error)
	Set(ctx context.Context, processorType, key, text string) error
}

// RunRecorder 记录处理器运行指标
type RunRecorder interface {
	RecordRun(processorType, status string, duration time.Duration)
}

// ProcessorService 处理器执行服务
type ProcessorService struct {
	registry *processors.Registry
	cache    TextCache
	metrics  RunRecorder
	envKeys  func() map[string]string
	logger   *zap.Logger
}

// NewProcessorService 创建处理器执行服务。cache 和 recorder 可以为 nil
func NewProcessorService(
	registry *processors.Registry,
	cache TextCache,
	recorder RunRecorder,
	envKeys func() map[string]string,
	logger *zap.Logger,
) *ProcessorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if envKeys == nil {
		envKeys = func() map[string]string { return nil }
	}
	return &ProcessorService{
		registry: registry,
		cache:    cache,
		metrics:  recorder,
		envKeys:  envKeys,
		logger:   logger,
	}
}

// NodeConfigs 返回所有已注册节点的界面配置
func (s *ProcessorService) NodeConfigs() []processors.NodeConfig {
	return s.registry.NodeConfigs()
}

// NodeConfig 返回单个节点的界面配置
func (s *ProcessorService) NodeConfig(processorType string) (processors.NodeConfig, error) {
	cfg, err := s.registry.NodeConfig(processorType)
	if err != nil {
		return processors.NodeConfig{}, notFound(processorType)
	}
	return cfg, nil
}

// Run 创建并执行处理器
func (s *ProcessorService) Run(ctx context.Context, userID, processorType string, req RunRequest) (*RunResult, error) {
	start := time.Now()
	log := s.logger.With(
		zap.String("processor_type", processorType),
		zap.String("node", req.Name),
		zap.String("user_id", userID),
	)

	processor, err := s.registry.Create(processors.ProcessorConfig{
		Name:          req.Name,
		ProcessorType: processorType,
		Fields:        req.Fields,
		Inputs:        req.Inputs,
		APIKeys:       s.mergeAPIKeys(req.APIKeys),
	})
	if err != nil {
		if stderrors.Is(err, processors.ErrProcessorNotFound) {
			return nil, notFound(processorType)
		}
		return nil, errors.NewSystemError(errors.ErrCodeInternalServer, "failed to create processor").WithCause(err)
	}

	cacheKey := ""
	if c, ok := processor.(processors.Cacheable); ok && s.cache != nil {
		cacheKey = c.CacheKey()
	}
	if cacheKey != "" {
		text, found, err := s.cache.Get(ctx, processorType, cacheKey)
		if err != nil {
			log.Warn("Failed to read processor cache", zap.Error(err))
		} else if found {
			s.record(processorType, metrics.StatusCached, start)
			log.Debug("Processor output served from cache")
			return &RunResult{Output: &text}, nil
		}
	}

	output, err := processor.Process(ctx)
	if err != nil {
		s.record(processorType, metrics.StatusError, start)
		log.Info("Processor failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.NewSystemError(errors.ErrCodeInternalServer, "processor failed").WithCause(err)
	}

	if output == nil {
		s.record(processorType, metrics.StatusEmpty, start)
		log.Info("Processor produced no output", zap.Duration("duration", time.Since(start)))
		return &RunResult{}, nil
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, processorType, cacheKey, *output); err != nil {
			log.Warn("Failed to write processor cache", zap.Error(err))
		}
	}
	s.record(processorType, metrics.StatusSuccess, start)
	log.Info("Processor finished",
		zap.Int("output_length", len(*output)),
		zap.Duration("duration", time.Since(start)),
	)
	return &RunResult{Output: output}, nil
}

// mergeAPIKeys 请求中的密钥优先，缺失的由环境变量补齐
func (s *ProcessorService) mergeAPIKeys(requestKeys map[string]string) map[string]string {
	merged := make(map[string]string, len(constants.EnvAPIKeys))
	for name, value := range requestKeys {
		if value != "" {
			merged[name] = value
		}
	}

	envKeys := s.envKeys()
	for _, name := range constants.EnvAPIKeys {
		if merged[name] != "" {
			continue
		}
		if value := envKeys[name]; value != "" {
			merged[name] = value
		}
	}
	return merged
}

func (s *ProcessorService) record(processorType, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRun(processorType, status, time.Since(start))
	}
}

func notFound(processorType string) *errors.AppError {
	return errors.NewBusinessError(errors.ErrCodeProcessorNotFound, fmt.Sprintf("processor type %s not found", processorType))
}

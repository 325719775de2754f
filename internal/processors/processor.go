package processors

import (
	"context"
	"fmt"
	"strings"
)

// ProcessorConfig 一个节点实例的运行时配置
type ProcessorConfig struct {
	// Name 节点在流程中的名称
	Name          string `json:"name"`
	ProcessorType string `json:"processorType"`
	// Fields 用户在节点上填写的字段值
	Fields map[string]interface{} `json:"fields,omitempty"`
	// Inputs 上游节点通过连线传入的值，优先于 Fields
	Inputs  map[string]interface{} `json:"inputs,omitempty"`
	APIKeys map[string]string      `json:"-"`
}

// Processor 图中的一个节点：把输入转换为输出
type Processor interface {
	ProcessorType() string
	NodeConfig() NodeConfig
	// Process 执行节点。返回 nil 表示没有输出
	Process(ctx context.Context) (*string, error)
}

// Cacheable 输出只取决于缓存键的处理器
type Cacheable interface {
	CacheKey() string
}

// Factory 根据节点配置创建处理器实例
type Factory func(cfg ProcessorConfig) (Processor, error)

// BasicProcessor 提供输入读取等公共能力，具体处理器通过嵌入使用
type BasicProcessor struct {
	config ProcessorConfig
}

// NewBasicProcessor 创建基础处理器
func NewBasicProcessor(cfg ProcessorConfig) BasicProcessor {
	return BasicProcessor{config: cfg}
}

// Config 返回节点配置
func (p BasicProcessor) Config() ProcessorConfig {
	return p.config
}

// Name 返回节点名称
func (p BasicProcessor) Name() string {
	return p.config.Name
}

// InputByName 先查找连线输入，再查找字段值
func (p BasicProcessor) InputByName(name string) (string, bool) {
	if v, ok := lookup(p.config.Inputs, name); ok {
		return v, true
	}
	return lookup(p.config.Fields, name)
}

// APIKey 返回指定提供商的API密钥
func (p BasicProcessor) APIKey(name string) string {
	if p.config.APIKeys == nil {
		return ""
	}
	return p.config.APIKeys[name]
}

func lookup(values map[string]interface{}, name string) (string, bool) {
	if values == nil {
		return "", false
	}
	raw, ok := values[name]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), true
	case []byte:
		return strings.TrimSpace(string(v)), true
	case []interface{}:
		// 上游节点可能输出列表，取第一个元素
		if len(v) == 0 || v[0] == nil {
			return "", false
		}
		return strings.TrimSpace(fmt.Sprint(v[0])), true
	default:
		return fmt.Sprint(v), true
	}
}

package processors

import (
	"errors"
	"fmt"
	"sync"
)

// ErrProcessorNotFound 请求的处理器类型未注册
var ErrProcessorNotFound = errors.New("processor not found")

// registryEntry 注册表条目
type registryEntry struct {
	factory    Factory
	nodeConfig NodeConfig
}

// Registry 处理器注册表，按处理器类型索引
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	order   []string
}

// NewRegistry 创建处理器注册表
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
	}
}

// Register 注册处理器。工厂会用空配置调用一次以读取节点元数据
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return errors.New("nil processor factory")
	}
	prototype, err := factory(ProcessorConfig{})
	if err != nil {
		return fmt.Errorf("failed to create processor prototype: %w", err)
	}

	processorType := prototype.ProcessorType()
	nodeConfig := prototype.NodeConfig()
	if processorType == "" {
		return ErrProcessorTypeRequired
	}
	if nodeConfig.ProcessorType != processorType {
		return fmt.Errorf("processor %s declares node config for %s", processorType, nodeConfig.ProcessorType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[processorType]; exists {
		return fmt.Errorf("processor %s already registered", processorType)
	}
	r.entries[processorType] = &registryEntry{
		factory:    factory,
		nodeConfig: nodeConfig,
	}
	r.order = append(r.order, processorType)

	return nil
}

// MustRegister 与 Register 相同，出错时panic
func (r *Registry) MustRegister(factory Factory) {
	if err := r.Register(factory); err != nil {
		panic(err)
	}
}

// Has 检查处理器类型是否已注册
func (r *Registry) Has(processorType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[processorType]
	return ok
}

// NodeConfigs 按注册顺序返回所有节点配置
func (r *Registry) NodeConfigs() []NodeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]NodeConfig, 0, len(r.order))
	for _, processorType := range r.order {
		configs = append(configs, r.entries[processorType].nodeConfig)
	}
	return configs
}

// NodeConfig 返回指定处理器的节点配置
func (r *Registry) NodeConfig(processorType string) (NodeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[processorType]
	if !ok {
		return NodeConfig{}, fmt.Errorf("%w: %s", ErrProcessorNotFound, processorType)
	}
	return entry.nodeConfig, nil
}

// Create 为节点配置创建处理器实例
func (r *Registry) Create(cfg ProcessorConfig) (Processor, error) {
	r.mu.RLock()
	entry, ok := r.entries[cfg.ProcessorType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, cfg.ProcessorType)
	}
	return entry.factory(cfg)
}

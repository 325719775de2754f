package di

import (
	"fmt"

	"github.com/aiflow/backend-go/internal/config"
	"go.uber.org/dig"
)

// Container 是依赖注入容器的全局实例
var Container *dig.Container

// InitContainer 创建容器并注册所有依赖
func InitContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()
	if err := RegisterProviders(container, cfg); err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}
	Container = container
	return container, nil
}

// Invoke 在全局容器上调用函数
func Invoke(function interface{}, opts ...dig.InvokeOption) error {
	if Container == nil {
		return fmt.Errorf("di container not initialized")
	}
	return Container.Invoke(function, opts...)
}

package extension

import "github.com/aiflow/backend-go/internal/processors"

// RegisterAll 注册扩展处理器
func RegisterAll(registry *processors.Registry, env Environment) error {
	return registry.Register(NewDocumentToTextFactory(env))
}

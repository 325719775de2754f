package processors

import (
	"errors"
	"fmt"
)

var (
	ErrFieldNameRequired     = errors.New("field name is required")
	ErrFieldTypeRequired     = errors.New("field type is required")
	ErrNodeNameRequired      = errors.New("node name is required")
	ErrProcessorTypeRequired = errors.New("processor type is required")
	ErrOutputTypeRequired    = errors.New("output type is required")
)

// FieldBuilder 以链式调用构建 Field
type FieldBuilder struct {
	field Field
}

// NewFieldBuilder 创建字段构建器
func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{}
}

func (b *FieldBuilder) SetName(name string) *FieldBuilder {
	b.field.Name = name
	return b
}

func (b *FieldBuilder) SetLabel(label string) *FieldBuilder {
	b.field.Label = label
	return b
}

func (b *FieldBuilder) SetType(fieldType string) *FieldBuilder {
	b.field.Type = fieldType
	return b
}

func (b *FieldBuilder) SetRequired(required bool) *FieldBuilder {
	b.field.Required = required
	return b
}

func (b *FieldBuilder) SetPlaceholder(placeholder string) *FieldBuilder {
	b.field.Placeholder = placeholder
	return b
}

func (b *FieldBuilder) SetHasHandle(hasHandle bool) *FieldBuilder {
	b.field.HasHandle = hasHandle
	return b
}

func (b *FieldBuilder) AddOption(label, value string, isDefault bool) *FieldBuilder {
	b.field.Options = append(b.field.Options, Option{Label: label, Value: value, Default: isDefault})
	return b
}

func (b *FieldBuilder) SetDefaultValue(value interface{}) *FieldBuilder {
	b.field.DefaultValue = value
	return b
}

// Build 校验并返回字段，未设置label时使用name
func (b *FieldBuilder) Build() (Field, error) {
	if b.field.Name == "" {
		return Field{}, ErrFieldNameRequired
	}
	if b.field.Type == "" {
		return Field{}, fmt.Errorf("%w: %s", ErrFieldTypeRequired, b.field.Name)
	}

	field := b.field
	if field.Label == "" {
		field.Label = field.Name
	}
	if len(b.field.Options) > 0 {
		field.Options = append([]Option(nil), b.field.Options...)
	}
	return field, nil
}

// MustBuild 与 Build 相同，出错时panic，用于静态声明的节点
func (b *FieldBuilder) MustBuild() Field {
	field, err := b.Build()
	if err != nil {
		panic(err)
	}
	return field
}

// NodeConfigBuilder 以链式调用构建 NodeConfig
type NodeConfigBuilder struct {
	config NodeConfig
}

// NewNodeConfigBuilder 创建节点配置构建器
func NewNodeConfigBuilder() *NodeConfigBuilder {
	return &NodeConfigBuilder{}
}

func (b *NodeConfigBuilder) SetNodeName(name string) *NodeConfigBuilder {
	b.config.NodeName = name
	return b
}

func (b *NodeConfigBuilder) SetProcessorType(processorType string) *NodeConfigBuilder {
	b.config.ProcessorType = processorType
	return b
}

func (b *NodeConfigBuilder) SetIcon(icon string) *NodeConfigBuilder {
	b.config.Icon = icon
	return b
}

func (b *NodeConfigBuilder) SetSection(section string) *NodeConfigBuilder {
	b.config.Section = section
	return b
}

func (b *NodeConfigBuilder) SetHelpMessage(message string) *NodeConfigBuilder {
	b.config.HelpMessage = message
	return b
}

func (b *NodeConfigBuilder) SetShowHandles(show bool) *NodeConfigBuilder {
	b.config.ShowHandles = show
	return b
}

func (b *NodeConfigBuilder) SetOutputType(outputType string) *NodeConfigBuilder {
	b.config.OutputType = outputType
	return b
}

func (b *NodeConfigBuilder) AddInputName(name string) *NodeConfigBuilder {
	b.config.InputNames = append(b.config.InputNames, name)
	return b
}

func (b *NodeConfigBuilder) AddField(field Field) *NodeConfigBuilder {
	b.config.Fields = append(b.config.Fields, field)
	return b
}

// Build 校验必填项后返回节点配置
func (b *NodeConfigBuilder) Build() (NodeConfig, error) {
	if b.config.NodeName == "" {
		return NodeConfig{}, ErrNodeNameRequired
	}
	if b.config.ProcessorType == "" {
		return NodeConfig{}, fmt.Errorf("%w: %s", ErrProcessorTypeRequired, b.config.NodeName)
	}
	if b.config.OutputType == "" {
		return NodeConfig{}, fmt.Errorf("%w: %s", ErrOutputTypeRequired, b.config.NodeName)
	}

	seen := make(map[string]struct{}, len(b.config.Fields))
	for _, f := range b.config.Fields {
		if _, dup := seen[f.Name]; dup {
			return NodeConfig{}, fmt.Errorf("duplicate field %q in node %s", f.Name, b.config.NodeName)
		}
		seen[f.Name] = struct{}{}
	}

	config := b.config
	config.Fields = append([]Field{}, b.config.Fields...)
	if len(b.config.InputNames) > 0 {
		config.InputNames = append([]string(nil), b.config.InputNames...)
	}
	return config, nil
}

// MustBuild 与 Build 相同，出错时panic
func (b *NodeConfigBuilder) MustBuild() NodeConfig {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}

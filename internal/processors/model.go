package processors

// Option 下拉类字段的可选项
type Option struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Default bool   `json:"default,omitempty"`
}

// Field 节点上一个可配置输入的UI描述
type Field struct {
	Name         string      `json:"name"`
	Label        string      `json:"label"`
	Type         string      `json:"type"`
	Required     bool        `json:"required"`
	Placeholder  string      `json:"placeholder,omitempty"`
	HasHandle    bool        `json:"hasHandle"`
	Options      []Option    `json:"options,omitempty"`
	DefaultValue interface{} `json:"defaultValue,omitempty"`
}

// NodeConfig 图编辑器渲染一个处理器节点所需的元数据
type NodeConfig struct {
	NodeName      string   `json:"nodeName"`
	ProcessorType string   `json:"processorType"`
	Icon          string   `json:"icon,omitempty"`
	Section       string   `json:"section,omitempty"`
	HelpMessage   string   `json:"helpMessage,omitempty"`
	ShowHandles   bool     `json:"showHandlesNames"`
	InputNames    []string `json:"inputNames,omitempty"`
	OutputType    string   `json:"outputType"`
	Fields        []Field  `json:"fields"`
}

// Field 按名称查找字段
func (n NodeConfig) Field(name string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

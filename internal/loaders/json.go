package loaders

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// JSONLoader 按gjson路径取值，数组中的每个元素生成一个文档
type JSONLoader struct {
	FilePath string
	Source   string
	Path     string
}

func (l *JSONLoader) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("读取JSON文件失败: %w", err)
	}
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("无效的JSON: %s", l.FilePath)
	}

	var result gjson.Result
	if l.Path == "" {
		result = gjson.ParseBytes(content)
	} else {
		result = gjson.GetBytes(content, l.Path)
		if !result.Exists() {
			return nil, nil
		}
	}

	var docs []Document
	add := func(value gjson.Result) {
		text := gjson.Get(value.Raw, "@ugly").Raw
		if value.Type == gjson.String {
			text = value.String()
		}
		meta := metadata(l.FilePath, l.Source)
		meta["seq_num"] = len(docs) + 1
		docs = append(docs, Document{PageContent: text, Metadata: meta})
	}

	if result.IsArray() {
		result.ForEach(func(_, value gjson.Result) bool {
			add(value)
			return true
		})
	} else {
		add(result)
	}

	return docs, nil
}

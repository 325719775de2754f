package loaders

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"
)

// TextLoader 把整个文本文件作为一个文档
type TextLoader struct {
	FilePath string
	Source   string
}

func (l *TextLoader) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("文件不是有效的UTF-8文本: %s", l.FilePath)
	}

	return []Document{{
		PageContent: string(content),
		Metadata:    metadata(l.FilePath, l.Source),
	}}, nil
}

package loaders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVLoader 每一行生成一个文档，内容为 "列名: 值" 的多行文本
type CSVLoader struct {
	FilePath  string
	Source    string
	Delimiter rune
}

func (l *CSVLoader) Load(ctx context.Context) ([]Document, error) {
	f, err := os.Open(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("读取CSV文件失败: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	if l.Delimiter != 0 {
		reader.Comma = l.Delimiter
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("解析CSV表头失败: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var docs []Document
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析CSV第%d行失败: %w", row+1, err)
		}

		lines := make([]string, 0, len(record))
		for i, value := range record {
			name := fmt.Sprintf("column_%d", i)
			if i < len(header) && header[i] != "" {
				name = header[i]
			}
			lines = append(lines, fmt.Sprintf("%s: %s", name, strings.TrimSpace(value)))
		}

		meta := metadata(l.FilePath, l.Source)
		meta["row"] = row
		docs = append(docs, Document{
			PageContent: strings.Join(lines, "\n"),
			Metadata:    meta,
		})
	}

	return docs, nil
}

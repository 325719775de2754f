package loaders

import (
	"context"
	"sort"
)

// MIME类型
const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
	MimeCSV  = "text/csv"
	MimeHTML = "text/html"
	MimeJSON = "application/json"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Document 加载器输出的一段文本及其元数据
type Document struct {
	PageContent string                 `json:"pageContent"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Loader 从本地文件加载文档
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Options 创建加载器时的可选参数
type Options struct {
	// SourceURL 文件的原始地址，写入元数据，HTML加载器用它解析相对链接
	SourceURL string
	// JSONPath gjson路径，为空时使用整个JSON文档
	JSONPath string
}

type constructor func(path string, opts Options) Loader

var constructors = map[string]constructor{
	MimePDF: func(path string, opts Options) Loader {
		return &PDFLoader{FilePath: path, Source: opts.SourceURL}
	},
	MimeText: func(path string, opts Options) Loader {
		return &TextLoader{FilePath: path, Source: opts.SourceURL}
	},
	MimeCSV: func(path string, opts Options) Loader {
		return &CSVLoader{FilePath: path, Source: opts.SourceURL}
	},
	MimeHTML: func(path string, opts Options) Loader {
		return &HTMLLoader{FilePath: path, Source: opts.SourceURL}
	},
	MimeJSON: func(path string, opts Options) Loader {
		return &JSONLoader{FilePath: path, Source: opts.SourceURL, Path: opts.JSONPath}
	},
	MimeDocx: func(path string, opts Options) Loader {
		return &DocxLoader{FilePath: path, Source: opts.SourceURL}
	},
	MimeXlsx: func(path string, opts Options) Loader {
		return &XlsxLoader{FilePath: path, Source: opts.SourceURL}
	},
}

// ForMimeType 返回与MIME类型对应的加载器，不支持时返回nil
func ForMimeType(mimeType, path string, opts Options) Loader {
	newLoader, ok := constructors[mimeType]
	if !ok {
		return nil
	}
	return newLoader(path, opts)
}

// IsSupported 检查MIME类型是否有对应的加载器
func IsSupported(mimeType string) bool {
	_, ok := constructors[mimeType]
	return ok
}

// SupportedMimeTypes 返回排序后的受支持MIME类型
func SupportedMimeTypes() []string {
	types := make([]string, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func metadata(filePath, source string) map[string]interface{} {
	if source == "" {
		source = filePath
	}
	return map[string]interface{}{"source": source}
}

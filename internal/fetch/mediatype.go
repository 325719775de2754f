package fetch

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/plain",
	".csv":  "text/csv",
	".htm":  "text/html",
	".html": "text/html",
	".json": "application/json",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// MediaType 规范化Content-Type，去掉charset等参数
func MediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// GuessMediaType 对象存储常返回通用二进制类型，此时按文件扩展名推断
func GuessMediaType(contentType, rawURL string) string {
	mediaType := MediaType(contentType)
	switch mediaType {
	case "", "application/octet-stream", "binary/octet-stream":
	default:
		return mediaType
	}

	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return MediaType(t)
	}
	return mediaType
}

package loaders

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// HTMLLoader 用readability提取正文，失败时退回到整个body的文本
type HTMLLoader struct {
	FilePath string
	Source   string
}

func (l *HTMLLoader) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("读取HTML文件失败: %w", err)
	}

	title, text := l.readable(content)
	if text == "" {
		title, text, err = bodyText(content)
		if err != nil {
			return nil, err
		}
	}
	if text == "" {
		return nil, nil
	}

	meta := metadata(l.FilePath, l.Source)
	if title != "" {
		meta["title"] = title
	}
	return []Document{{PageContent: text, Metadata: meta}}, nil
}

func (l *HTMLLoader) readable(content []byte) (string, string) {
	pageURL, err := url.Parse(l.Source)
	if err != nil || pageURL.Host == "" {
		pageURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(content), pageURL)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(article.Title), normalizeText(article.TextContent)
}

func bodyText(content []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", "", fmt.Errorf("解析HTML失败: %w", err)
	}
	doc.Find("script,style,noscript,template").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return title, normalizeText(body.Text()), nil
}

// normalizeText 去掉行尾空白并压缩多余空行
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

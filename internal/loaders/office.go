package loaders

import (
	"context"
	"fmt"
	"os"
	"strings"

	officelicense "github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/spreadsheet"
	pdflicense "github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// SetLicenseKey 为PDF和Office解析库设置计量许可证
func SetLicenseKey(key string) error {
	if key == "" {
		return nil
	}
	if err := pdflicense.SetMeteredKey(key); err != nil {
		return fmt.Errorf("设置unipdf许可证失败: %w", err)
	}
	if err := officelicense.SetMeteredKey(key); err != nil {
		return fmt.Errorf("设置unioffice许可证失败: %w", err)
	}
	return nil
}

// PDFLoader 把所有页面的文本合并为一个文档
type PDFLoader struct {
	FilePath string
	Source   string
}

func (l *PDFLoader) Load(ctx context.Context) ([]Document, error) {
	f, err := os.Open(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("读取PDF文件失败: %w", err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("解析PDF失败: %w", err)
	}

	encrypted, err := pdfReader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("检查PDF加密状态失败: %w", err)
	}
	if encrypted {
		ok, err := pdfReader.Decrypt([]byte(""))
		if err != nil || !ok {
			return nil, fmt.Errorf("PDF已加密，无法读取")
		}
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("获取PDF页数失败: %w", err)
	}

	// 单页失败时跳过该页，全部失败时返回最后一个错误
	var textBuilder strings.Builder
	var lastErr error
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := pageText(pdfReader, i)
		if err != nil {
			lastErr = err
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	content := strings.TrimSpace(textBuilder.String())
	if content == "" {
		if lastErr != nil {
			return nil, fmt.Errorf("提取PDF文本失败: %w", lastErr)
		}
		return nil, nil
	}

	meta := metadata(l.FilePath, l.Source)
	meta["pages"] = numPages
	return []Document{{PageContent: content, Metadata: meta}}, nil
}

func pageText(reader *model.PdfReader, pageNum int) (string, error) {
	page, err := reader.GetPage(pageNum)
	if err != nil {
		return "", fmt.Errorf("读取第%d页失败: %w", pageNum, err)
	}
	ex, err := extractor.New(page)
	if err != nil {
		return "", fmt.Errorf("第%d页: %w", pageNum, err)
	}
	text, err := ex.ExtractText()
	if err != nil {
		return "", fmt.Errorf("第%d页: %w", pageNum, err)
	}
	return text, nil
}

// DocxLoader 提取Word文档中的段落和表格文本
type DocxLoader struct {
	FilePath string
	Source   string
}

func (l *DocxLoader) Load(ctx context.Context) ([]Document, error) {
	doc, err := document.Open(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("解析Word文档失败: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	writeParagraph := func(para document.Paragraph) {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	for _, para := range doc.Paragraphs() {
		writeParagraph(para)
	}
	for _, table := range doc.Tables() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, row := range table.Rows() {
			cells := make([]string, 0, len(row.Cells()))
			for _, cell := range row.Cells() {
				var cellText []string
				for _, para := range cell.Paragraphs() {
					var sb strings.Builder
					for _, run := range para.Runs() {
						sb.WriteString(run.Text())
					}
					cellText = append(cellText, sb.String())
				}
				cells = append(cells, strings.Join(cellText, " "))
			}
			textBuilder.WriteString(strings.Join(cells, "\t"))
			textBuilder.WriteString("\n")
		}
	}

	content := strings.TrimSpace(textBuilder.String())
	if content == "" {
		return nil, nil
	}
	return []Document{{PageContent: content, Metadata: metadata(l.FilePath, l.Source)}}, nil
}

// XlsxLoader 每个工作表生成一个文档，单元格以制表符分隔
type XlsxLoader struct {
	FilePath string
	Source   string
}

func (l *XlsxLoader) Load(ctx context.Context) ([]Document, error) {
	ss, err := spreadsheet.Open(l.FilePath)
	if err != nil {
		return nil, fmt.Errorf("解析Excel文档失败: %w", err)
	}
	defer ss.Close()

	var docs []Document
	for _, sheet := range ss.Sheets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var textBuilder strings.Builder
		for _, row := range sheet.Rows() {
			var rowText []string
			for _, cell := range row.Cells() {
				rowText = append(rowText, cell.GetString())
			}
			if len(rowText) > 0 {
				textBuilder.WriteString(strings.Join(rowText, "\t"))
				textBuilder.WriteString("\n")
			}
		}

		content := strings.TrimSpace(textBuilder.String())
		if content == "" {
			continue
		}
		meta := metadata(l.FilePath, l.Source)
		meta["sheet"] = sheet.Name()
		docs = append(docs, Document{PageContent: content, Metadata: meta})
	}

	return docs, nil
}

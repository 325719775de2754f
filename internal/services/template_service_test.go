package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aiflow/backend-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTemplateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "summarize.json", `{
		"id": "summarize-pdf",
		"title": "Summarize a PDF",
		"description": "Extract text from a document and summarize it",
		"tags": ["Document", "GPT"],
		"flow": [{"name": "doc-1", "processorType": "document-to-text-processor"}]
	}`)
	writeTemplate(t, dir, "image.json", `{
		"title": "Generate an image",
		"tags": ["Image"],
		"flow": [{"name": "img-1", "processorType": "stable-diffusion-processor"}]
	}`)
	writeTemplate(t, dir, "broken.json", `{"title": `)
	writeTemplate(t, dir, "noflow.json", `{"title": "No flow"}`)
	writeTemplate(t, dir, "readme.txt", "ignored")
	return dir
}

func TestTemplateService_List(t *testing.T) {
	service := NewTemplateService(newTemplateDir(t), nil)

	templates, err := service.List("")
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "Generate an image", templates[0].Title)
	assert.Equal(t, "image", templates[0].ID)
	assert.Equal(t, "summarize-pdf", templates[1].ID)
}

func TestTemplateService_ListByTag(t *testing.T) {
	service := NewTemplateService(newTemplateDir(t), nil)

	templates, err := service.List("document")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "summarize-pdf", templates[0].ID)

	templates, err = service.List("Audio")
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestTemplateService_Get(t *testing.T) {
	service := NewTemplateService(newTemplateDir(t), nil)

	tpl, err := service.Get("summarize-pdf")
	require.NoError(t, err)
	assert.Equal(t, "Summarize a PDF", tpl.Title)
	assert.JSONEq(t, `[{"name": "doc-1", "processorType": "document-to-text-processor"}]`, string(tpl.Flow))

	_, err = service.Get("missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestTemplateService_MissingDir(t *testing.T) {
	service := NewTemplateService(filepath.Join(t.TempDir(), "nope"), nil)

	templates, err := service.List("")
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestTemplateService_Reload(t *testing.T) {
	dir := t.TempDir()
	service := NewTemplateService(dir, nil)

	templates, err := service.List("")
	require.NoError(t, err)
	assert.Empty(t, templates)

	writeTemplate(t, dir, "new.json", `{"title": "New", "flow": []}`)
	require.NoError(t, service.Reload())

	templates, err = service.List("")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "new", templates[0].ID)
}

package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aiflow/backend-go/internal/errors"
	"go.uber.org/zap"
)

// TemplateSummary 模板列表项
type TemplateSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Template 完整模板，Flow 为编辑器可以直接导入的流程JSON
type Template struct {
	TemplateSummary
	Flow json.RawMessage `json:"flow"`
}

// TemplateService 从目录读取流程模板，每个 .json 文件一个模板
type TemplateService struct {
	dir    string
	logger *zap.Logger

	mu        sync.RWMutex
	templates map[string]Template
	loaded    bool
}

// NewTemplateService 创建模板服务
func NewTemplateService(dir string, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{dir: dir, logger: logger}
}

// Reload 重新读取模板目录。目录不存在时模板列表为空
func (s *TemplateService) Reload() error {
	templates := make(map[string]Template)

	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("invalid templates dir %s: %w", s.dir, err)
	}

	for _, path := range paths {
		tpl, err := readTemplate(path)
		if err != nil {
			s.logger.Warn("Skipping invalid template", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, dup := templates[tpl.ID]; dup {
			s.logger.Warn("Duplicate template id", zap.String("id", tpl.ID), zap.String("path", path))
			continue
		}
		templates[tpl.ID] = tpl
	}

	s.mu.Lock()
	s.templates = templates
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("Templates loaded", zap.String("dir", s.dir), zap.Int("count", len(templates)))
	return nil
}

// List 按标题返回模板，tag 非空时只返回带该标签的模板
func (s *TemplateService) List(tag string) ([]TemplateSummary, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]TemplateSummary, 0, len(s.templates))
	for _, tpl := range s.templates {
		if tag != "" && !hasTag(tpl.Tags, tag) {
			continue
		}
		result = append(result, tpl.TemplateSummary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Title != result[j].Title {
			return result[i].Title < result[j].Title
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Get 返回包含流程数据的模板
func (s *TemplateService) Get(id string) (*Template, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	tpl, ok := s.templates[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("template %s", id))
	}
	return &tpl, nil
}

func (s *TemplateService) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	if err := s.Reload(); err != nil {
		return errors.NewSystemError(errors.ErrCodeInternalServer, "failed to load templates").WithCause(err)
	}
	return nil
}

func readTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, err
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("failed to parse template: %w", err)
	}
	if tpl.ID == "" {
		tpl.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if tpl.Title == "" {
		tpl.Title = tpl.ID
	}
	if len(tpl.Flow) == 0 {
		return Template{}, fmt.Errorf("template %s has no flow", tpl.ID)
	}
	return tpl, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

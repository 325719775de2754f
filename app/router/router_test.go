package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/di"
	"github.com/beego/beego/v2/server/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "router-test-secret"
	// 其他测试共用默认客户端IP，请求数远低于该值
	rateLimit = 20
)

var documentServer *httptest.Server

func TestMain(m *testing.M) {
	documentServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("hello from a document"))
		default:
			http.NotFound(w, r)
		}
	}))

	templatesDir, err := os.MkdirTemp("", "aiflow-templates-")
	if err != nil {
		panic(err)
	}
	template := `{"id": "summarize", "title": "Summarize", "tags": ["Document"], "flow": [{"name": "doc-1"}]}`
	if err := os.WriteFile(filepath.Join(templatesDir, "summarize.json"), []byte(template), 0o644); err != nil {
		panic(err)
	}

	cfg, err := config.NewConfigLoader().Load()
	if err != nil {
		panic(err)
	}
	cfg.Templates.Dir = templatesDir
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = testSecret
	cfg.Server.RateLimit.Requests = rateLimit
	cfg.Server.RateLimit.Window = time.Minute
	config.Set(cfg)

	if _, err := di.InitContainer(cfg); err != nil {
		panic(err)
	}
	if err := di.Invoke(Init); err != nil {
		panic(err)
	}

	code := m.Run()

	documentServer.Close()
	_ = os.RemoveAll(templatesDir)
	os.Exit(code)
}

func token(t *testing.T) string {
	t.Helper()
	service, err := auth.NewJWTService(testSecret, "aiflow", time.Hour)
	require.NoError(t, err)
	token, err := service.GenerateToken("user-1", "")
	require.NoError(t, err)
	return token
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	web.BeeApp.Handlers.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func processRequest(t *testing.T, processorType string, payload interface{}, withToken bool) *http.Request {
	t.Helper()
	var body []byte
	switch p := payload.(type) {
	case string:
		body = []byte(p)
	default:
		var err error
		body, err = json.Marshal(p)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/processors/%s/process", processorType), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		req.Header.Set("Authorization", "Bearer "+token(t))
	}
	return req
}

func TestHealth(t *testing.T) {
	w := serve(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNodeConfigs(t *testing.T) {
	w := serve(httptest.NewRequest(http.MethodGet, "/api/node/configs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	configs := decode(t, w)["data"].([]interface{})
	require.Len(t, configs, 1)
	node := configs[0].(map[string]interface{})
	assert.Equal(t, "DocumentToText", node["nodeName"])
	assert.Equal(t, "document-to-text-processor", node["processorType"])

	field := node["fields"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "document_url", field["name"])
	assert.Equal(t, true, field["hasHandle"])
}

func TestNodeConfig_NotFound(t *testing.T) {
	w := serve(httptest.NewRequest(http.MethodGet, "/api/node/configs/unknown-processor", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PROCESSOR_NOT_FOUND", decode(t, w)["code"])
}

func TestProcess_RequiresAuth(t *testing.T) {
	req := processRequest(t, "document-to-text-processor", map[string]interface{}{
		"fields": map[string]string{"document_url": documentServer.URL + "/doc.txt"},
	}, false)

	w := serve(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestProcess_DocumentToText(t *testing.T) {
	req := processRequest(t, "document-to-text-processor", map[string]interface{}{
		"name":    "doc-1",
		"fields":  map[string]string{"document_url": documentServer.URL + "/doc.txt"},
		"apiKeys": map[string]string{"openai_api_key": "sk-test"},
	}, true)

	w := serve(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "hello from a document", data["output"])
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name       string
		processor  string
		payload    interface{}
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "invalid url",
			processor:  "document-to-text-processor",
			payload:    map[string]interface{}{"fields": map[string]string{"document_url": "nope"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_URL",
			wantError:  "Invalid URL",
		},
		{
			name:       "bad status",
			processor:  "document-to-text-processor",
			payload:    map[string]interface{}{"fields": map[string]string{"document_url": documentServer.URL + "/missing.pdf"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FETCH_FAILED",
			wantError:  "Check the url of your file; returned status code 404",
		},
		{
			name:       "unknown processor",
			processor:  "unknown-processor",
			payload:    map[string]interface{}{},
			wantStatus: http.StatusNotFound,
			wantCode:   "PROCESSOR_NOT_FOUND",
		},
		{
			name:       "api keys not an object",
			processor:  "document-to-text-processor",
			payload:    `{"apiKeys": "sk-test"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "malformed json",
			processor:  "document-to-text-processor",
			payload:    `{"fields": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(processRequest(t, tt.processor, tt.payload, true))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestProcess_RateLimited(t *testing.T) {
	send := func() *httptest.ResponseRecorder {
		req := processRequest(t, "document-to-text-processor", map[string]interface{}{}, false)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		return serve(req)
	}

	// 限流在认证之前，未认证的请求同样计数
	for i := 0; i < rateLimit; i++ {
		w := send()
		require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	}

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])
	assert.Equal(t, "Rate limit exceeded", body["error"])

	// 其他客户端不受影响
	other := processRequest(t, "document-to-text-processor", map[string]interface{}{}, false)
	other.Header.Set("X-Forwarded-For", "203.0.113.8")
	assert.Equal(t, http.StatusUnauthorized, serve(other).Code)
}

func TestTemplates(t *testing.T) {
	w := serve(httptest.NewRequest(http.MethodGet, "/api/templates?tag=Document", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = serve(httptest.NewRequest(http.MethodGet, "/api/templates/summarize", nil))
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Summarize", data["title"])
	assert.NotNil(t, data["flow"])

	w = serve(httptest.NewRequest(http.MethodGet, "/api/templates/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplateFlow(t *testing.T) {
	w := serve(httptest.NewRequest(http.MethodGet, "/template/summarize", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `[{"name": "doc-1"}]`, w.Body.String())

	w = serve(httptest.NewRequest(http.MethodGet, "/template/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestMetrics(t *testing.T) {
	serve(processRequest(t, "document-to-text-processor", map[string]interface{}{
		"fields": map[string]string{"document_url": "nope"},
	}, true))

	w := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "processor_runs_total"))
	assert.True(t, strings.Contains(w.Body.String(), "app_errors_total"))
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/processors/document-to-text-processor/process", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	w := serve(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

package di

import (
	"testing"

	"github.com/aiflow/backend-go/internal/auth"
	"github.com/aiflow/backend-go/internal/cache"
	"github.com/aiflow/backend-go/internal/config"
	"github.com/aiflow/backend-go/internal/errors"
	"github.com/aiflow/backend-go/internal/fetch"
	"github.com/aiflow/backend-go/internal/processors"
	"github.com/aiflow/backend-go/internal/processors/extension"
	"github.com/aiflow/backend-go/internal/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewConfigLoader().Load()
	require.NoError(t, err)
	cfg.Templates.Dir = t.TempDir()
	return cfg
}

func TestInitContainer(t *testing.T) {
	container, err := InitContainer(testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, container, Container)

	err = Invoke(func(
		registry *processors.Registry,
		processorService *services.ProcessorService,
		templateService *services.TemplateService,
		handler *errors.ErrorHandler,
		s3 *fetch.S3Source,
		textCache *cache.TextCache,
	) {
		assert.True(t, registry.Has(extension.DocumentToTextType))
		assert.Len(t, processorService.NodeConfigs(), 1)
		assert.NotNil(t, templateService)
		assert.NotNil(t, handler)
		assert.Nil(t, s3)
		assert.False(t, textCache.Enabled())
	})
	assert.NoError(t, err)
}

func TestInitContainer_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Host = mr.Host()
	cfg.Cache.Port = mr.Port()

	container, err := InitContainer(cfg)
	require.NoError(t, err)

	err = container.Invoke(func(textCache *cache.TextCache) {
		assert.True(t, textCache.Enabled())
	})
	assert.NoError(t, err)
}

func TestInitContainer_RedisDownDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Host = "127.0.0.1"
	cfg.Cache.Port = "1"

	container, err := InitContainer(cfg)
	require.NoError(t, err)

	err = container.Invoke(func(textCache *cache.TextCache) {
		assert.False(t, textCache.Enabled())
	})
	assert.NoError(t, err)
}

func TestInitContainer_JWT(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "secret"

	container, err := InitContainer(cfg)
	require.NoError(t, err)

	err = container.Invoke(func(jwtService *auth.JWTService) {
		require.NotNil(t, jwtService)
		token, err := jwtService.GenerateToken("user-1", "")
		require.NoError(t, err)
		claims, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
	})
	assert.NoError(t, err)
}

func TestInitContainer_WithS3(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.S3.Enabled = true
	cfg.Storage.S3.Endpoint = "localhost:9000"

	container, err := InitContainer(cfg)
	require.NoError(t, err)

	err = container.Invoke(func(s3 *fetch.S3Source) {
		require.NotNil(t, s3)
		assert.Equal(t, "localhost:9000", s3.Endpoint())
	})
	assert.NoError(t, err)
}

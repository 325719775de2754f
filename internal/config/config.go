package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aiflow/backend-go/internal/constants"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Processor ProcessorConfig `mapstructure:"processor" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`

	// APIKeys 提供商API密钥，键为 constants.EnvAPIKeys 中的名称
	APIKeys map[string]string `mapstructure:"api_keys"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"required,oneof=development staging production test"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	SessionOn   bool     `mapstructure:"session_on"`
	// RateLimit 处理器接口的每IP限流，Requests 为0时关闭
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests" validate:"gte=0"`
	Window   time.Duration `mapstructure:"window"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required_if=Enabled true"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// ProcessorConfig 处理器运行限制
type ProcessorConfig struct {
	MaxFileSizeMB int           `mapstructure:"max_file_size_mb" validate:"gt=0"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	TempDir       string        `mapstructure:"temp_dir"`
	UserAgent     string        `mapstructure:"user_agent"`
	// LicenseKey UniDoc计量许可证，PDF/Office解析需要
	LicenseKey string `mapstructure:"license_key"`
}

// MaxFileSizeBytes 返回字节数形式的文件大小上限
func (p ProcessorConfig) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

// StorageConfig 存储配置
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config S3/MinIO对象存储配置
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig 提取结果缓存配置
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	DB       int           `mapstructure:"db"`
	Password string        `mapstructure:"password"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr 返回Redis地址
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Get 返回当前配置，未加载时返回默认配置
func Get() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	cfg, err := NewConfigLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

// Set 替换当前配置
func Set(cfg *Config) {
	mu.Lock()
	current = cfg
	mu.Unlock()
}

// LoadConfig 加载配置并保存为全局配置
func LoadConfig() error {
	loader := NewConfigLoader()
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	Set(cfg)
	return nil
}

// ConfigLoader 配置加载器
type ConfigLoader struct {
	viper     *viper.Viper
	validator *validator.Validate
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader() *ConfigLoader {
	v := viper.New()
	v.SetEnvPrefix("AIFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &ConfigLoader{
		viper:     v,
		validator: validator.New(),
	}
}

// Load 从默认值、环境变量和配置文件加载配置
func (cl *ConfigLoader) Load() (*Config, error) {
	cl.setDefaults()
	cl.loadFromEnv()

	// 配置文件是可选的
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		cl.viper.SetConfigFile(configFile)
		if err := cl.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return cl.decode()
}

// Watch 监听配置文件变化，仅在使用了配置文件时生效
func (cl *ConfigLoader) Watch(onChange func(*Config)) {
	if cl.viper.ConfigFileUsed() == "" {
		return
	}
	cl.viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cl.decode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config reload from %s rejected: %v\n", e.Name, err)
			return
		}
		Set(cfg)
		if onChange != nil {
			onChange(cfg)
		}
	})
	cl.viper.WatchConfig()
}

func (cl *ConfigLoader) decode() (*Config, error) {
	var cfg Config
	if err := cl.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.APIKeys == nil {
		cfg.APIKeys = make(map[string]string)
	}
	for _, name := range constants.EnvAPIKeys {
		if _, ok := cfg.APIKeys[name]; !ok {
			cfg.APIKeys[name] = cl.viper.GetString("api_keys." + name)
		}
	}

	if err := cl.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults 设置默认值
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "aiflow-backend")
	cl.viper.SetDefault("app.env", "development")

	cl.viper.SetDefault("server.port", 5000)
	cl.viper.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	cl.viper.SetDefault("server.session_on", true)
	cl.viper.SetDefault("server.rate_limit.requests", 60)
	cl.viper.SetDefault("server.rate_limit.window", "1m")

	cl.viper.SetDefault("auth.enabled", false)
	cl.viper.SetDefault("auth.jwt_secret", "")
	cl.viper.SetDefault("auth.issuer", "aiflow")
	cl.viper.SetDefault("auth.token_ttl", "24h")

	cl.viper.SetDefault("processor.max_file_size_mb", 50)
	cl.viper.SetDefault("processor.fetch_timeout", "30s")
	cl.viper.SetDefault("processor.temp_dir", "")
	cl.viper.SetDefault("processor.user_agent", "aiflow-document-fetcher/1.0")
	cl.viper.SetDefault("processor.license_key", "")

	cl.viper.SetDefault("storage.s3.enabled", false)
	cl.viper.SetDefault("storage.s3.endpoint", "")
	cl.viper.SetDefault("storage.s3.bucket", "")
	cl.viper.SetDefault("storage.s3.region", "")
	cl.viper.SetDefault("storage.s3.use_ssl", true)

	cl.viper.SetDefault("cache.enabled", false)
	cl.viper.SetDefault("cache.host", "localhost")
	cl.viper.SetDefault("cache.port", "6379")
	cl.viper.SetDefault("cache.db", 0)
	cl.viper.SetDefault("cache.ttl", "10m")

	cl.viper.SetDefault("templates.dir", "./templates")

	cl.viper.SetDefault("metrics.enabled", true)
	cl.viper.SetDefault("metrics.path", "/metrics")

	for _, name := range constants.EnvAPIKeys {
		cl.viper.SetDefault("api_keys."+name, "")
	}
}

// loadFromEnv 读取不带前缀的常用环境变量
func (cl *ConfigLoader) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		cl.viper.Set("server.port", port)
	}
	if env := os.Getenv("ENV"); env != "" {
		cl.viper.Set("app.env", env)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cl.viper.Set("auth.jwt_secret", secret)
	}
	if maxSize := os.Getenv("MAX_FILE_SIZE_MB"); maxSize != "" {
		cl.viper.Set("processor.max_file_size_mb", maxSize)
	}
	if licenseKey := os.Getenv("UNIDOC_LICENSE_API_KEY"); licenseKey != "" {
		cl.viper.Set("processor.license_key", licenseKey)
	}

	// S3配置
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cl.viper.Set("storage.s3.endpoint", endpoint)
		cl.viper.Set("storage.s3.enabled", true)
	}
	if accessKey := os.Getenv("S3_AWS_ACCESS_KEY_ID"); accessKey != "" {
		cl.viper.Set("storage.s3.access_key", accessKey)
	}
	if secretKey := os.Getenv("S3_AWS_SECRET_ACCESS_KEY"); secretKey != "" {
		cl.viper.Set("storage.s3.secret_key", secretKey)
	}
	if bucket := os.Getenv("S3_BUCKET_NAME"); bucket != "" {
		cl.viper.Set("storage.s3.bucket", bucket)
	}
	if region := os.Getenv("S3_AWS_REGION_NAME"); region != "" {
		cl.viper.Set("storage.s3.region", region)
	}

	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cl.viper.Set("cache.host", redisHost)
		cl.viper.Set("cache.enabled", true)
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		cl.viper.Set("cache.port", redisPort)
	}

	// 提供商API密钥，例如 OPENAI_API_KEY
	for _, name := range constants.EnvAPIKeys {
		if value := os.Getenv(strings.ToUpper(name)); value != "" {
			cl.viper.Set("api_keys."+name, value)
		}
	}
}

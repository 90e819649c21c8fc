package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/xandylearning/mentor-ai/backend/internal/apperr"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	Approval ApprovalConfig
}

// Load 从环境变量加载配置。缺少模型凭证时返回 *apperr.ConfigurationError。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}
	if err := ai.Validate(); err != nil {
		return nil, err
	}

	db := loadDatabaseConfig()

	redis, err := loadRedisConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	approval, err := loadApprovalConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Database: db,
		Redis:    redis,
		Log:      logCfg,
		Approval: approval,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, &apperr.ConfigurationError{Key: "PORT", Reason: fmt.Sprintf("invalid value %q", port)}
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey        string
	AccessKey     string
	SecretKey     string
	Model         string
	BaseURL       string
	Region        string
	Temperature   *float64
	TopP          *float64
	MaxTokens     *int
	Timeout       time.Duration
	RatePerMinute int
	HistoryLimit  int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// Validate 在凭证缺失时返回 ConfigurationError。
func (c AIConfig) Validate() error {
	if c.Model == "" {
		return &apperr.ConfigurationError{Key: "Model", Reason: "model endpoint id is required"}
	}
	if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
		return &apperr.ConfigurationError{Key: "ARK_API_KEY", Reason: "provide ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY"}
	}
	return nil
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	rate := 60
	if override, err := parseOptionalIntEnv("AI_RATE_PER_MINUTE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		rate = *override
	}

	history := 20
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			history = 1
		} else {
			history = *override
		}
	}

	return AIConfig{
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:         strings.TrimSpace(os.Getenv("Model")),
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:   temperature,
		TopP:          topP,
		MaxTokens:     maxTokens,
		Timeout:       timeout,
		RatePerMinute: rate,
		HistoryLimit:  history,
	}, nil
}

// DatabaseConfig 描述 sqlite 存储配置。
type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Path:        getEnvOrDefault("DB_PATH", "mentor_ai.db"),
		BusyTimeout: 5 * time.Second,
	}
}

// RedisConfig 描述风格缓存。Addr 为空时使用进程内缓存。
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StyleTTL time.Duration
}

// Enabled 表示是否配置了 Redis。
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func loadRedisConfig() (RedisConfig, error) {
	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return RedisConfig{}, err
	} else if override != nil {
		db = *override
	}

	ttl, err := parseDurationEnv("STYLE_CACHE_TTL", time.Hour)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		StyleTTL: ttl,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

func loadLogConfig() (LogConfig, error) {
	jsonOut, err := parseBoolEnv("LOG_JSON", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		File:  getEnvOrDefault("LOG_FILE", "logs/mentor_ai.log"),
		JSON:  jsonOut,
	}, nil
}

// ApprovalMode 决定 AI 回复是直接送达还是等待导师审核。
type ApprovalMode string

const (
	ApprovalAuto   ApprovalMode = "auto"
	ApprovalReview ApprovalMode = "review"
)

// ApprovalConfig 描述审核流程。
type ApprovalConfig struct {
	Mode ApprovalMode
}

// RequiresReview 表示 AI 回复是否需要人工审核。
func (c ApprovalConfig) RequiresReview() bool {
	return c.Mode == ApprovalReview
}

func loadApprovalConfig() (ApprovalConfig, error) {
	mode := ApprovalMode(strings.ToLower(getEnvOrDefault("APPROVAL_MODE", string(ApprovalAuto))))
	switch mode {
	case ApprovalAuto, ApprovalReview:
		return ApprovalConfig{Mode: mode}, nil
	default:
		return ApprovalConfig{}, &apperr.ConfigurationError{Key: "APPROVAL_MODE", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseDurationEnv 接受 Go 时长 ("90s") 或整数秒。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

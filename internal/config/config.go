package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Speech SpeechConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域白名单。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := parseListEnv("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// 可选的聊天后端。
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置,同时覆盖 Ark 与 OpenAI 兼容端点。
type AIConfig struct {
	Provider string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	Timeout        int // seconds
}

// SpeechConfig 描述语音转写服务配置。
type SpeechConfig struct {
	APIURL   string
	APIKey   string
	Model    string
	Language string
	Timeout  int // seconds
	Enabled  bool
}

// ArkEnabled 表示是否提供了 Ark 必需的凭证。
func (c AIConfig) ArkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// OpenAIEnabled 表示 OpenAI 兼容端点是否可用。
// 本地 Ollama 等自建端点不校验密钥,配置了 BaseURL 即视为可用。
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIModel != "" && (c.OpenAIAPIKey != "" || c.OpenAIBaseURL != "")
}

// ResolveProvider 返回生效的聊天后端:显式配置优先,否则按可用凭证推断。
func (c AIConfig) ResolveProvider() string {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case ProviderArk:
		return ProviderArk
	case ProviderOpenAI:
		return ProviderOpenAI
	}

	if c.OpenAIEnabled() {
		return ProviderOpenAI
	}
	if c.ArkEnabled() {
		return ProviderArk
	}
	return ""
}

// Enabled 表示是否存在可用的聊天后端。
func (c AIConfig) Enabled() bool {
	return c.ResolveProvider() != ""
}

// NewChatModel 使用 Ark 配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失,至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
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
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("CHAT_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("CHAT_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("CHAT_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("CHAT_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeout := 60
	if timeoutOverride, err := parseOptionalIntEnv("CHAT_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if timeoutOverride != nil && *timeoutOverride > 0 {
		timeout = *timeoutOverride
	}

	return AIConfig{
		Provider:       strings.TrimSpace(os.Getenv("CHAT_PROVIDER")),
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:   strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:  strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:    strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		Timeout:        timeout,
	}, nil
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30 // 默认30秒
	if timeout != nil && *timeout > 0 {
		timeoutSeconds = *timeout
	}

	apiURL := strings.TrimSpace(os.Getenv("SPEECH_API_URL"))
	apiKey := strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	if apiKey == "" {
		// 未提供专门的语音密钥时复用聊天端点的密钥。
		apiKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	// 自建转写服务(如本地 whisper)可以只配置地址不配置密钥。
	enabled := apiKey != "" || apiURL != ""

	return SpeechConfig{
		APIURL:   getEnvOrDefault("SPEECH_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		APIKey:   apiKey,
		Model:    getEnvOrDefault("SPEECH_MODEL", "whisper-1"),
		Language: strings.TrimSpace(os.Getenv("SPEECH_LANGUAGE")),
		Timeout:  timeoutSeconds,
		Enabled:  enabled,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
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

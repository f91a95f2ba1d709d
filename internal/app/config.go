package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	DBDSN string

	// Provider credentials. An empty value skips that backend; the fallback
	// chain is built from whatever is present, in fixed order.
	GeminiAPIKey    string
	GeminiModels    []string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaEndpoint  string
	OllamaModel     string

	ProviderTimeoutSecs int

	// Daily summary limit (free tier). Redis unset disables enforcement.
	RedisAddr         string
	RedisPassword     string
	SummaryDailyLimit int

	// One-off checkout. Empty key disables the billing endpoints.
	StripeSecretKey string
	SiteOrigin      string

	// Security & hardening.
	AdminToken     string   // required for /admin/v1 access
	CORSOrigins    []string // allowed CORS origins; empty = ["*"]
	RateLimitRPS   int      // requests per second per IP
	RateLimitBurst int      // burst capacity per IP

	// OpenTelemetry (opt-in).
	TracingEnabled  bool
	TracingEndpoint string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddr: getEnv("REFLECTD_LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("REFLECTD_LOG_LEVEL", "info"),
		DBDSN:      getEnv("REFLECTD_DB_DSN", "file:/data/reflectd.sqlite"),

		// GOOGLE_API_KEY is the legacy name some deployments still set.
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiModels:    getEnvStringSlice("REFLECTD_GEMINI_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash-exp", "gemini-1.5-flash"}),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("REFLECTD_OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("REFLECTD_ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		OllamaEndpoint:  getEnv("REFLECTD_OLLAMA_ENDPOINT", ""),
		OllamaModel:     getEnv("REFLECTD_OLLAMA_MODEL", "llama3.1"),

		ProviderTimeoutSecs: getEnvInt("REFLECTD_PROVIDER_TIMEOUT_SECS", 30),

		RedisAddr:         getEnv("REFLECTD_REDIS_ADDR", ""),
		RedisPassword:     getEnv("REFLECTD_REDIS_PASSWORD", ""),
		SummaryDailyLimit: getEnvInt("REFLECTD_SUMMARY_DAILY_LIMIT", 1),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		SiteOrigin:      getEnv("REFLECTD_SITE_ORIGIN", ""),

		AdminToken:     getEnv("REFLECTD_ADMIN_TOKEN", ""),
		CORSOrigins:    getEnvStringSlice("REFLECTD_CORS_ORIGINS", nil),
		RateLimitRPS:   getEnvInt("REFLECTD_RATE_LIMIT_RPS", 60),
		RateLimitBurst: getEnvInt("REFLECTD_RATE_LIMIT_BURST", 120),

		TracingEnabled:  getEnvBool("REFLECTD_TRACING_ENABLED", false),
		TracingEndpoint: getEnv("REFLECTD_TRACING_ENDPOINT", "localhost:4318"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config values for obviously invalid settings.
func (c Config) Validate() error {
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("REFLECTD_RATE_LIMIT_RPS must be > 0, got %d", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("REFLECTD_RATE_LIMIT_BURST must be > 0, got %d", c.RateLimitBurst)
	}
	if c.ProviderTimeoutSecs <= 0 {
		return fmt.Errorf("REFLECTD_PROVIDER_TIMEOUT_SECS must be > 0, got %d", c.ProviderTimeoutSecs)
	}
	if c.SummaryDailyLimit <= 0 {
		return fmt.Errorf("REFLECTD_SUMMARY_DAILY_LIMIT must be > 0, got %d", c.SummaryDailyLimit)
	}
	if c.GeminiAPIKey != "" && len(c.GeminiModels) == 0 {
		return fmt.Errorf("REFLECTD_GEMINI_MODELS must not be empty when a Gemini key is set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvStringSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return def
}

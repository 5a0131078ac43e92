package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Anthropic（本文・トピック生成）
	AnthropicAPIKey         string
	AnthropicModel          string
	AnthropicMaxTokens      int
	AnthropicTopicMaxTokens int

	// OpenAI（画像生成）
	OpenAIAPIKey     string
	OpenAIImageModel string
	OpenAIImageSize  string

	// AI共通
	AITimeout            time.Duration
	ImageMaxConcurrent   int
	ImageMaxDownloadSize int64

	// Storage
	SupabaseURL            string
	SupabaseServiceRoleKey string
	StorageBucket          string
	CleanupGracePeriod     time.Duration

	// ブログ認証情報の暗号化キー（未設定時はSESSION_SECRETから導出）
	BlogCredentialKey string

	// Rate Limit（req/min）
	RateLimitGeneral    int
	RateLimitGeneration int

	// Logging
	LogLevel slog.Level

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// CSRF
	CSRFProtection bool
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = requireEnv("DATABASE_URL", &missing)
	cfg.SessionSecret = requireEnv("SESSION_SECRET", &missing)
	cfg.BaseURL = requireEnv("BASE_URL", &missing)
	cfg.AnthropicAPIKey = requireEnv("ANTHROPIC_API_KEY", &missing)
	cfg.OpenAIAPIKey = requireEnv("OPENAI_API_KEY", &missing)
	cfg.SupabaseURL = requireEnv("SUPABASE_URL", &missing)
	cfg.SupabaseServiceRoleKey = requireEnv("SUPABASE_SERVICE_ROLE_KEY", &missing)

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.AnthropicModel = getEnvString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
	cfg.AnthropicMaxTokens = getEnvInt("ANTHROPIC_MAX_TOKENS", 10164)
	cfg.AnthropicTopicMaxTokens = getEnvInt("ANTHROPIC_TOPIC_MAX_TOKENS", 2000)
	cfg.OpenAIImageModel = getEnvString("OPENAI_IMAGE_MODEL", "dall-e-3")
	cfg.OpenAIImageSize = getEnvString("OPENAI_IMAGE_SIZE", "1024x1024")
	cfg.AITimeout = getEnvDuration("AI_TIMEOUT", 120*time.Second)
	cfg.ImageMaxConcurrent = getEnvInt("IMAGE_MAX_CONCURRENT", 5)
	cfg.ImageMaxDownloadSize = getEnvInt64("IMAGE_MAX_DOWNLOAD_SIZE", 20971520)
	cfg.StorageBucket = getEnvString("STORAGE_BUCKET", "blog-images")
	cfg.CleanupGracePeriod = getEnvDuration("CLEANUP_GRACE_PERIOD", 24*time.Hour)
	cfg.BlogCredentialKey = getEnvString("BLOG_CREDENTIAL_KEY", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitGeneration = getEnvInt("RATE_LIMIT_GENERATION", 10)
	cfg.LogLevel = getEnvLogLevel("LOG_LEVEL", slog.LevelInfo)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.CSRFProtection = getEnvBool("CSRF_PROTECTION", false)

	return cfg, nil
}

// SupabaseStorageURL はSupabase StorageのベースURLを返す。
func (c *Config) SupabaseStorageURL() string {
	return strings.TrimRight(c.SupabaseURL, "/") + "/storage/v1"
}

func requireEnv(key string, missing *[]string) string {
	v := os.Getenv(key)
	if v == "" {
		*missing = append(*missing, key)
	}
	return v
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvLogLevel は "debug" / "info" / "warn" / "error" をslog.Levelに変換する。
func getEnvLogLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-menu-kit/pkg/domain"
)

// PlaceholderAPIKey はサンプル設定に残りがちな未設定値です。
const PlaceholderAPIKey = "PASTE_YOUR_KEY_HERE"

type Config struct {
	Addr              string
	APIKey            string
	TextModel         string
	ImageModel        string
	MaxDishes         int
	MaxUploadBytes    int64
	FetchTimeout      time.Duration
	PrepareImages     bool
	ImageMaxDimension int
	ImageJPEGQuality  int
	SessionIdle       time.Duration
	LogLevel          slog.Level
}

// Load は環境変数（と存在すれば .env）から設定を読み込みます。
// API キーが無い、またはプレースホルダのままの場合は *domain.ConfigurationError を返します。
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:              ":" + getenv("PORT", "8080"),
		APIKey:            getenvFirst([]string{"GEMINI_API_KEY", "API_KEY"}, ""),
		TextModel:         getenv("TEXT_MODEL_ID", "gemini-2.0-flash"),
		ImageModel:        getenv("IMAGE_MODEL_ID", "imagen-4.0-generate-001"),
		MaxDishes:         getenvInt("MAX_DISHES", domain.MaxDishes, 1, domain.MaxDishes),
		MaxUploadBytes:    int64(getenvInt("MAX_UPLOAD_BYTES", 10<<20, 64*1024, 64<<20)),
		FetchTimeout:      time.Duration(getenvInt("MENU_FETCH_TIMEOUT_SECONDS", 30, 1, 300)) * time.Second,
		PrepareImages:     getenvBool("IMAGE_PREP_ENABLED", true),
		ImageMaxDimension: getenvInt("IMAGE_MAX_DIMENSION", 2048, 256, 8192),
		ImageJPEGQuality:  getenvInt("IMAGE_JPEG_QUALITY", 85, 1, 100),
		SessionIdle:       time.Duration(getenvInt("SESSION_IDLE_MINUTES", 60, 1, 24*60)) * time.Minute,
		LogLevel:          parseLevel(os.Getenv("LOG_LEVEL")),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate は必須項目を検証します。
func (c Config) Validate() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return &domain.ConfigurationError{Key: "GEMINI_API_KEY", Reason: "API キーが設定されていません"}
	}
	if key == PlaceholderAPIKey {
		return &domain.ConfigurationError{Key: "GEMINI_API_KEY", Reason: "API キーがプレースホルダのままです"}
	}
	return nil
}

func getenv(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}

func getenvFirst(keys []string, fallback string) string {
	for _, key := range keys {
		val := strings.TrimSpace(os.Getenv(key))
		if val != "" {
			return val
		}
	}
	return fallback
}

func getenvInt(key string, fallback, lo, hi int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port int    `validate:"required,min=1,max=65535"`
		Host string `validate:"required"`
	}
	PoseAPI struct {
		BaseURL string `validate:"required,url"`
		Timeout int    `validate:"required,min=1"` // в секундах
	}
	Analysis struct {
		DefaultStride int `validate:"required,min=1"`
		MaxUploadMB   int `validate:"required,min=1"`
	}
	Media struct {
		FFmpegPath string `validate:"required"`
	}
	Logging struct {
		Level string
		File  string // путь к файлу логов, пусто — только stderr
	}
	CORS struct {
		AllowedOrigin string
	}
	Environment string
}

// Load загружает конфигурацию из переменных окружения и валидирует ее
func Load() (*Config, error) {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")

	// Конфигурация сервиса оценки позы
	cfg.PoseAPI.BaseURL = getEnv("POSE_API_BASE_URL", "http://localhost:8000")
	cfg.PoseAPI.Timeout = getEnvInt("POSE_API_TIMEOUT_SECONDS", 300) // 5 минут по умолчанию

	// Конфигурация анализа
	cfg.Analysis.DefaultStride = getEnvInt("ANALYSIS_FRAME_STRIDE", 5)
	cfg.Analysis.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 64)

	// Конфигурация декодирования
	cfg.Media.FFmpegPath = getEnv("FFMPEG_PATH", "ffmpeg")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.File = getEnv("LOG_FILE", "")

	// CORS
	cfg.CORS.AllowedOrigin = getEnv("CORS_ALLOWED_ORIGIN", "*")

	cfg.Environment = getEnv("ENVIRONMENT", "development")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

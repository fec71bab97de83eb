package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type JWTConfig struct {
	// SecretKey is shared with the external auth provider that issues the
	// tokens this service validates.
	SecretKey string
}

type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Timeout         time.Duration
}

type QueueConfig struct {
	DownloadTimeout   time.Duration
	ExtractionTimeout time.Duration
	RetryBlocked      bool
}

type StorageConfig struct {
	UploadDir string
}

func Load() (*Config, error) {
	// .env is optional; environment variables alone work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	maxTokens, _ := strconv.Atoi(getEnv("GEMINI_MAX_OUTPUT_TOKENS", "8192"))
	geminiTimeout, _ := strconv.Atoi(getEnv("GEMINI_TIMEOUT", "120"))
	downloadTimeout, _ := strconv.Atoi(getEnv("QUEUE_DOWNLOAD_TIMEOUT", "30"))
	extractionTimeout, _ := strconv.Atoi(getEnv("QUEUE_EXTRACTION_TIMEOUT", "120"))
	retryBlocked := getEnv("OCR_RETRY_BLOCKED", "false") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "docuscan"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: maxConns,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", "change-me-in-production"),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("GEMINI_MODEL", "gemini-pro-vision"),
			BaseURL:         getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			MaxOutputTokens: maxTokens,
			Timeout:         time.Duration(geminiTimeout) * time.Second,
		},
		Queue: QueueConfig{
			DownloadTimeout:   time.Duration(downloadTimeout) * time.Second,
			ExtractionTimeout: time.Duration(extractionTimeout) * time.Second,
			RetryBlocked:      retryBlocked,
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

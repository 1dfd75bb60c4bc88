package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LogLevel string
	Database DatabaseConfig
	Snapshot SnapshotConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Maps     MapsConfig
	Storage  StorageConfig
	Capture  CaptureConfig
	Server   ServerConfig
	Scoring  ScoringConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// SnapshotConfig selects where the in-progress draft is kept between runs.
type SnapshotConfig struct {
	Backend  string // file | sqlite | redis
	Path     string
	Key      string
	RedisURL string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	TessdataDir string
	PSM         int
	OEM         int
}

// LLMConfig holds the structured-extraction provider configuration
type LLMConfig struct {
	Provider     string // openai | gemini | none
	Model        string
	APIKey       string
	BaseURL      string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float32
	Timeout      time.Duration
}

// MapsConfig holds reverse-geocoding configuration
type MapsConfig struct {
	APIKey         string
	LocateTimeout  time.Duration
	GeocodeTimeout time.Duration
}

// StorageConfig holds the optional image sink configuration
type StorageConfig struct {
	S3Bucket string
	S3Region string
	S3Prefix string
}

// CaptureConfig holds background capture processing configuration
type CaptureConfig struct {
	InboxDir   string
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	Debounce   time.Duration
	MaxWidth   int
	MaxHeight  int
	Quality    int
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

// ScoringConfig points at an optional JSON file overriding risk/quality weights
type ScoringConfig struct {
	WeightsFile string
}

// LoadConfig loads configuration from environment variables, reading a .env file first when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Snapshot: SnapshotConfig{
			Backend:  strings.ToLower(getEnv("SNAPSHOT_BACKEND", "file")),
			Path:     getEnv("SNAPSHOT_PATH", "./data/inspection.json"),
			Key:      getEnv("SNAPSHOT_KEY", "inspection-draft"),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 6),
			OEM:         getEnvAsInt("TESSERACT_OEM", 0),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature:  getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Maps: MapsConfig{
			APIKey:         getEnv("GOOGLE_MAPS_API_KEY", ""),
			LocateTimeout:  getEnvAsDuration("GEO_LOCATE_TIMEOUT", 10*time.Second),
			GeocodeTimeout: getEnvAsDuration("GEO_GEOCODE_TIMEOUT", 5*time.Second),
		},
		Storage: StorageConfig{
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Region: getEnv("S3_REGION", "us-east-1"),
			S3Prefix: getEnv("S3_PREFIX", "inspections"),
		},
		Capture: CaptureConfig{
			InboxDir:   getEnv("CAPTURE_INBOX_DIR", ""),
			Workers:    getEnvAsInt("CAPTURE_WORKERS", 4),
			QueueSize:  getEnvAsInt("CAPTURE_QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("CAPTURE_JOB_TIMEOUT", 45*time.Second),
			Debounce:   getEnvAsDuration("CAPTURE_DEBOUNCE", 500*time.Millisecond),
			MaxWidth:   getEnvAsInt("CAPTURE_MAX_WIDTH", 1280),
			MaxHeight:  getEnvAsInt("CAPTURE_MAX_HEIGHT", 1280),
			Quality:    getEnvAsInt("CAPTURE_JPEG_QUALITY", 80),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		Scoring: ScoringConfig{
			WeightsFile: getEnv("SCORING_WEIGHTS_FILE", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate checks the configuration the daemon needs to start.
func (c *Config) Validate() error {
	switch c.Snapshot.Backend {
	case "file", "sqlite":
		if c.Snapshot.Path == "" {
			return NewAppError(CodeConfig, "SNAPSHOT_PATH is required", ErrInvalidInput)
		}
	case "redis":
		if c.Snapshot.RedisURL == "" {
			return NewAppError(CodeConfig, "REDIS_URL is required for the redis snapshot backend", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "SNAPSHOT_BACKEND must be one of file|sqlite|redis", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required for the openai provider", ErrInvalidInput)
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError(CodeConfig, "GEMINI_API_KEY is required for the gemini provider", ErrInvalidInput)
		}
	case "none":
	default:
		return NewAppError(CodeConfig, "LLM_PROVIDER must be one of openai|gemini|none", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Capture.Workers <= 0 {
		return NewAppError(CodeConfig, "CAPTURE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

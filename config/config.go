package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers understood by storage.New.
const (
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"
)

// Config stores the application configuration.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"5s"`
	AllowedOrigin   string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`

	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"root"`
	DBPassword string `envconfig:"DB_PASSWORD"` // no default on purpose
	DBName     string `envconfig:"DB_NAME" default:"studio"`

	// Redis配置
	RedisHost     string `envconfig:"REDIS_HOST" default:"127.0.0.1"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"minio"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:"127.0.0.1:9000"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET" default:"studio-media"`
	MinioRegion    string `envconfig:"MINIO_REGION" default:"us-east-1"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// S3 uses the default AWS credential chain
	S3Bucket       string `envconfig:"S3_BUCKET" default:"studio-media"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"12h"`

	UploadMaxBytes      int64         `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"` // 10 MiB
	UploadURLExpiry     time.Duration `envconfig:"UPLOAD_URL_EXPIRY" default:"5m"`
	UploadStaleAfter    time.Duration `envconfig:"UPLOAD_STALE_AFTER" default:"24h"`
	UploadRatePerMinute int           `envconfig:"UPLOAD_RATE_PER_MINUTE" default:"30"`
	SweepSchedule       string        `envconfig:"UPLOAD_SWEEP_SCHEDULE" default:"@every 1h"`

	BackendBaseURL string        `envconfig:"BACKEND_BASE_URL" default:"http://127.0.0.1:8000/api"`
	BackendAPIKey  string        `envconfig:"BACKEND_API_KEY"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	MetricsTTL     time.Duration `envconfig:"METRICS_CACHE_TTL" default:"10m"`

	NavConfigPath string `envconfig:"NAV_CONFIG"` // empty = built-in navigation

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSize    int    `envconfig:"LOG_MAX_SIZE" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAge     int    `envconfig:"LOG_MAX_AGE" default:"30"`
	LogCompress   bool   `envconfig:"LOG_COMPRESS" default:"true"`
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() (*Config, error) {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv processes the current environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must be provided")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("config: UPLOAD_MAX_BYTES must be positive")
	}
	if c.UploadURLExpiry <= 0 {
		return errors.New("config: UPLOAD_URL_EXPIRY must be positive")
	}
	switch c.StorageDriver {
	case StorageDriverMinio, StorageDriverS3:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// MySQLDSN builds the go-sql-driver DSN shared by database/sql and GORM.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// RedisAddr returns host:port for Redis clients.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"mysql"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/blog?charset=utf8mb4&parseTime=True&loc=Local"`
	PostgresDSN string `env:"POSTGRES_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=blog port=5432 sslmode=disable"`
	ResetDB     bool   `env:"RESET_DB" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
	// HashConcurrency caps simultaneous bcrypt operations. Zero means runtime.NumCPU().
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	StorageDriver  string `env:"STORAGE_DRIVER" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket    string `env:"S3_BUCKET" envDefault:"blog-images"`
	S3AccessKey string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	SwaggerHost string `env:"SWAGGER_HOST"`
}

// Load builds Config from the environment, reading a .env file first when one exists.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HashConcurrency <= 0 {
		cfg.HashConcurrency = runtime.NumCPU()
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.JWTTTL)
	}
	switch cfg.DBDriver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	switch cfg.StorageDriver {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

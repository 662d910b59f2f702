package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment   string `yaml:"env" validate:"oneof=development production test"`
	Storage       string `yaml:"storage" validate:"oneof=postgres memory"`
	DBDSN         string `yaml:"db_dsn" validate:"required_if=Storage postgres"`
	HTTPAddr      string `yaml:"http_addr" validate:"required"`
	TelegramToken string `yaml:"telegram_token"`

	DispatchInterval time.Duration `yaml:"dispatch_interval" validate:"min=1s"`
	DispatchBatch    int           `yaml:"dispatch_batch" validate:"min=1,max=1000"`
	DispatchAttempts int           `yaml:"dispatch_max_attempts" validate:"min=1,max=100"`

	SlotGenerationInterval time.Duration `yaml:"slot_generation_interval" validate:"min=1m"`
	SlotWeeksAhead         int           `yaml:"slot_weeks_ahead" validate:"min=1,max=52"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `yaml:"rate_limit_burst" validate:"gte=0"`

	OTLPEndpoint string `yaml:"otel_exporter_otlp_endpoint"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults значения по умолчанию
func Defaults() Config {
	return Config{
		Environment:            "development",
		Storage:                StoragePostgres,
		HTTPAddr:               ":8080",
		DispatchInterval:       30 * time.Second,
		DispatchBatch:          50,
		DispatchAttempts:       8,
		SlotGenerationInterval: 24 * time.Hour,
		SlotWeeksAhead:         4,
		RateLimitRPS:           1,
		RateLimitBurst:         5,
	}
}

// Load собирает конфиг: значения по умолчанию, затем YAML из CONFIG_FILE, затем переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENV")
	setString(&cfg.Storage, "STORAGE")
	setString(&cfg.DBDSN, "DB_DSN")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if err := setDuration(&cfg.DispatchInterval, "DISPATCH_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&cfg.DispatchBatch, "DISPATCH_BATCH"); err != nil {
		return err
	}
	if err := setInt(&cfg.DispatchAttempts, "DISPATCH_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setDuration(&cfg.SlotGenerationInterval, "SLOT_GENERATION_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&cfg.SlotWeeksAhead, "SLOT_WEEKS_AHEAD"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if raw, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok && raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = v
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

// Validate проверяет конфиг по тегам
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// IsProduction true для боевого окружения
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

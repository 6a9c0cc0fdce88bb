package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Environment   string `yaml:"env"`
	LogLevel      string `yaml:"log_level"`
	HTTPAddr      string `yaml:"http_addr"`
	DBDSN         string `yaml:"db_dsn"`
	StorageDriver string `yaml:"storage_driver"`
	MigrationsDir string `yaml:"migrations_dir"`
	TelegramToken string `yaml:"telegram_token"`
	SeedFile      string `yaml:"seed_file"`

	JWT struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Reminders struct {
		Window   time.Duration `yaml:"window"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"reminders"`

	Notify struct {
		Workers   int `yaml:"workers"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"notify"`
}

// Load читает конфиг: YAML-файл (если есть), затем .env, затем переменные окружения
func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Environment = "development"
	cfg.HTTPAddr = ":8080"
	cfg.StorageDriver = StoragePostgres
	cfg.JWT.Issuer = "lesson-scheduler"
	cfg.Reminders.Window = 24 * time.Hour
	cfg.Reminders.Interval = 5 * time.Minute
	cfg.Notify.Workers = 4
	cfg.Notify.QueueSize = 256
}

func loadFromEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DBDSN, "DB_DSN")
	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.MigrationsDir, "MIGRATIONS_DIR")
	setString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	setString(&cfg.SeedFile, "SEED_FILE")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.JWT.Issuer, "JWT_ISSUER")

	if err := setDuration(&cfg.Reminders.Window, "REMINDER_WINDOW"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Reminders.Interval, "REMINDER_INTERVAL"); err != nil {
		return err
	}
	if err := setInt(&cfg.Notify.Workers, "NOTIFY_WORKERS"); err != nil {
		return err
	}
	return setInt(&cfg.Notify.QueueSize, "NOTIFY_QUEUE")
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.Reminders.Window <= 0 || c.Reminders.Interval <= 0 {
		return fmt.Errorf("reminder window and interval must be positive")
	}
	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notify workers and queue size must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

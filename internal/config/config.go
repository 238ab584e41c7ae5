package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxConns     int    `env:"DB_MAX_CONNS" envDefault:"10"`
	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPool int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Stats Config
	StatsTimeWindowMinutes int `env:"STATS_TIME_WINDOW_MINUTES" envDefault:"60"`

	// Geofence monitoring
	Timezone           string        `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	Location           *time.Location
	GeofenceCacheTTL   time.Duration `env:"GEOFENCE_CACHE_TTL" envDefault:"5m"`
	StateTTL           time.Duration `env:"STATE_TTL" envDefault:"168h"`
	MonitorParallelism int           `env:"MONITOR_PARALLELISM" envDefault:"8"`

	// MQTT location feed, пустой брокер отключает подписку
	MQTTBroker      string        `env:"MQTT_BROKER"`
	MQTTClientID    string        `env:"MQTT_CLIENT_ID" envDefault:"geofence-monitor"`
	MQTTTopicPrefix string        `env:"MQTT_TOPIC_PREFIX" envDefault:"/workforce/employee"`
	MQTTTimeout     time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"10s"`

	// RabbitMQ, пустой URL отключает публикацию событий
	RabbitMQURL string `env:"RABBITMQ_URL"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             getEnvAsInt("DB_MAX_CONNS", 10),
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		MigrationsPath:         getEnv("MIGRATIONS_PATH", "file://migrations"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		RedisPool:              getEnvAsInt("REDIS_POOL_SIZE", 10),
		WebhookURL:             os.Getenv("WEBHOOK_URL"),
		WebhookSecret:          os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:         getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:      getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:       getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		StatsTimeWindowMinutes: getEnvAsInt("STATS_TIME_WINDOW_MINUTES", 60),
		Timezone:               getEnv("TIMEZONE", "Asia/Kolkata"),
		GeofenceCacheTTL:       getEnvAsDuration("GEOFENCE_CACHE_TTL", 5*time.Minute),
		StateTTL:               getEnvAsDuration("STATE_TTL", 7*24*time.Hour),
		MonitorParallelism:     getEnvAsInt("MONITOR_PARALLELISM", 8),
		MQTTBroker:             os.Getenv("MQTT_BROKER"),
		MQTTClientID:           getEnv("MQTT_CLIENT_ID", "geofence-monitor"),
		MQTTTopicPrefix:        getEnv("MQTT_TOPIC_PREFIX", "/workforce/employee"),
		MQTTTimeout:            getEnvAsDuration("MQTT_CONNECT_TIMEOUT", 10*time.Second),
		RabbitMQURL:            os.Getenv("RABBITMQ_URL"),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.MonitorParallelism < 1 {
		cfg.MonitorParallelism = 1
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

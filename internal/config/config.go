// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"DATABASE_URL"`
	MigrationsPath          string          `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	AppURL                  string          `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:3000"`
	Redis                   RedisConnection `yaml:"redis_connection"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	Auth                    Auth            `yaml:"auth"`
	Stripe                  Stripe          `yaml:"stripe"`
	WeatherAPI              WeatherAPI      `yaml:"weather_api"`
	NBRB                    NBRB            `yaml:"nbrb"`
	RateLimit               RateLimit       `yaml:"rate_limit"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	Expiry                  Expiry          `yaml:"expiry"`
	SMTP                    SMTP            `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// Auth структура для проверки токенов провайдера аутентификации
type Auth struct {
	JWTSecret   string   `yaml:"jwt_secret" env:"SUPABASE_JWT_SECRET"`
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
}

// Stripe структура для работы с платёжным провайдером
type Stripe struct {
	SecretKey      string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	MonthlyPriceID string `yaml:"monthly_price_id" env:"STRIPE_MONTHLY_PRICE_ID"`
	YearlyPriceID  string `yaml:"yearly_price_id" env:"STRIPE_YEARLY_PRICE_ID"`
}

// WeatherAPI структура для работы с weatherapi.com
type WeatherAPI struct {
	Key      string        `yaml:"key" env:"WEATHERAPI_KEY"`
	BaseURL  string        `yaml:"base_url" env:"WEATHERAPI_BASE_URL" env-default:"https://api.weatherapi.com/v1"`
	Timeout  time.Duration `yaml:"timeout" env:"WEATHERAPI_TIMEOUT" env-default:"10s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"WEATHERAPI_CACHE_TTL" env-default:"5m"`
}

// NBRB структура для работы с API Национального банка
type NBRB struct {
	BaseURL  string        `yaml:"base_url" env:"NBRB_BASE_URL" env-default:"https://www.nbrb.by"`
	Timeout  time.Duration `yaml:"timeout" env:"NBRB_TIMEOUT" env-default:"10s"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"NBRB_CACHE_TTL" env-default:"1h"`
}

// RateLimit структура для ограничения частоты запросов
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"20"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"40"`
}

// RabbitMQ структура для подключения к брокеру уведомлений.
// Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// Expiry структура для настройки фонового снятия истёкших подписок
type Expiry struct {
	Interval time.Duration `yaml:"interval" env:"EXPIRY_INTERVAL" env-default:"1h"`
}

// SMTP структура для отправки писем воркером уведомлений
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
	From string `yaml:"from" env:"SMTP_FROM"`
}

// Load читает конфиг из YAML-файла, указанного в CONFIG_PATH, с переопределением
// из переменных окружения. Без CONFIG_PATH конфиг читается только из окружения.
func Load() (*Config, error) {
	const op = "config.Load"
	// .env необязателен, в проде переменные задаются окружением
	_ = godotenv.Load()

	var cfg Config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.StorageConnectionString == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("storage connection string is not set"))
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"AppURL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"WeatherAPI:\n"+
			"  BaseURL: %s\n"+
			"  CacheTTL: %s\n"+
			"NBRB:\n"+
			"  BaseURL: %s\n"+
			"  CacheTTL: %s\n"+
			"AdminEmails: %v\n",
		c.Env,
		c.AppURL,
		c.HTTPServer.AddressHTTP,
		c.HTTPServer.TimeoutHTTP,
		c.HTTPServer.IdleTimeout,
		c.Redis.AddressRedis,
		c.Redis.DB,
		c.WeatherAPI.BaseURL,
		c.WeatherAPI.CacheTTL,
		c.NBRB.BaseURL,
		c.NBRB.CacheTTL,
		c.Auth.AdminEmails,
	)
}

// Package config предоставляет структуры и функции для парсинга и загрузки конфига BFF.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env-default:"local"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	HTTPServer      `yaml:"http_server"`
	RemoteAPI       `yaml:"remote_api"`
	JWTToken        `yaml:"jwttoken"`
	Access          `yaml:"access"`
	Cache           `yaml:"cache"`
	RateLimit       `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis (хранилище demo-флагов)
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру событий сессий.
// Пустой URL отключает потребителя событий.
type RabbitMQ struct {
	URL          string        `yaml:"url"`
	Retries      int           `yaml:"retries" env-default:"5"`
	RetryDelay   time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange     string        `yaml:"exchange" env-default:"sessions"`
	SessionQueue string        `yaml:"session_queue" env-default:"gamefolio.session-changed"`
	Workers      int           `yaml:"workers" env-default:"4"`
}

// RemoteAPI структура для настройки клиента удаленного API контента
type RemoteAPI struct {
	BaseURL string        `yaml:"base_url" env-required:"true"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Access настройки уровней доступа.
// DemoMode включает fallback на локальный флаг, когда удаленный статус недоступен.
// StatusTTL срок, после которого статус подписки перечитывается из удаленного API.
type Access struct {
	DemoMode  bool          `yaml:"demo_mode"`
	StatusTTL time.Duration `yaml:"status_ttl" env-default:"5m"`
}

// Cache настройки клиентского кеша списков и поиска
type Cache struct {
	PageSize       int           `yaml:"page_size" env-default:"12"`
	SearchMinChars int           `yaml:"search_min_chars" env-default:"2"`
	SearchDebounce time.Duration `yaml:"search_debounce" env-default:"300ms"`
	StaleAfter     time.Duration `yaml:"stale_after" env-default:"10m"`
	SweepSchedule  string        `yaml:"sweep_schedule" env-default:"@every 5m"`
}

// RateLimit настройки ограничения частоты запросов на одного зрителя
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и проверяет значения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%s: cache.page_size must be positive", op)
	}
	if cfg.SearchMinChars < 0 {
		return nil, fmt.Errorf("%s: cache.search_min_chars must not be negative", op)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"  Queue: %s\n"+
			"RemoteAPI:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Access:\n"+
			"  DemoMode: %t\n"+
			"Cache:\n"+
			"  PageSize: %d\n"+
			"  SearchMinChars: %d\n"+
			"  SearchDebounce: %s\n"+
			"  StaleAfter: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.DB,
		c.Exchange,
		c.SessionQueue,
		c.BaseURL,
		c.RemoteAPI.Timeout,
		c.DemoMode,
		c.PageSize,
		c.SearchMinChars,
		c.SearchDebounce,
		c.StaleAfter,
	)
}

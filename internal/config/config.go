// config реализует конфигурацию движка комментариев: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/text/language"

	"github.com/pribylovaa/comments-engine/internal/attachments"
)

// Config — корневая конфигурация.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	Backend     BackendConfig     `yaml:"backend"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Limits      LimitsConfig      `yaml:"limits"`
	Attachments AttachmentsConfig `yaml:"attachments"`
}

// BackendConfig — REST-бэкенд комментариев.
type BackendConfig struct {
	// Корень API, например https://example.org/api.
	BaseURL  string `yaml:"base_url" env:"BACKEND_URL" env-required:"true"`
	Language string `yaml:"language" env:"BACKEND_LANGUAGE" env-default:"ru"`
	Ordering string `yaml:"ordering" env:"BACKEND_ORDERING" env-default:"-created_at"`
	// UserAgent исходящих запросов.
	UserAgent string `yaml:"user_agent" env:"BACKEND_USER_AGENT" env-default:"commentsctl/1.0"`
	// AuthToken — токен по умолчанию (например, initData Telegram WebApp).
	AuthToken  string `yaml:"auth_token" env:"BACKEND_AUTH_TOKEN"`
	AuthScheme string `yaml:"auth_scheme" env:"BACKEND_AUTH_SCHEME" env-default:"tma"`
}

// TimeoutConfig — таймауты: на один HTTP-запрос и на загрузку страницы целиком.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"10s"`
	Load    time.Duration `yaml:"load" env:"LOAD_TIMEOUT" env-default:"15s"`
}

// LimitsConfig — ограничение частоты исходящих запросов.
type LimitsConfig struct {
	// RPS <= 0 — без ограничения.
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"10"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// AttachmentsConfig — ограничения на прикрепляемые изображения.
type AttachmentsConfig struct {
	MaxFiles     int      `yaml:"max_files" env:"ATTACHMENTS_MAX_FILES" env-default:"3"`
	MaxSizeBytes int64    `yaml:"max_size_bytes" env:"ATTACHMENTS_MAX_SIZE" env-default:"5242880"`
	AllowedTypes []string `yaml:"allowed_types" env:"ATTACHMENTS_ALLOWED_TYPES" env-separator:","`
}

// Policy переводит секцию в attachments.Policy; пустой allow-list — дефолтный.
func (a AttachmentsConfig) Policy() attachments.Policy {
	p := attachments.Policy{
		MaxFiles:     a.MaxFiles,
		MaxSizeBytes: a.MaxSizeBytes,
		AllowedTypes: a.AllowedTypes,
	}

	if len(p.AllowedTypes) == 0 {
		p.AllowedTypes = attachments.DefaultAllowedTypes
	}

	return p
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// Поверх значений из файла накладываются ENV-переменные.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", p, err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return readFile(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL")
	}

	if c.Backend.Language != "" {
		if _, err := language.Parse(c.Backend.Language); err != nil {
			return fmt.Errorf("backend.language %q is not a valid BCP 47 tag: %w", c.Backend.Language, err)
		}
	}

	if c.Timeouts.Request < 0 {
		return fmt.Errorf("timeouts.request must be >= 0")
	}

	if c.Timeouts.Load <= 0 {
		return fmt.Errorf("timeouts.load must be > 0")
	}

	if c.Limits.RPS > 0 && c.Limits.Burst <= 0 {
		return fmt.Errorf("limits.burst must be > 0 when limits.rps is set")
	}

	if c.Attachments.MaxFiles <= 0 {
		return fmt.Errorf("attachments.max_files must be > 0")
	}

	if c.Attachments.MaxSizeBytes <= 0 {
		return fmt.Errorf("attachments.max_size_bytes must be > 0")
	}

	return nil
}

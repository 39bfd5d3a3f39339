// config предоставляет конфигурацию клиента и локального sandbox-сервера
// и функции загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Sandbox SandboxConfig `yaml:"sandbox"`
}

// APIConfig — параметры исходящих вызовов к wallet-бэкенду.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"     env:"API_BASE_URL"     env-default:"https://paybudz-api-staging.kochtech.xyz"`
	Timeout     time.Duration `yaml:"timeout"      env:"API_TIMEOUT"      env-default:"15s"`
	UserAgent   string        `yaml:"user_agent"   env:"API_USER_AGENT"   env-default:"paybudz-client"`
	RefreshPath string        `yaml:"refresh_path" env:"API_REFRESH_PATH" env-default:"/auth/refresh-auth"`
	// RateLimit — запросов в секунду; 0 отключает ограничение.
	RateLimit float64 `yaml:"rate_limit" env:"API_RATE_LIMIT" env-default:"0"`
	RateBurst int     `yaml:"rate_burst" env:"API_RATE_BURST" env-default:"1"`
}

// SessionConfig — выбор драйвера хранилища токенов.
type SessionConfig struct {
	Driver      string `yaml:"driver"       env:"SESSION_DRIVER"       env-default:"file"`
	FilePath    string `yaml:"file_path"    env:"SESSION_FILE_PATH"`
	SQLiteDSN   string `yaml:"sqlite_dsn"   env:"SESSION_SQLITE_DSN"   env-default:"paybudz-session.db"`
	RedisURL    string `yaml:"redis_url"    env:"SESSION_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"SESSION_REDIS_PREFIX" env-default:"paybudz:session:"`
}

// SandboxConfig — локальный fake-бэкенд для разработки и e2e-проверок клиента.
type SandboxConfig struct {
	Host            string        `yaml:"host"              env:"SANDBOX_HOST"              env-default:"127.0.0.1"`
	Port            string        `yaml:"port"              env:"SANDBOX_PORT"              env-default:"3001"`
	JWTSecret       string        `yaml:"jwt_secret"        env:"SANDBOX_JWT_SECRET"        env-default:"sandbox-secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"  env:"SANDBOX_ACCESS_TOKEN_TTL"  env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"SANDBOX_REFRESH_TOKEN_TTL" env-default:"720h"`
	Timeout         time.Duration `yaml:"timeout"           env:"SANDBOX_TIMEOUT"           env-default:"5s"`
}

// Addr возвращает адрес в формате host:port.
func (s SandboxConfig) Addr() string { return net.JoinHostPort(s.Host, s.Port) }

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
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"UTC"`
		LogLevel string      `env:"APP_LOG_LEVEL" envDefault:"info"`
	}

	HTTP struct {
		Port string `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host string `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
	}

	ClinicAPI struct {
		URL      string        `env:"CLINIC_API_URL"`
		Token    string        `env:"CLINIC_API_TOKEN"`
		Email    string        `env:"CLINIC_API_EMAIL"`
		Password string        `env:"CLINIC_API_PASSWORD"`
		Timeout  time.Duration `env:"CLINIC_API_TIMEOUT" envDefault:"10s"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"clinic_admin:clinic_admin"`
		BasicClients       []ConfigBasicClient
	}

	Cascade struct {
		Concurrency int                  `env:"CASCADE_CONCURRENCY" envDefault:"1"`
		Policy      domain.FailurePolicy `env:"CASCADE_FAILURE_POLICY" envDefault:"sweep"`
	}

	Cache struct {
		Enabled     bool `env:"CACHE_ENABLED" envDefault:"true"`
		ReportsSize int  `env:"CACHE_REPORTS_SIZE" envDefault:"1000"`
	}

	Redis struct {
		Enabled  bool          `env:"REDIS_ENABLED"`
		Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB"`
		GuardTTL time.Duration `env:"REDIS_GUARD_TTL" envDefault:"5m"`
	}

	RabbitMQ struct {
		Enabled  bool   `env:"RABBITMQ_ENABLED"`
		URL      string `env:"RABBITMQ_URL"`
		Queue    string `env:"RABBITMQ_QUEUE" envDefault:"clinic-admin.deletions"`
		Exchange string `env:"RABBITMQ_EXCHANGE" envDefault:"clinic"`
		Bind     string `env:"RABBITMQ_BIND" envDefault:"clinic.clinic-admin.*.*.delete"`
		AllBind  string `env:"RABBITMQ_ALL_BIND" envDefault:"clinic.clinic-admin._all_.*.invalidate"`
	}
}

func NewConfig() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Приведение окружения к нижнему регистру для унификации
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))

	cfg.Auth.BasicClients = parseBasicClients(cfg.Auth.BasicClientsString)

	policy, err := domain.ParseFailurePolicy(string(cfg.Cascade.Policy))
	if err != nil {
		return nil, err
	}
	cfg.Cascade.Policy = policy

	if cfg.Cascade.Concurrency < 1 {
		cfg.Cascade.Concurrency = 1
	}

	if cfg.ClinicAPI.URL == "" {
		return nil, errors.New("CLINIC_API_URL is required")
	}
	cfg.ClinicAPI.URL = strings.TrimSuffix(cfg.ClinicAPI.URL, "/")

	return cfg, nil
}

func parseBasicClients(s string) []ConfigBasicClient {
	clients := []ConfigBasicClient{}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && parts[0] != "" {
			clients = append(clients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}
	return clients
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}

// HasLoginCredentials - токен получаем через /login, а не берем статический
func (c *Config) HasLoginCredentials() bool {
	return c.ClinicAPI.Token == "" && c.ClinicAPI.Email != "" && c.ClinicAPI.Password != ""
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevelopmentJwtSecret is only ever used outside production when JWT_SECRET is unset.
	DevelopmentJwtSecret = "development-only-insecure-jwt-secret"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql or postgres
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type ConsulConfig struct {
	Address string `mapstructure:"address"` // Empty disables registration
}

type Config struct {
	AppEnv         string         `mapstructure:"app_env"`
	BindAddress    string         `mapstructure:"bind_address"`
	GRPCAddress    string         `mapstructure:"grpc_address"`
	LogLevel       string         `mapstructure:"log_level"`
	ServiceName    string         `mapstructure:"service_name"`
	JwtSecret      string         `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration  `mapstructure:"token_ttl"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	AllowedOrigins []string       `mapstructure:"allowed_origins"`
	Database       DatabaseConfig `mapstructure:"database"`
	Consul         ConsulConfig   `mapstructure:"consul"`

	// UsingDevelopmentSecret is set by Load when the development secret was substituted.
	UsingDevelopmentSecret bool `mapstructure:"-"`
}

// envBindings maps config keys to the environment variables the service has always read.
var envBindings = map[string][]string{
	"app_env":                    {"APP_ENV", "ENVIRONMENT"},
	"bind_address":               {"BIND_ADDRESS"},
	"grpc_address":               {"GRPC_ADDRESS"},
	"log_level":                  {"LOG_LEVEL"},
	"service_name":               {"SERVICE_NAME"},
	"jwt_secret":                 {"JWT_SECRET"},
	"token_ttl":                  {"TOKEN_TTL"},
	"request_timeout":            {"REQUEST_TIMEOUT"},
	"allowed_origins":            {"ALLOWED_ORIGINS"},
	"database.driver":            {"DATABASE_DRIVER"},
	"database.url":               {"DATABASE_DSN", "DATABASE_CONNECTION_URL"},
	"database.host":              {"DATABASE_HOST", "DATABASE_URL"},
	"database.port":              {"DATABASE_PORT"},
	"database.user":              {"DATABASE_USER"},
	"database.password":          {"DATABASE_PASSWORD"},
	"database.name":              {"DATABASE_NAME"},
	"database.max_open_conns":    {"DATABASE_MAX_OPEN_CONNS"},
	"database.max_idle_conns":    {"DATABASE_MAX_IDLE_CONNS"},
	"database.conn_max_lifetime": {"DATABASE_CONN_MAX_LIFETIME"},
	"consul.address":             {"CONSUL_ADDRESS"},
}

// Load reads config.yaml (optional) and the environment, applies defaults and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetDefault("app_env", EnvProduction)
	v.SetDefault("bind_address", "127.0.0.1:8080")
	v.SetDefault("grpc_address", "127.0.0.1:50051")
	v.SetDefault("log_level", "info")
	v.SetDefault("service_name", "ecom-admin")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// ALLOWED_ORIGINS arrives as one comma separated string from the environment.
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings and substitutes the development secret outside production.
func (c *Config) Validate() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	if c.AppEnv == "" {
		c.AppEnv = EnvProduction
	}

	if c.JwtSecret == "" {
		if c.IsProduction() {
			return errors.New("config: JWT_SECRET must be set in production")
		}
		c.JwtSecret = DevelopmentJwtSecret
		c.UsingDevelopmentSecret = true
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive, got %s", c.TokenTTL)
	}

	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("config: database url or host must be set")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// DSN returns the configured connection string, assembling it from parts when no url is given.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.Name)
	default:
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Name)
	}
}

func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, o := range strings.Split(entry, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DotenvPaths are loaded before the environment is parsed; the server may be
// started from the repo root or from cmd/server.
var DotenvPaths = []string{".env", "../.env", "../../.env"}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Session SessionConfig
	Media   MediaConfig
	Admin   AdminConfig
}

type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"dev"`
	Port      string `envconfig:"APP_PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"`
	DSN         string `envconfig:"DB_DSN" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type SessionConfig struct {
	Secret     string `envconfig:"SESSION_SECRET" default:"dev_fallback_secret"`
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"catalog_admin"`
}

type MediaConfig struct {
	Root        string `envconfig:"MEDIA_ROOT" default:"uploads"`
	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB" default:"10"`
}

// AdminConfig seeds an admin account at startup when both values are set.
type AdminConfig struct {
	Username string `envconfig:"ADMIN_USERNAME"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

func (a AdminConfig) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

// Load reads .env files (later files do not override earlier ones) and parses
// the environment into Config.
func Load() (*Config, error) {
	for _, p := range DotenvPaths {
		_ = godotenv.Load(p)
	}
	return FromEnv()
}

// FromEnv parses the current process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("DB_DSN is empty (check your .env)")
	}
	switch strings.ToLower(c.DB.Driver) {
	case DriverPostgres, DriverSQLite:
		c.DB.Driver = strings.ToLower(c.DB.Driver)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.App.IsProd() && c.Session.Secret == "dev_fallback_secret" {
		return fmt.Errorf("SESSION_SECRET must be set in %s", AppEnvProd)
	}
	if c.Media.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

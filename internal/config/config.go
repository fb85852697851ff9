package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the lead tracker. Everything comes from the environment,
// optionally seeded from a .env file.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig

	// CacheTTLSeconds is how long a cached read stays valid
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" env-default:"60"`

	// StorageDebug turns on the storage engine's query and cache tracing
	StorageDebug bool `env:"STORAGE_DEBUG" env-default:"false"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	Name     string `env:"DB_NAME" env-default:"leadtracker"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASS"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`

	// ReadHost points reads at a replica. Empty means reads use Host.
	ReadHost string `env:"DB_READ_HOST"`
}

// RedisConfig holds the cache configuration. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads envFiles (missing files are skipped, later files win) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Overload(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive; is %d", c.CacheTTLSeconds)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json; is %q", c.Log.Format)
	}
	return nil
}

// DSN is the lib/pq connection string of the primary
func (c *Config) DSN() string {
	return c.Database.dsn(c.Database.Host)
}

// ReadDSN is the connection string reads go to
func (c *Config) ReadDSN() string {
	if c.Database.ReadHost == "" {
		return c.DSN()
	}
	return c.Database.dsn(c.Database.ReadHost)
}

func (d DatabaseConfig) dsn(host string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}

// Logger builds the root logger from the log settings
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()

	// already checked by validate
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

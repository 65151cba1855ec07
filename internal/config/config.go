// Package config provides application configuration loaded from the
// environment and an optional deliveries.yaml file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	configFileName = "deliveries"
	configFileType = "yaml"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Pricing  PricingConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds the table store connection settings.
type DatabaseConfig struct {
	Driver   string // postgres, mysql or sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Override string // DATABASE_DSN, used verbatim when set
	Debug    bool
	Retries  int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
	Lang       string
	Timezone   string
}

// PricingConfig is the sack rule used to suggest delivery prices.
type PricingConfig struct {
	KgPerSack    decimal.Decimal
	PricePerSack decimal.Decimal
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	Secret          string
	SecretGenerated bool
	CookieName      string
	Secure          bool
	IdleTTL         time.Duration
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.Override != "" {
		return d.Override
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	case "sqlite":
		return d.Path + "?_foreign_keys=on"
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	if strings.HasPrefix(d.Override, "postgres://") || strings.HasPrefix(d.Override, "postgresql://") {
		return d.Override
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Location resolves the configured time zone; blank means the host zone.
func (a AppConfig) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(a.Timezone)
}

var envKeys = map[string]string{
	"server.port":          "PORT",
	"server.read_timeout":  "SERVER_READ_TIMEOUT",
	"server.write_timeout": "SERVER_WRITE_TIMEOUT",
	"server.idle_timeout":  "SERVER_IDLE_TIMEOUT",
	"database.driver":      "DB_DRIVER",
	"database.host":        "DB_HOST",
	"database.port":        "DB_PORT",
	"database.user":        "DB_USER",
	"database.password":    "DB_PASSWORD",
	"database.name":        "DB_NAME",
	"database.sslmode":     "DB_SSLMODE",
	"database.path":        "DB_PATH",
	"database.dsn":         "DATABASE_DSN",
	"database.debug":       "DB_DEBUG",
	"database.retries":     "DB_RETRIES",
	"app.dev":              "DEV",
	"app.migrations":       "MIGRATIONS",
	"app.seed":             "SEED",
	"app.lang":             "APP_LANG",
	"app.timezone":         "APP_TIMEZONE",
	"pricing.kg_per_sack":  "PRICE_KG_PER_SACK",
	"pricing.per_sack":     "PRICE_PER_SACK",
	"session.secret":       "SESSION_SECRET",
	"session.cookie":       "SESSION_COOKIE",
	"session.secure":       "SESSION_SECURE",
	"session.idle_ttl":     "SESSION_IDLE_TTL",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "deliveries")
	v.SetDefault("database.password", "deliveries")
	v.SetDefault("database.name", "deliveries")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "deliveries.db")
	v.SetDefault("database.retries", 5)
	v.SetDefault("app.dev", false)
	v.SetDefault("app.migrations", false)
	v.SetDefault("app.lang", "sr")
	v.SetDefault("pricing.kg_per_sack", "5")
	v.SetDefault("pricing.per_sack", "250")
	v.SetDefault("session.cookie", "deliveries_session")
	v.SetDefault("session.idle_ttl", "12h")
	for key, env := range envKeys {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads configuration from defaults, the optional config file and the
// environment, in increasing priority. An empty path looks for
// deliveries.yaml in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	kgPerSack, err := decimal.NewFromString(v.GetString("pricing.kg_per_sack"))
	if err != nil || !kgPerSack.IsPositive() {
		return nil, fmt.Errorf("pricing.kg_per_sack: must be a positive number, got %q", v.GetString("pricing.kg_per_sack"))
	}
	perSack, err := decimal.NewFromString(v.GetString("pricing.per_sack"))
	if err != nil || perSack.IsNegative() {
		return nil, fmt.Errorf("pricing.per_sack: must be a non-negative number, got %q", v.GetString("pricing.per_sack"))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetInt("server.read_timeout"),
			WriteTimeout: v.GetInt("server.write_timeout"),
			IdleTimeout:  v.GetInt("server.idle_timeout"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("database.driver")),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
			Path:     v.GetString("database.path"),
			Override: v.GetString("database.dsn"),
			Debug:    v.GetBool("database.debug"),
			Retries:  v.GetInt("database.retries"),
		},
		App: AppConfig{
			Dev:        v.GetBool("app.dev"),
			Migrations: v.GetBool("app.migrations"),
			Seed:       v.GetBool("app.seed"),
			Lang:       v.GetString("app.lang"),
			Timezone:   v.GetString("app.timezone"),
		},
		Pricing: PricingConfig{KgPerSack: kgPerSack, PricePerSack: perSack},
		Session: SessionConfig{
			Secret:     v.GetString("session.secret"),
			CookieName: v.GetString("session.cookie"),
			Secure:     v.GetBool("session.secure"),
			IdleTTL:    v.GetDuration("session.idle_ttl"),
		},
	}

	switch cfg.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("database.driver: unsupported driver %q", cfg.Database.Driver)
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("app.timezone: %w", err)
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = uuid.NewString()
		cfg.Session.SecretGenerated = true
	}
	return cfg, nil
}

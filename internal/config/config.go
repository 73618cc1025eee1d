package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Kyat"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	}

	DB struct {
		Host        string `envconfig:"DB_HOST" default:"localhost"`
		Port        int    `envconfig:"DB_PORT" default:"5432"`
		User        string `envconfig:"DB_USER" default:"postgres"`
		Password    string `envconfig:"DB_PASSWORD" default:""`
		Name        string `envconfig:"DB_NAME" default:"kyat"`
		SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
		AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Ledger struct {
		// TransferPolicy is "any" (destination may belong to anyone) or "own".
		TransferPolicy string `envconfig:"LEDGER_TRANSFER_POLICY" default:"any"`
		Timezone       string `envconfig:"LEDGER_TIMEZONE" default:"UTC"`
	}

	Upload struct {
		Dir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
		MaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`
	}

	AMQP struct {
		URL        string `envconfig:"AMQP_URL"`
		Exchange   string `envconfig:"AMQP_EXCHANGE" default:"kyat"`
		RoutingKey string `envconfig:"AMQP_ROUTING_KEY" default:"ledger.events"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Location resolves the ledger time zone used for day and month boundaries.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading ledger timezone %q: %w", c.Ledger.Timezone, err)
	}

	return loc, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port < 1 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.App.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.Ledger.TransferPolicy {
	case "any", "own":
	default:
		errs = append(errs, fmt.Errorf("invalid LEDGER_TRANSFER_POLICY %q: must be any or own", c.Ledger.TransferPolicy))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("invalid UPLOAD_MAX_BYTES %d", c.Upload.MaxBytes))
	}

	return errors.Join(errs...)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

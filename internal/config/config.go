package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting, parsed from environment variables.
type Config struct {
	AppEnv      string   `env:"APP_ENV"      envDefault:"development"`
	Port        int      `env:"PORT"         envDefault:"3000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	Mongo  MongoConfig
	Token  TokenConfig
	SMTP   SMTPConfig
	Stream StreamConfig
}

// MongoConfig holds the database connection settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" envDefault:"telehealth"`
}

// TokenConfig holds session token signing and cookie settings.
type TokenConfig struct {
	Secret            string        `env:"JWT_SECRET"`
	Issuer            string        `env:"JWT_ISSUER"          envDefault:"telehealth-api"`
	ExpiresIn         time.Duration `env:"JWT_EXPIRES_IN"      envDefault:"2160h"`
	CookieExpiresDays int           `env:"COOKIE_EXPIRES_DAYS" envDefault:"90"`
}

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// StreamConfig holds the chat vendor credentials.
type StreamConfig struct {
	APIKey    string `env:"STREAM_API_KEY"`
	APISecret string `env:"STREAM_API_SECRET"`
}

// Load parses the configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs in production mode. It drives
// the cookie Secure/SameSite attributes and the log verbosity.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// validate checks that the settings without a usable default are present.
func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}
	if c.SMTP.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.SMTP.Username == "" {
		return fmt.Errorf("missing SMTP_USERNAME environment variable")
	}
	if c.SMTP.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}
	if c.SMTP.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}
	if c.Stream.APIKey == "" {
		return fmt.Errorf("missing STREAM_API_KEY environment variable")
	}
	if c.Stream.APISecret == "" {
		return fmt.Errorf("missing STREAM_API_SECRET environment variable")
	}

	return nil
}

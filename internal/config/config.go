package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" for production output, anything else for console.
	LogFormat string `mapstructure:"LOG_FORMAT"`

	StorageBackend                   string `mapstructure:"STORAGE_BACKEND"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	ClientURL     string `mapstructure:"CLIENT_URL"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	// DevAuth accepts "dev:<uid>[:<email>]" bearer tokens instead of
	// Firebase ID tokens. Refused in release mode.
	DevAuth   bool   `mapstructure:"DEV_AUTH"`
	// AdminUIDs seeds admin/roles when running on the memory backend.
	AdminUIDs string `mapstructure:"ADMIN_UIDS"`

	PlansFile        string `mapstructure:"PLANS_FILE"`
	BaseCurrency     string `mapstructure:"BASE_CURRENCY"`
	TrialDays        int    `mapstructure:"TRIAL_DAYS"`
	PaymentKeySecret string `mapstructure:"PAYMENT_KEY_SECRET"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	SMTPHost       string `mapstructure:"SMTP_HOST"`
	SMTPPort       int    `mapstructure:"SMTP_PORT"`
	SMTPUser       string `mapstructure:"SMTP_USER"`
	SMTPPass       string `mapstructure:"SMTP_PASS"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	SupportEmail   string `mapstructure:"SUPPORT_EMAIL"`

	GeoAPIURL         string        `mapstructure:"GEO_API_URL"`
	FXAPIURL          string        `mapstructure:"FX_API_URL"`
	HTTPClientTimeout time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT"`
}

var keys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT",
	"STORAGE_BACKEND", "FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL", "PUBLIC_BASE_URL", "DEV_AUTH", "ADMIN_UIDS",
	"PLANS_FILE", "BASE_CURRENCY", "TRIAL_DAYS", "PAYMENT_KEY_SECRET",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"SENDGRID_API_KEY", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM", "SUPPORT_EMAIL",
	"GEO_API_URL", "FX_API_URL", "HTTP_CLIENT_TIMEOUT",
}

// LoadConfig reads configuration from the environment. Outside release mode a
// .env file in the working directory is loaded first, if present.
func LoadConfig() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("STORAGE_BACKEND", StorageFirestore)
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("DEV_AUTH", false)
	v.SetDefault("BASE_CURRENCY", "INR")
	v.SetDefault("TRIAL_DAYS", 14)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_QUEUE", "reviewly.events")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "no-reply@reviewly.app")
	v.SetDefault("GEO_API_URL", "https://ipapi.co")
	v.SetDefault("FX_API_URL", "https://open.er-api.com/v6/latest")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", 5*time.Second)

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageFirestore, StorageMemory, c.StorageBackend)
	}
	if c.DevAuth && c.GinMode == "release" {
		return errors.New("DEV_AUTH cannot be enabled in release mode")
	}
	if c.PaymentKeySecret == "" {
		return errors.New("PAYMENT_KEY_SECRET is required")
	}
	if c.TrialDays < 0 {
		return errors.New("TRIAL_DAYS cannot be negative")
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("BASE_CURRENCY must be a 3-letter code, got %q", c.BaseCurrency)
	}
	c.BaseCurrency = strings.ToUpper(c.BaseCurrency)
	return nil
}

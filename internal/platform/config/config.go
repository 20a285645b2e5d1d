// Package config carga la configuración de la API.
//
// Orden de precedencia (el último gana):
//  1. defaults
//  2. archivo YAML (CONFIG_FILE), opcional
//  3. archivo .env (si existe), vía godotenv
//  4. variables de entorno
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Booking   BookingConfig   `yaml:"booking"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Reminders RemindersConfig `yaml:"reminders"`
}

type AppConfig struct {
	Env  string `yaml:"env"`
	Name string `yaml:"name"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DBConfig struct {
	// DSN vacío => storage in-memory.
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	DevHeaders bool          `yaml:"dev_headers"`

	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type BookingConfig struct {
	Timezone string `yaml:"timezone"`
}

type PaymentsConfig struct {
	Provider        string        `yaml:"provider"` // mock | gateway
	MockApproveRate float64       `yaml:"mock_approve_rate"`
	GatewayURL      string        `yaml:"gateway_url"`
	GatewayAPIKey   string        `yaml:"gateway_api_key"`
	Timeout         time.Duration `yaml:"timeout"`
}

type RemindersConfig struct {
	WindowDays int `yaml:"window_days"`
}

func Default() Config {
	return Config{
		App:  AppConfig{Env: EnvDevelopment, Name: "petcare-backend"},
		HTTP: HTTPConfig{Addr: ":8080", ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second},
		DB:   DBConfig{Migrate: true},
		Auth: AuthConfig{TokenTTL: 24 * time.Hour},
		Log:  LogConfig{Level: "info", Format: "text"},
		Booking: BookingConfig{
			Timezone: "UTC",
		},
		Payments: PaymentsConfig{
			Provider:        "mock",
			MockApproveRate: 1.0,
			Timeout:         10 * time.Second,
		},
		Reminders: RemindersConfig{WindowDays: 30},
	}
}

// Load arma la config completa. Un CONFIG_FILE inexistente es error;
// un .env inexistente no.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout)

	cfg.DB.DSN = getEnv("DB_DSN", cfg.DB.DSN)
	cfg.DB.Migrate = getEnvBool("DB_MIGRATE", cfg.DB.Migrate)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("JWT_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.DevHeaders = getEnvBool("AUTH_DEV_HEADERS", cfg.Auth.DevHeaders)
	cfg.Auth.AdminEmail = getEnv("ADMIN_EMAIL", cfg.Auth.AdminEmail)
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.Auth.AdminPassword)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Booking.Timezone = getEnv("BOOKING_TIMEZONE", cfg.Booking.Timezone)

	cfg.Payments.Provider = getEnv("PAYMENTS_PROVIDER", cfg.Payments.Provider)
	cfg.Payments.MockApproveRate = getEnvFloat("PAYMENTS_MOCK_APPROVE_RATE", cfg.Payments.MockApproveRate)
	cfg.Payments.GatewayURL = getEnv("PAYMENTS_GATEWAY_URL", cfg.Payments.GatewayURL)
	cfg.Payments.GatewayAPIKey = getEnv("PAYMENTS_GATEWAY_API_KEY", cfg.Payments.GatewayAPIKey)
	cfg.Payments.Timeout = getEnvDuration("PAYMENTS_TIMEOUT", cfg.Payments.Timeout)

	cfg.Reminders.WindowDays = getEnvInt("REMINDERS_WINDOW_DAYS", cfg.Reminders.WindowDays)
}

// Validate junta todas las violaciones en un solo error.
func (c Config) Validate() error {
	var err error

	switch c.App.Env {
	case EnvDevelopment, EnvProduction:
	default:
		err = multierr.Append(err, fmt.Errorf("app.env must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.App.Env))
	}

	if c.IsProduction() {
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			err = multierr.Append(err, errors.New("auth.jwt_secret is required in production"))
		}
		if c.Auth.DevHeaders {
			err = multierr.Append(err, errors.New("auth.dev_headers cannot be enabled in production"))
		}
	}
	if !c.Auth.DevHeaders && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		err = multierr.Append(err, errors.New("auth.jwt_secret is required unless auth.dev_headers is enabled"))
	}
	if c.Auth.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("auth.token_ttl must be positive"))
	}

	if _, locErr := time.LoadLocation(c.Booking.Timezone); locErr != nil {
		err = multierr.Append(err, fmt.Errorf("booking.timezone: %w", locErr))
	}

	switch c.Payments.Provider {
	case "mock":
		if c.Payments.MockApproveRate < 0 || c.Payments.MockApproveRate > 1 {
			err = multierr.Append(err, errors.New("payments.mock_approve_rate must be between 0 and 1"))
		}
	case "gateway":
		if strings.TrimSpace(c.Payments.GatewayURL) == "" {
			err = multierr.Append(err, errors.New("payments.gateway_url is required for the gateway provider"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("payments.provider must be mock or gateway, got %q", c.Payments.Provider))
	}

	if c.Reminders.WindowDays < 1 {
		err = multierr.Append(err, errors.New("reminders.window_days must be >= 1"))
	}

	return err
}

func (c Config) IsProduction() bool { return c.App.Env == EnvProduction }

// Location devuelve la zona horaria para normalizar fechas de turnos.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
